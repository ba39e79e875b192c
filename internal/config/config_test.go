package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  base_url: https://example.org/\n"))
	require.NoError(t, err)

	require.Equal(t, DefaultTitle, cfg.Site.Title)
	require.Equal(t, "en", cfg.Site.Language)
	require.Equal(t, DefaultContentDir, cfg.Content.Dir)
	require.Equal(t, DefaultOutputDir, cfg.Output.Dir)
	require.True(t, cfg.Output.Clean)
	require.Positive(t, cfg.Build.Concurrency)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, DefaultDebounce, Duration(cfg.Daemon.Debounce, 0))
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("BLOG_BASE", "https://env.example/")
	t.Setenv("WM_TOKEN", "s3cret")

	cfg, err := Parse([]byte(`
site:
  base_url: ${BLOG_BASE}
webmention:
  enabled: true
  token: ${WM_TOKEN}
`))
	require.NoError(t, err)
	require.Equal(t, "https://env.example/", cfg.Site.BaseURL)
	require.Equal(t, "s3cret", cfg.Webmention.Token)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing base url", "site:\n  title: x\n"},
		{"relative base url", "site:\n  base_url: /blog/\n"},
		{"nats without webmention", "site:\n  base_url: https://e.org/\nwebmention:\n  nats:\n    url: nats://localhost:4222\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			require.True(t, errors.IsCategory(err, errors.CategoryConfig))
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("site: [unterminated"))
	require.Error(t, err)
	require.True(t, errors.IsFatal(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestInit_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "existing file must not be overwritten without force")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Blog", cfg.Site.Title)
	require.Equal(t, DefaultMenuPos, IntOr(cfg.Menus.DefaultPos, -1))
	require.True(t, BoolOr(cfg.Markdown.GFM, false))
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BP_TEST_A=fromfile\nBP_TEST_B=fromfile\n"), 0o600))

	t.Setenv("BP_TEST_A", "fromenv")
	t.Setenv("BP_TEST_B", "")
	require.NoError(t, os.Unsetenv("BP_TEST_B"))

	loadEnvFiles(envPath, filepath.Join(dir, "missing.env"))
	require.Equal(t, "fromenv", os.Getenv("BP_TEST_A"))
	require.Equal(t, "fromfile", os.Getenv("BP_TEST_B"))
}

func TestDurationAndBoolHelpers(t *testing.T) {
	require.Equal(t, 3*time.Second, Duration("3s", time.Second))
	require.Equal(t, time.Second, Duration("", time.Second))
	require.Equal(t, time.Second, Duration("bogus", time.Second))
	require.Equal(t, time.Second, Duration("-1s", time.Second))

	yes := true
	require.True(t, BoolOr(&yes, false))
	require.False(t, BoolOr(nil, false))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = LoggingConfig{Level: "error"}.NewLogger(&buf, true)
	logger.Debug("debug enabled by verbose")
	require.Contains(t, buf.String(), "debug enabled by verbose")
}

func TestNormalizers(t *testing.T) {
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("WARNING"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("chatty"))
	require.Equal(t, LogFormatJSON, NormalizeLogFormat(" JSON "))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
}
