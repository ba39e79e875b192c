package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Content    ContentConfig    `yaml:"content"`
	Output     OutputConfig     `yaml:"output"`
	Build      BuildConfig      `yaml:"build"`
	Markdown   MarkdownConfig   `yaml:"markdown"`
	Menus      MenusConfig      `yaml:"menus"`
	Webmention WebmentionConfig `yaml:"webmention"`
	SchemaOrg  SchemaOrgConfig  `yaml:"schemaorg"`
	Logging    LoggingConfig    `yaml:"logging"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// SiteConfig describes the blog itself.
type SiteConfig struct {
	Title       string       `yaml:"title"`
	BaseURL     string       `yaml:"base_url"`
	Description string       `yaml:"description,omitempty"`
	Language    string       `yaml:"language,omitempty"`
	Author      AuthorConfig `yaml:"author,omitempty"`
}

// AuthorConfig is the default article author.
type AuthorConfig struct {
	Name  string `yaml:"name,omitempty"`
	URL   string `yaml:"url,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// ContentConfig controls where articles are read from.
type ContentConfig struct {
	Dir    string `yaml:"dir"`
	Drafts bool   `yaml:"drafts,omitempty"` // Include articles marked draft: true
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean"` // Clean output directory before build
}

// BuildConfig tunes the host pipeline.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency,omitempty"` // Articles processed in parallel
}

// MarkdownConfig configures the markdown converter plugin.
type MarkdownConfig struct {
	Enabled   *bool `yaml:"enabled,omitempty"`
	GFM       *bool `yaml:"gfm,omitempty"`
	HardWraps bool  `yaml:"hard_wraps,omitempty"`
	Unsafe    bool  `yaml:"unsafe,omitempty"` // Pass raw HTML through
}

// MenusConfig configures the menu aggregator.
type MenusConfig struct {
	DefaultPos *int `yaml:"default_pos,omitempty"` // Nil means DefaultMenuPos; 0 is a valid position
}

// WebmentionConfig configures webmention sending and receiving.
type WebmentionConfig struct {
	Enabled        bool        `yaml:"enabled"`
	Send           bool        `yaml:"send,omitempty"`        // Send during build
	ReceiveURL     string      `yaml:"receive_url,omitempty"` // JF2 feed of received mentions
	Token          string      `yaml:"token,omitempty"`
	DBPath         string      `yaml:"db_path,omitempty"`
	RequestTimeout string      `yaml:"request_timeout,omitempty"`
	UserAgent      string      `yaml:"user_agent,omitempty"`
	MaxConcurrent  int         `yaml:"max_concurrent,omitempty"`
	Retry          RetryConfig `yaml:"retry,omitempty"`
	NATS           NATSConfig  `yaml:"nats,omitempty"`
}

// RetryBackoffMode selects how delays grow between retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retries of transient webmention delivery failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    string           `yaml:"initial,omitempty"`
	Max        string           `yaml:"max,omitempty"`
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

// NATSConfig enables publishing webmention events to JetStream.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// SchemaOrgConfig configures the JSON-LD graph plugin.
type SchemaOrgConfig struct {
	Enabled       bool   `yaml:"enabled"`
	PublisherName string `yaml:"publisher_name,omitempty"`
	PublisherLogo string `yaml:"publisher_logo,omitempty"`
	GitDates      bool   `yaml:"git_dates,omitempty"` // Derive dateModified from git history
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DaemonConfig configures serve mode.
type DaemonConfig struct {
	Debounce        string `yaml:"debounce,omitempty"`
	ReceiveInterval string `yaml:"receive_interval,omitempty"`
	MetricsAddr     string `yaml:"metrics_addr,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	loadEnvFiles(".env", ".env.local")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file").
			WithContext("path", configPath)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and applying defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	enabled := true
	menuPos := DefaultMenuPos
	example := Config{
		Site: SiteConfig{
			Title:       "My Blog",
			BaseURL:     "https://example.com/",
			Description: "Notes and articles",
			Language:    "en",
			Author:      AuthorConfig{Name: "Jane Doe", URL: "https://example.com/about/"},
		},
		Content:  ContentConfig{Dir: "content"},
		Output:   OutputConfig{Dir: "public", Clean: true},
		Markdown: MarkdownConfig{Enabled: &enabled, GFM: &enabled},
		Menus:    MenusConfig{DefaultPos: &menuPos},
		Webmention: WebmentionConfig{
			Enabled:    false,
			ReceiveURL: "https://webmention.io/api/mentions.jf2?domain=example.com&token=${WEBMENTION_TOKEN}",
			DBPath:     DefaultWebmentionDB,
		},
		SchemaOrg: SchemaOrgConfig{Enabled: true, PublisherName: "Jane Doe"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
