package plugin

import (
	"bytes"
	"context"
	stdErrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// recordingPlugin implements every hook and appends its name to a shared log.
type recordingPlugin struct {
	BasePlugin
	name     string
	priority int
	log      *[]string
	err      error
}

func (p *recordingPlugin) Metadata() PluginMetadata {
	return PluginMetadata{Name: p.name, Version: "v1.0.0", Priority: p.priority}
}

func (p *recordingPlugin) AfterConfig(*Context) error {
	*p.log = append(*p.log, p.name+":config")
	return p.err
}

func (p *recordingPlugin) ArticlePrerender(_ *Context, a *site.Article) error {
	*p.log = append(*p.log, p.name+":"+a.RelPath)
	return p.err
}

// configOnly implements a single hook.
type configOnly struct{ name string }

func (c configOnly) Metadata() PluginMetadata {
	return PluginMetadata{Name: c.name, Version: "v0.1.0"}
}
func (c configOnly) AfterConfig(*Context) error { return nil }

func newTestContext(t *testing.T, logs *bytes.Buffer) *Context {
	t.Helper()
	s, err := site.New("https://example.org/", "Test")
	require.NoError(t, err)
	return NewContext(context.Background(), slog.New(slog.NewTextHandler(logs, nil)), &config.Config{}, s, "build-1")
}

func TestPluginMetadataValidation(t *testing.T) {
	tests := []struct {
		name      string
		metadata  PluginMetadata
		expectErr bool
	}{
		{"valid metadata", PluginMetadata{Name: "links", Version: "v1.0.0"}, false},
		{"missing name", PluginMetadata{Version: "v1.0.0"}, true},
		{"missing version", PluginMetadata{Name: "links"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.metadata.Validate()
			if tt.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHookValidation(t *testing.T) {
	for _, h := range Hooks() {
		require.True(t, h.IsValid(), h)
	}
	require.False(t, Hook("BEFORE_EVERYTHING").IsValid())
}

func TestPluginErrorMessage(t *testing.T) {
	base := context.Canceled
	err := NewPluginError("links", HookArticlePrerender, "posts/a.md", base)
	require.Equal(t, "plugin links failed during ARTICLE_PRERENDER for posts/a.md: context canceled", err.Error())
	require.ErrorIs(t, err, base)

	err = NewPluginError("menus", HookAfterParseLate, "", base)
	require.Equal(t, "plugin menus failed during AFTER_PARSE_LATE: context canceled", err.Error())
}

func TestRegistry_OrderAndHookFiltering(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.MustRegister(
		&recordingPlugin{name: "escape", priority: 90, log: &log},
		&recordingPlugin{name: "links", priority: 20, log: &log},
		&recordingPlugin{name: "bqcite", priority: 10, log: &log},
		configOnly{name: "defaults"},
	)

	require.Equal(t, 4, r.Count())
	require.Error(t, r.Register(configOnly{name: "defaults"}))
	require.Error(t, r.Register(nil))

	var names []string
	for _, p := range r.ForHook(HookArticlePrerender) {
		names = append(names, p.Metadata().Name)
	}
	require.Equal(t, []string{"bqcite", "links", "escape"}, names)
	require.Len(t, r.ForHook(HookAfterConfig), 4)
	require.Empty(t, r.ForHook(HookAfterParseLate))

	require.True(t, r.Has("links"))
	require.NoError(t, r.Unregister("links"))
	require.False(t, r.Has("links"))
	require.Error(t, r.Unregister("links"))
}

func TestDispatcher_RunsInPriorityOrder(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.MustRegister(
		&recordingPlugin{name: "b", priority: 2, log: &log},
		&recordingPlugin{name: "a", priority: 1, log: &log},
	)
	var logs bytes.Buffer
	pc := newTestContext(t, &logs)
	d := NewDispatcher(r)

	require.NoError(t, d.Init(pc))
	require.NoError(t, d.AfterConfig(pc))
	require.NoError(t, d.ArticlePrerender(pc, &site.Article{RelPath: "p.md"}))
	require.NoError(t, d.Cleanup())
	require.Equal(t, []string{"a:config", "b:config", "a:p.md", "b:p.md"}, log)
}

func TestDispatcher_WarningErrorsContinue(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.MustRegister(
		&recordingPlugin{name: "flaky", priority: 1, log: &log,
			err: errors.New(errors.CategoryNetwork, errors.SeverityWarning, "endpoint down")},
		&recordingPlugin{name: "after", priority: 2, log: &log},
	)
	var logs bytes.Buffer
	pc := newTestContext(t, &logs)

	require.NoError(t, NewDispatcher(r).ArticlePrerender(pc, &site.Article{RelPath: "x.md"}))
	require.Equal(t, []string{"flaky:x.md", "after:x.md"}, log)
	require.Contains(t, logs.String(), "plugin=flaky")
	require.Contains(t, logs.String(), "article=x.md")
}

func TestDispatcher_FatalErrorsStop(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.MustRegister(
		&recordingPlugin{name: "broken", priority: 1, log: &log, err: stdErrors.New("boom")},
		&recordingPlugin{name: "after", priority: 2, log: &log},
	)
	var logs bytes.Buffer
	pc := newTestContext(t, &logs)

	err := NewDispatcher(r).AfterConfig(pc)
	require.Error(t, err)
	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "broken", perr.PluginName)
	require.Equal(t, []string{"broken:config"}, log)
}

func TestDispatcher_StopsOnCanceledContext(t *testing.T) {
	var log []string
	r := NewRegistry()
	r.MustRegister(&recordingPlugin{name: "a", log: &log})
	var logs bytes.Buffer
	pc := newTestContext(t, &logs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pc.Context = ctx

	require.ErrorIs(t, NewDispatcher(r).AfterConfig(pc), context.Canceled)
	require.Empty(t, log)
}

func TestContext_WithValueCopies(t *testing.T) {
	var logs bytes.Buffer
	pc := newTestContext(t, &logs)
	child := pc.WithValue("menus", "x")

	require.Equal(t, "x", child.GetString("menus"))
	require.Nil(t, pc.GetValue("menus"))
	require.Equal(t, "", child.GetString("missing"))
	require.Equal(t, pc.BuildID, child.BuildID)
}
