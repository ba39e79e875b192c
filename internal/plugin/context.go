package plugin

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Context provides plugins with access to services and state. It is passed
// explicitly to every hook instead of being bound to the plugin.
type Context struct {
	// Context is the standard Go context for cancellation and deadlines.
	Context context.Context

	// Logger provides structured logging for plugin operations. Warnings are
	// the diagnostic sink; logging never halts processing.
	Logger *slog.Logger

	// Config is the loaded configuration. Plugins may only modify their own
	// section and only during AFTER_CONFIG.
	Config *config.Config

	// Site renders links and qualifies URLs.
	Site *site.Site

	// Recorder receives metrics.
	Recorder metrics.Recorder

	// BuildID uniquely identifies this build.
	BuildID string

	// Data lets plugins share read-only values. Use WithValue to extend it.
	Data map[string]any
}

// NewContext creates a new plugin context with the given services.
func NewContext(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	s *site.Site,
	buildID string,
) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Context:  ctx,
		Logger:   logger,
		Config:   cfg,
		Site:     s,
		Recorder: metrics.NoopRecorder{},
		BuildID:  buildID,
		Data:     make(map[string]any),
	}
}

// WithValue returns a copy of the context with the given key-value pair in Data.
func (pc *Context) WithValue(key string, value any) *Context {
	newData := make(map[string]any, len(pc.Data)+1)
	for k, v := range pc.Data {
		newData[k] = v
	}
	newData[key] = value

	cp := *pc
	cp.Data = newData
	return &cp
}

// WithLogger returns a copy of the context using logger.
func (pc *Context) WithLogger(logger *slog.Logger) *Context {
	cp := *pc
	cp.Logger = logger
	return &cp
}

// GetValue retrieves a value from the plugin data map.
// Returns nil if the key doesn't exist.
func (pc *Context) GetValue(key string) any {
	return pc.Data[key]
}

// GetString retrieves a string value from the plugin data map.
// Returns empty string if the key doesn't exist or is not a string.
func (pc *Context) GetString(key string) string {
	if v, ok := pc.Data[key].(string); ok {
		return v
	}
	return ""
}

// Warn logs a non-fatal diagnostic and counts it under kind.
func (pc *Context) Warn(kind, msg string, attrs ...any) {
	pc.Logger.Warn(msg, attrs...)
	pc.Recorder.IncWarning(kind)
}
