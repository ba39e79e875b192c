package config

import (
	"runtime"
	"time"
)

const (
	DefaultTitle           = "Blog"
	DefaultContentDir      = "content"
	DefaultOutputDir       = "public"
	DefaultMenuPos         = 5
	DefaultWebmentionDB    = ".blogplugins/webmentions.db"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultUserAgent       = "blogplugins-webmention/1.0"
	DefaultMaxConcurrent   = 4
	DefaultNATSSubject     = "blog.webmentions"
	DefaultDebounce        = 2 * time.Second
	DefaultReceiveInterval = time.Hour
)

// ApplyDefaults fills core settings. Plugin sections are defaulted by the
// plugins themselves in their AFTER_CONFIG hook.
func (c *Config) ApplyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = DefaultTitle
	}
	if c.Site.Language == "" {
		c.Site.Language = "en"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = DefaultContentDir
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
		c.Output.Clean = true
	}
	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = runtime.NumCPU()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Daemon.Debounce == "" {
		c.Daemon.Debounce = DefaultDebounce.String()
	}
	if c.Daemon.ReceiveInterval == "" {
		c.Daemon.ReceiveInterval = DefaultReceiveInterval.String()
	}
}

// Duration parses a duration setting, returning fallback when raw is empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IntOr dereferences n, returning fallback when unset.
func IntOr(n *int, fallback int) int {
	if n == nil {
		return fallback
	}
	return *n
}

// BoolOr dereferences b, returning fallback when unset.
func BoolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
