package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyArticle    = "article"
	KeyPlugin     = "plugin"
	KeyHook       = "hook"
	KeyMenu       = "menu"
	KeyField      = "field"
	KeyToken      = "token"
	KeyURL        = "url"
	KeyTarget     = "target"
	KeyEndpoint   = "endpoint"
	KeyBuildID    = "build_id"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Article(relPath string) slog.Attr { return slog.String(KeyArticle, relPath) }
func Plugin(name string) slog.Attr     { return slog.String(KeyPlugin, name) }
func Hook(name string) slog.Attr       { return slog.String(KeyHook, name) }
func Menu(name string) slog.Attr       { return slog.String(KeyMenu, name) }
func Field(name string) slog.Attr      { return slog.String(KeyField, name) }
func Token(text string) slog.Attr      { return slog.String(KeyToken, text) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Target(u string) slog.Attr        { return slog.String(KeyTarget, u) }
func Endpoint(u string) slog.Attr      { return slog.String(KeyEndpoint, u) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
