package plugin

import "fmt"

// Hook identifies a lifecycle point in the blog pipeline.
type Hook string

const (
	HookAfterConfig       Hook = "AFTER_CONFIG"
	HookAfterArticleParse Hook = "AFTER_ARTICLE_PARSE"
	HookArticlePrerender  Hook = "ARTICLE_PRERENDER"
	HookAfterParseLate    Hook = "AFTER_PARSE_LATE"
)

// Hooks lists all hooks in firing order.
func Hooks() []Hook {
	return []Hook{HookAfterConfig, HookAfterArticleParse, HookArticlePrerender, HookAfterParseLate}
}

// IsValid returns true if the hook is recognized.
func (h Hook) IsValid() bool {
	switch h {
	case HookAfterConfig, HookAfterArticleParse, HookArticlePrerender, HookAfterParseLate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the hook.
func (h Hook) String() string {
	return string(h)
}

// PluginError represents an error that occurred within a plugin hook.
type PluginError struct {
	// PluginName identifies which plugin failed.
	PluginName string

	// Hook is the lifecycle point being executed.
	Hook Hook

	// Article is the source path of the article being processed, if any.
	Article string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	if e.Article != "" {
		return fmt.Sprintf("plugin %s failed during %s for %s: %v", e.PluginName, e.Hook, e.Article, e.Err)
	}
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Hook, e.Err)
}

// Unwrap returns the underlying error for error inspection.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new plugin error.
func NewPluginError(pluginName string, hook Hook, article string, err error) *PluginError {
	return &PluginError{
		PluginName: pluginName,
		Hook:       hook,
		Article:    article,
		Err:        err,
	}
}
