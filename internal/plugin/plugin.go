// Package plugin provides the hook-based plugin system the blog pipeline is built on.
// A plugin declares its identity through Metadata and opts into lifecycle hooks by
// implementing the matching hook interfaces.
package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Plugin represents a blog plugin with metadata.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, priority).
	Metadata() PluginMetadata
}

// PluginLifecycle extends Plugin with optional lifecycle hooks.
type PluginLifecycle interface {
	Plugin

	// Init is called once before the first hook fires.
	Init(pc *Context) error

	// Cleanup is called when the build (or the daemon) shuts down.
	Cleanup() error
}

// AfterConfigHook runs once after configuration is loaded. Plugins use it to
// merge their defaults into the config.
type AfterConfigHook interface {
	AfterConfig(pc *Context) error
}

// AfterArticleParseHook runs once per article after its source is parsed.
type AfterArticleParseHook interface {
	AfterArticleParse(pc *Context, article *site.Article) error
}

// ArticlePrerenderHook runs once per article after all articles were parsed
// and before output is written.
type ArticlePrerenderHook interface {
	ArticlePrerender(pc *Context, article *site.Article) error
}

// AfterParseLateHook runs once with the full, newest-first article list.
type AfterParseLateHook interface {
	AfterParseLate(pc *Context, articles []*site.Article) error
}

// PluginMetadata describes a plugin's identity and ordering.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "links", "menus").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Priority orders plugins within a hook; lower runs first.
	Priority int
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (priority %d)", m.Name, m.Version, m.Priority)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	return nil
}

// Implements reports whether p implements the interface for hook.
func Implements(p Plugin, hook Hook) bool {
	switch hook {
	case HookAfterConfig:
		_, ok := p.(AfterConfigHook)
		return ok
	case HookAfterArticleParse:
		_, ok := p.(AfterArticleParseHook)
		return ok
	case HookArticlePrerender:
		_, ok := p.(ArticlePrerenderHook)
		return ok
	case HookAfterParseLate:
		_, ok := p.(AfterParseLateHook)
		return ok
	default:
		return false
	}
}

// BasePlugin provides no-op lifecycle methods for embedding.
type BasePlugin struct{}

// Init is a no-op default implementation.
func (b *BasePlugin) Init(*Context) error { return nil }

// Cleanup is a no-op default implementation.
func (b *BasePlugin) Cleanup() error { return nil }
