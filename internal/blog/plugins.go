package blog

import (
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/bqcite"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/escape"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/links"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/markdown"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/menus"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/prevnext"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/schemaorg"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/webmention"
)

// DefaultRegistry registers the bundled plugins.
func DefaultRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	r.MustRegister(
		markdown.New(),
		menus.New(),
		bqcite.New(),
		links.New(),
		escape.New(),
		prevnext.New(),
		webmention.New(),
		schemaorg.New(),
	)
	return r
}
