// Package links resolves inline link tokens:
//
//	(((LABEL|TARGET)))
//	(((LABEL|TARGET|QUALIFIER)))
//
// A qualifier starting with "_" (e.g. "_blank") becomes the anchor target
// attribute, anything else becomes its title.
package links

import (
	"html"
	"strings"

	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/rewrite"
	"git.home.luguber.info/inful/blogplugins/internal/site"
	"git.home.luguber.info/inful/blogplugins/internal/token"
)

// Grammar matches link tokens. Groups: label, target, optional qualifier.
var Grammar = token.MustCompile(`\(\(\(([^|()]+)\|([^|()]+?)(?:\|([^|()]*))?\)\)\)`)

// citationPrefix marks tokens owned by the bqcite plugin.
const citationPrefix = "bqcite-"

// Plugin resolves link tokens during ARTICLE_PRERENDER.
type Plugin struct{}

// New returns the link plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "links",
		Version:     "v1.0.0",
		Description: "Inline link tokens",
		Priority:    20,
	}
}

// ArticlePrerender rewrites link tokens in every content field.
func (p *Plugin) ArticlePrerender(pc *plugin.Context, a *site.Article) error {
	rw := rewrite.New(Grammar, Resolver(pc.Site))
	for _, name := range site.ContentFields() {
		field, err := a.Field(name)
		if err != nil {
			return err
		}
		pc.Recorder.AddTokensResolved("link", rw.Rewrite(field))
	}
	return nil
}

// Resolver renders anchors using s for links and qualification. Tokens are
// scanned in rendered HTML, so target and qualifier are unescaped before
// Link escapes them again; the label is kept as HTML.
func Resolver(s *site.Site) rewrite.Resolver {
	return func(m token.Match, form site.LinkForm) string {
		label := strings.TrimSpace(m.Group(1))
		if strings.HasPrefix(label, citationPrefix) {
			return m.Text
		}
		href := s.URLFor(html.UnescapeString(strings.TrimSpace(m.Group(2))), form)

		var opts []site.LinkOption
		if q := html.UnescapeString(strings.TrimSpace(m.Group(3))); q != "" {
			if strings.HasPrefix(q, "_") {
				opts = append(opts, site.WithTarget(q))
			} else {
				opts = append(opts, site.WithTitle(q))
			}
		}
		return s.Link(label, href, opts...)
	}
}
