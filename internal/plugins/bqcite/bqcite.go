// Package bqcite resolves blockquote citation tokens:
//
//	(((bqcite-NAME)))      -> — <cite>NAME</cite>
//	(((bqcite-NAME|URL)))  -> — <a href="URL"><cite>NAME</cite></a>
//
// In the feed stream URL is qualified to an absolute URL.
package bqcite

import (
	"html"
	"strings"

	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/rewrite"
	"git.home.luguber.info/inful/blogplugins/internal/site"
	"git.home.luguber.info/inful/blogplugins/internal/token"
)

// Grammar matches citation tokens. Group 1 is the name, group 2 the optional URL.
var Grammar = token.MustCompile(`\(\(\(bqcite-([^|()]+?)(?:\|([^|()]+))?\)\)\)`)

// Plugin resolves citation tokens during ARTICLE_PRERENDER.
type Plugin struct{}

// New returns the citation plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "bqcite",
		Version:     "v1.0.0",
		Description: "Blockquote citation tokens",
		Priority:    10,
	}
}

// ArticlePrerender rewrites citation tokens in every content field.
func (p *Plugin) ArticlePrerender(pc *plugin.Context, a *site.Article) error {
	rw := rewrite.New(Grammar, Resolver(pc.Site))
	for _, name := range site.ContentFields() {
		field, err := a.Field(name)
		if err != nil {
			return err
		}
		pc.Recorder.AddTokensResolved("bqcite", rw.Rewrite(field))
	}
	return nil
}

// Resolver renders citation markup using s for links and qualification. The
// URL arrives HTML-escaped from the rendered content and is unescaped before
// Link escapes it.
func Resolver(s *site.Site) rewrite.Resolver {
	return func(m token.Match, form site.LinkForm) string {
		cite := "<cite>" + strings.TrimSpace(m.Group(1)) + "</cite>"
		if href := html.UnescapeString(strings.TrimSpace(m.Group(2))); href != "" {
			cite = s.Link(cite, s.URLFor(href, form))
		}
		return "— " + cite
	}
}
