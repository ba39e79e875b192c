// Package markdown converts article markdown into the site and feed renderings
// of the content and abstract fields.
package markdown

import (
	"strings"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	mdconv "git.home.luguber.info/inful/blogplugins/internal/markdown"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// abstractKeys are the front matter keys an explicit abstract is read from.
var abstractKeys = []string{"abstract", "summary"}

// Plugin renders markdown in AFTER_ARTICLE_PARSE.
type Plugin struct {
	plugin.BasePlugin
	enabled   bool
	converter *mdconv.Converter
}

// New returns the markdown plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "markdown",
		Version:     "v1.0.0",
		Description: "Markdown to HTML conversion",
		Priority:    5,
	}
}

// AfterConfig defaults the markdown section and builds the converter.
func (p *Plugin) AfterConfig(pc *plugin.Context) error {
	cfg := &pc.Config.Markdown
	if cfg.Enabled == nil {
		cfg.Enabled = ptr(true)
	}
	if cfg.GFM == nil {
		cfg.GFM = ptr(true)
	}
	p.enabled = config.BoolOr(cfg.Enabled, true)
	p.converter = mdconv.New(mdconv.Options{
		GFM:       config.BoolOr(cfg.GFM, true),
		HardWraps: cfg.HardWraps,
		Unsafe:    cfg.Unsafe,
	})
	return nil
}

// AfterArticleParse fills Content and Abstract from the article markdown.
// A field whose conversion fails is left empty.
func (p *Plugin) AfterArticleParse(pc *plugin.Context, a *site.Article) error {
	if !p.enabled {
		return nil
	}
	if p.converter == nil {
		p.converter = mdconv.New(mdconv.Options{GFM: true})
	}

	a.Content = p.render(pc, a, site.FieldContent, a.Markdown)

	if src := explicitAbstract(a.Meta); src != "" {
		a.Abstract = p.render(pc, a, site.FieldAbstract, src)
		return nil
	}
	first := FirstParagraph(a.Content.HTML)
	a.Abstract = site.ContentField{HTML: first, HTMLFeed: FirstParagraph(a.Content.HTMLFeed)}
	return nil
}

func (p *Plugin) render(pc *plugin.Context, a *site.Article, field, src string) site.ContentField {
	out, err := p.converter.Convert([]byte(src))
	if err != nil {
		pc.Logger.Error("Markdown conversion failed",
			logfields.Article(a.RelPath), logfields.Field(field), logfields.Error(err))
		return site.ContentField{}
	}
	feed, err := QualifyURLs(out, pc.Site.Qualify)
	if err != nil {
		pc.Logger.Error("Qualifying feed URLs failed",
			logfields.Article(a.RelPath), logfields.Field(field), logfields.Error(err))
		return site.ContentField{}
	}
	return site.ContentField{HTML: out, HTMLFeed: feed}
}

func explicitAbstract(meta map[string]any) string {
	for _, key := range abstractKeys {
		if s, ok := meta[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func ptr[T any](v T) *T { return &v }
