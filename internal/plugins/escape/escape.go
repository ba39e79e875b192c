// Package escape restores author-escaped token delimiters and reports tokens
// no resolver handled.
//
// Authors write %(%(%( and %)%)%) to get literal ((( and ))) in the output.
// The pass runs after every resolver, otherwise the restored delimiters would
// be picked up as tokens.
package escape

import (
	"strings"

	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
	"git.home.luguber.info/inful/blogplugins/internal/token"
)

const (
	EscapedOpen  = "%(%(%("
	EscapedClose = "%)%)%)"
	Open         = "((("
	Close        = ")))"
)

var replacer = strings.NewReplacer(EscapedOpen, Open, EscapedClose, Close)

// leftover matches any bracket token still present after resolution.
var leftover = token.MustCompile(`\(\(\((?s:.*?)\)\)\)`)

// Normalize replaces escaped delimiters with literal ones. Replacement repeats
// until nothing changes, so Normalize(Normalize(s)) == Normalize(s) even when a
// restored delimiter completes a new escape sequence.
func Normalize(s string) string {
	for strings.Contains(s, EscapedOpen) || strings.Contains(s, EscapedClose) {
		s = replacer.Replace(s)
	}
	return s
}

// Leftovers returns unresolved tokens in s.
func Leftovers(s string) []string {
	var out []string
	for m := range leftover.All(s) {
		out = append(out, m.Text)
	}
	return out
}

// Plugin normalizes escapes during ARTICLE_PRERENDER, after all resolvers.
type Plugin struct{}

// New returns the escape plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "escape",
		Version:     "v1.0.0",
		Description: "Restores escaped token delimiters",
		Priority:    90,
	}
}

// ArticlePrerender warns about unresolved tokens and normalizes both streams
// of every content field.
func (p *Plugin) ArticlePrerender(pc *plugin.Context, a *site.Article) error {
	for _, name := range site.ContentFields() {
		field, err := a.Field(name)
		if err != nil {
			return err
		}
		for _, tok := range Leftovers(field.HTML) {
			pc.Warn("unresolved_token", "Unresolved token left in place",
				logfields.Article(a.RelPath), logfields.Field(name), logfields.Token(tok))
		}
		field.HTML = Normalize(field.HTML)
		field.HTMLFeed = Normalize(field.HTMLFeed)
	}
	return nil
}
