// Package prevnext links each article to its chronological neighbours.
package prevnext

import (
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Link sets Prev and Next on articles, which must be ordered newest first.
// Next points to the newer neighbour and Prev to the older one; the newest
// article has no Next and the oldest has no Prev. Neighbours are stored as
// snapshots, not references.
func Link(articles []*site.Article) {
	var newer *site.Article
	for _, a := range articles {
		a.Next, a.Prev = nil, nil
		if newer != nil {
			a.Next = newer.Snapshot()
			newer.Prev = a.Snapshot()
		}
		newer = a
	}
}

// Plugin runs Link in AFTER_PARSE_LATE, after the host sorted the articles.
type Plugin struct{}

// New returns the prev/next plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "prevnext",
		Version:     "v1.0.0",
		Description: "Previous and next article links",
		Priority:    20,
	}
}

// AfterParseLate links the article sequence.
func (p *Plugin) AfterParseLate(_ *plugin.Context, articles []*site.Article) error {
	Link(articles)
	return nil
}
