package menus

import (
	"sync"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Plugin drives an Aggregator from the build hooks: a fresh aggregator per
// build in AFTER_CONFIG, Accumulate per article in AFTER_ARTICLE_PARSE and
// Finalize in AFTER_PARSE_LATE.
type Plugin struct {
	mu         sync.RWMutex
	agg        *Aggregator
	collection site.MenuCollection
}

// New returns the menus plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "menus",
		Version:     "v1.0.0",
		Description: "Aggregates front matter menu entries",
		Priority:    10,
	}
}

// AfterConfig defaults the menus section and starts a new aggregation.
func (p *Plugin) AfterConfig(pc *plugin.Context) error {
	if pc.Config.Menus.DefaultPos == nil {
		pos := DefaultPos
		pc.Config.Menus.DefaultPos = &pos
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.agg = newAggregator(pc)
	p.collection = nil
	return nil
}

// AfterArticleParse accumulates the article's menu entries.
func (p *Plugin) AfterArticleParse(pc *plugin.Context, a *site.Article) error {
	if len(a.Menus) == 0 {
		return nil
	}
	return p.aggregator(pc).Accumulate(a)
}

// AfterParseLate finalizes the menus.
func (p *Plugin) AfterParseLate(pc *plugin.Context, _ []*site.Article) error {
	collection := p.aggregator(pc).Finalize()

	p.mu.Lock()
	p.collection = collection
	p.mu.Unlock()
	return nil
}

// Collection returns the finalized menus of the last build, or nil before
// the first build finished.
func (p *Plugin) Collection() site.MenuCollection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.collection
}

func (p *Plugin) aggregator(pc *plugin.Context) *Aggregator {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.agg == nil {
		p.agg = newAggregator(pc)
	}
	return p.agg
}

func newAggregator(pc *plugin.Context) *Aggregator {
	pos := config.IntOr(pc.Config.Menus.DefaultPos, DefaultPos)
	return NewAggregator(pc.Logger, WithRecorder(pc.Recorder), WithDefaultPos(pos))
}
