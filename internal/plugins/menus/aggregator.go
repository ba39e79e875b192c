// Package menus aggregates the menu entries articles declare in front matter
// into named, position-ordered menus.
//
// An Aggregator has three phases, each run once per build: NewAggregator
// creates it empty, Accumulate is called once per article (safe for
// concurrent use), and Finalize sorts every menu and freezes the result.
package menus

import (
	"cmp"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

const (
	// DefaultPos is the position given to entries without one.
	DefaultPos = 5
	// Unnamed is the placeholder title when neither entry nor article has one.
	Unnamed = "unnamed"
)

// ErrFinalized is returned by Accumulate after Finalize has been called.
var ErrFinalized = errors.New("menus: aggregator already finalized")

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDefaultPos overrides the position used for entries without one.
func WithDefaultPos(pos int) Option {
	return func(a *Aggregator) { a.defaultPos = pos }
}

// WithRecorder counts defaulting warnings.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.recorder = r
		}
	}
}

// Aggregator collects menu entries across articles.
type Aggregator struct {
	logger     *slog.Logger
	recorder   metrics.Recorder
	defaultPos int

	mu        sync.Mutex
	menus     map[string][]pending
	finalized site.MenuCollection
}

// pending is an accumulated entry with the load order of its article.
type pending struct {
	entry site.MenuEntry
	seq   int
}

// NewAggregator returns an empty aggregator.
func NewAggregator(logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		logger:     logger,
		recorder:   metrics.NoopRecorder{},
		defaultPos: DefaultPos,
		menus:      make(map[string][]pending),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Accumulate appends the article's menu entries, with defaults applied, to
// their menus. Menu names are visited in sorted order so a single article
// contributes deterministically.
func (g *Aggregator) Accumulate(a *site.Article) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalized != nil {
		return ErrFinalized
	}
	for _, name := range slices.Sorted(maps.Keys(a.Menus)) {
		entry := g.complete(name, a.Menus[name], a)
		g.menus[name] = append(g.menus[name], pending{entry: entry, seq: a.Seq})
	}
	return nil
}

// complete converts a draft into an entry. Every field of the result is set.
func (g *Aggregator) complete(menu string, d site.MenuDraft, a *site.Article) site.MenuEntry {
	entry := site.MenuEntry{
		Title:       d.Title,
		Description: d.Description,
		URL:         a.URL,
		Pos:         g.defaultPos,
		Extra:       d.Extra,
	}
	if entry.Title == "" {
		if a.Title != "" {
			entry.Title = a.Title
		} else {
			entry.Title = Unnamed
			g.logger.Warn("Menu entry has no title and article has none to inherit",
				logfields.Article(a.RelPath), logfields.Menu(menu))
			g.recorder.IncWarning("menu_title")
		}
	}
	if entry.Description == "" {
		entry.Description = a.Description
	}
	if d.Pos != nil {
		entry.Pos = *d.Pos
	}
	return entry
}

// Finalize sorts each menu by ascending position, then by article load order
// (Article.Seq), keeping accumulation order for entries equal in both. It
// returns the frozen collection; later calls return the same collection.
func (g *Aggregator) Finalize() site.MenuCollection {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalized != nil {
		return g.finalized
	}
	out := make(site.MenuCollection, len(g.menus))
	for name, entries := range g.menus {
		sorted := slices.Clone(entries)
		slices.SortStableFunc(sorted, func(x, y pending) int {
			return cmp.Or(cmp.Compare(x.entry.Pos, y.entry.Pos), cmp.Compare(x.seq, y.seq))
		})
		menu := make([]site.MenuEntry, len(sorted))
		for i, p := range sorted {
			menu[i] = p.entry
		}
		out[name] = menu
	}
	g.menus = nil
	g.finalized = out
	return out
}
