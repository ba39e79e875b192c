// Package blog is the host pipeline: it loads articles, fires the plugin
// hooks in order and writes the site.
package blog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/manifest"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// MenuProvider is implemented by plugins exposing finalized menus.
type MenuProvider interface {
	Collection() site.MenuCollection
}

// Result describes a finished build.
type Result struct {
	BuildID  string
	Site     *site.Site
	Articles []*site.Article
	Menus    site.MenuCollection
	Duration time.Duration
	// Manifest has inputs and plugins filled; the writer adds outputs.
	Manifest *manifest.BuildManifest
}

// Builder runs builds. One Builder may run many builds, but not concurrently.
type Builder struct {
	cfg        *config.Config
	registry   *plugin.Registry
	dispatcher *plugin.Dispatcher
	logger     *slog.Logger
	recorder   metrics.Recorder

	mu     sync.Mutex
	inited bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// NewBuilder returns a builder firing hooks on the plugins of registry.
func NewBuilder(cfg *config.Config, registry *plugin.Registry, opts ...Option) *Builder {
	b := &Builder{
		cfg:        cfg,
		registry:   registry,
		dispatcher: plugin.NewDispatcher(registry),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the configuration as last adjusted by AFTER_CONFIG.
func (b *Builder) Config() *config.Config { return b.cfg }

// Plugins lists the registered plugins in dispatch order.
func (b *Builder) Plugins() []plugin.Plugin { return b.registry.List() }

// NewContext creates a plugin context for a build or a standalone command.
func (b *Builder) NewContext(ctx context.Context, buildID string) (*plugin.Context, error) {
	s, err := site.New(b.cfg.Site.BaseURL, b.cfg.Site.Title)
	if err != nil {
		return nil, errors.ConfigInvalid("site.base_url", err.Error())
	}
	s.Description = b.cfg.Site.Description
	s.Language = b.cfg.Site.Language

	pc := plugin.NewContext(ctx, b.logger.With(logfields.BuildID(buildID)), b.cfg, s, buildID)
	pc.Recorder = b.recorder
	return pc, nil
}

// Configure initializes the plugins on first use and fires AFTER_CONFIG.
func (b *Builder) Configure(pc *plugin.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inited {
		if err := b.dispatcher.Init(pc); err != nil {
			return err
		}
		b.inited = true
	}
	return b.dispatcher.AfterConfig(pc)
}

// Close releases plugin resources.
func (b *Builder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inited {
		return nil
	}
	b.inited = false
	return b.dispatcher.Cleanup()
}

// Build runs the pipeline: AFTER_CONFIG, then AFTER_ARTICLE_PARSE and
// ARTICLE_PRERENDER per article with bounded concurrency, then the articles
// are sorted newest first and AFTER_PARSE_LATE runs once.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	buildID := uuid.NewString()

	pc, err := b.NewContext(ctx, buildID)
	if err != nil {
		return nil, err
	}
	if err := b.Configure(pc); err != nil {
		return nil, err
	}

	loader := &Loader{
		Dir:    b.cfg.Content.Dir,
		Drafts: b.cfg.Content.Drafts,
		Lang:   language.Make(b.cfg.Site.Language),
		Logger: pc.Logger,
	}
	articles, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	pc.Logger.Info("Loaded articles", logfields.Count(len(articles)), logfields.Path(b.cfg.Content.Dir))

	if err := b.processArticles(pc, articles); err != nil {
		return nil, err
	}

	SortNewestFirst(articles)
	if err := b.dispatcher.AfterParseLate(pc, articles); err != nil {
		return nil, err
	}

	res := &Result{BuildID: buildID, Site: pc.Site, Articles: articles, Menus: b.menus()}
	res.Duration = time.Since(start)
	res.Manifest = b.newManifest(buildID, start, articles)
	res.Manifest.Duration = res.Duration.Milliseconds()
	b.recorder.SetArticles(len(articles))
	b.recorder.ObserveBuildDuration(res.Duration)
	return res, nil
}

// processArticles fires the per-article hooks. The first fatal error cancels
// the remaining articles.
func (b *Builder) processArticles(pc *plugin.Context, articles []*site.Article) error {
	ctx, cancel := context.WithCancel(pc.Context)
	defer cancel()
	apc := *pc
	apc.Context = ctx

	sem := make(chan struct{}, max(1, b.cfg.Build.Concurrency))
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for _, a := range articles {
		wg.Add(1)
		go func(a *site.Article) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			err := b.dispatcher.AfterArticleParse(&apc, a)
			if err == nil {
				err = b.dispatcher.ArticlePrerender(&apc, a)
			}
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(a)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return pc.Context.Err()
}

func (b *Builder) newManifest(buildID string, start time.Time, articles []*site.Article) *manifest.BuildManifest {
	m := &manifest.BuildManifest{ID: buildID, Timestamp: start.UTC(), Status: manifest.StatusSuccess}
	for _, a := range articles {
		m.Inputs.Articles = append(m.Inputs.Articles, manifest.ArticleInput{Path: a.RelPath, URL: a.URL, Fingerprint: a.Fingerprint})
	}
	for _, p := range b.registry.List() {
		md := p.Metadata()
		m.Plugins = append(m.Plugins, manifest.PluginVersion{Name: md.Name, Version: md.Version, Priority: md.Priority})
	}
	hash, err := manifest.HashJSON(b.cfg)
	if err != nil {
		b.logger.Warn("Config hash unavailable", logfields.Error(err))
	}
	m.Inputs.ConfigHash = hash
	return m
}

func (b *Builder) menus() site.MenuCollection {
	for _, p := range b.registry.List() {
		if mp, ok := p.(MenuProvider); ok {
			if c := mp.Collection(); c != nil {
				return c
			}
		}
	}
	return site.MenuCollection{}
}

// SortNewestFirst orders articles by date, newest first. Undated articles go
// last; ties keep their current order.
func SortNewestFirst(articles []*site.Article) {
	slices.SortStableFunc(articles, func(x, y *site.Article) int {
		switch {
		case x.Date.IsZero() && y.Date.IsZero():
			return 0
		case x.Date.IsZero():
			return 1
		case y.Date.IsZero():
			return -1
		}
		return cmp.Compare(y.Date.UnixNano(), x.Date.UnixNano())
	})
}
