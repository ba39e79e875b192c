// Package webmention attaches received webmentions to articles and sends
// webmentions for their external links at the end of a build.
package webmention

import (
	"sync"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/retry"
	"git.home.luguber.info/inful/blogplugins/internal/site"
	wm "git.home.luguber.info/inful/blogplugins/internal/webmention"
)

// Plugin owns the webmention store for the lifetime of the process.
type Plugin struct {
	plugin.BasePlugin

	mu        sync.Mutex
	store     *wm.Store
	publisher wm.Publisher
}

// New returns the webmention plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "webmention",
		Version:     "v1.0.0",
		Description: "Webmention send and receive",
		Priority:    50,
	}
}

// Cleanup closes the store and the event publisher.
func (p *Plugin) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	if p.publisher != nil {
		first = p.publisher.Close()
		p.publisher = nil
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil && first == nil {
			first = err
		}
		p.store = nil
	}
	return first
}

// ApplyDefaults fills the webmention section of cfg.
func ApplyDefaults(cfg *config.WebmentionConfig) {
	if cfg.DBPath == "" {
		cfg.DBPath = config.DefaultWebmentionDB
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = config.DefaultRequestTimeout.String()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = config.DefaultMaxConcurrent
	}
	if cfg.NATS.URL != "" && cfg.NATS.Subject == "" {
		cfg.NATS.Subject = config.DefaultNATSSubject
	}
}

// AfterConfig applies defaults and opens the store.
func (p *Plugin) AfterConfig(pc *plugin.Context) error {
	cfg := &pc.Config.Webmention
	ApplyDefaults(cfg)
	if !cfg.Enabled {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		store, err := wm.OpenStore(cfg.DBPath)
		if err != nil {
			return err
		}
		p.store = store
	}
	if p.publisher == nil {
		p.publisher = wm.NoopPublisher{}
		if cfg.NATS.URL != "" {
			pub, err := wm.NewNATSPublisher(pc.Context, cfg.NATS.URL, cfg.NATS.Subject)
			if err != nil {
				pc.Warn("nats", "Webmention events disabled", logfields.URL(cfg.NATS.URL), logfields.Error(err))
			} else {
				p.publisher = pub
			}
		}
	}
	return nil
}

// AfterArticleParse attaches stored mentions of the article.
func (p *Plugin) AfterArticleParse(pc *plugin.Context, a *site.Article) error {
	store := p.currentStore()
	if store == nil || a.Draft {
		return nil
	}
	mentions, err := store.MentionsFor(pc.Context, pc.Site.Qualify(a.URL))
	if err != nil {
		pc.Warn("webmention", "Loading webmentions failed", logfields.Article(a.RelPath), logfields.Error(err))
		return nil
	}
	a.Webmentions = mentions
	return nil
}

// AfterParseLate sends webmentions when webmention.send is set.
func (p *Plugin) AfterParseLate(pc *plugin.Context, articles []*site.Article) error {
	cfg := pc.Config.Webmention
	store := p.currentStore()
	if store == nil || !cfg.Send {
		return nil
	}

	jobs, err := wm.Jobs(articles, pc.Site)
	if err != nil {
		pc.Warn("webmention", "Collecting webmention targets failed", logfields.Error(err))
		return nil
	}
	report, err := p.Sender(pc).Send(pc.Context, jobs)
	if err != nil {
		return err
	}
	pc.Logger.Info("Webmentions processed",
		"sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return nil
}

// Sender builds a sender from the plugin's store and the context's config.
// It returns nil before a store was opened.
func (p *Plugin) Sender(pc *plugin.Context) *wm.Sender {
	store := p.currentStore()
	if store == nil {
		return nil
	}
	return wm.NewSender(store, p.options(pc))
}

// Receiver builds a receiver for webmention.receive_url, or nil when none is
// configured or no store was opened.
func (p *Plugin) Receiver(pc *plugin.Context) *wm.Receiver {
	cfg := pc.Config.Webmention
	store := p.currentStore()
	if store == nil || cfg.ReceiveURL == "" {
		return nil
	}
	return wm.NewReceiver(store, cfg.ReceiveURL, cfg.Token, p.options(pc))
}

func (p *Plugin) options(pc *plugin.Context) wm.Options {
	cfg := pc.Config.Webmention
	p.mu.Lock()
	publisher := p.publisher
	p.mu.Unlock()
	return wm.Options{
		UserAgent:     cfg.UserAgent,
		Timeout:       config.Duration(cfg.RequestTimeout, config.DefaultRequestTimeout),
		MaxConcurrent: cfg.MaxConcurrent,
		Publisher:     publisher,
		Logger:        pc.Logger,
		Recorder:      pc.Recorder,
		BuildID:       pc.BuildID,
		Retry:         retry.FromConfig(cfg.Retry),
	}
}

func (p *Plugin) currentStore() *wm.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}
