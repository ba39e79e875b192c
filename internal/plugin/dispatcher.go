package plugin

import (
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Dispatcher fires hooks on the plugins of a registry in priority order.
//
// A hook error that is not fatal (see errors.IsFatal) is logged and the
// remaining plugins still run; a fatal error stops the hook and is returned.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over r.
func NewDispatcher(r *Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// Init calls Init on every plugin implementing PluginLifecycle.
func (d *Dispatcher) Init(pc *Context) error {
	for _, p := range d.registry.List() {
		lc, ok := p.(PluginLifecycle)
		if !ok {
			continue
		}
		if err := lc.Init(pc); err != nil {
			return errors.Wrap(err, errors.CategoryPlugin, errors.SeverityFatal, "plugin init failed").
				WithContext("plugin", p.Metadata().Name)
		}
	}
	return nil
}

// Cleanup calls Cleanup on every plugin implementing PluginLifecycle and
// returns the first error.
func (d *Dispatcher) Cleanup() error {
	var first error
	for _, p := range d.registry.List() {
		lc, ok := p.(PluginLifecycle)
		if !ok {
			continue
		}
		if err := lc.Cleanup(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AfterConfig fires AFTER_CONFIG.
func (d *Dispatcher) AfterConfig(pc *Context) error {
	return d.each(pc, HookAfterConfig, "", func(p Plugin) error {
		return p.(AfterConfigHook).AfterConfig(pc)
	})
}

// AfterArticleParse fires AFTER_ARTICLE_PARSE for one article.
func (d *Dispatcher) AfterArticleParse(pc *Context, a *site.Article) error {
	return d.each(pc, HookAfterArticleParse, a.RelPath, func(p Plugin) error {
		return p.(AfterArticleParseHook).AfterArticleParse(pc, a)
	})
}

// ArticlePrerender fires ARTICLE_PRERENDER for one article.
func (d *Dispatcher) ArticlePrerender(pc *Context, a *site.Article) error {
	return d.each(pc, HookArticlePrerender, a.RelPath, func(p Plugin) error {
		return p.(ArticlePrerenderHook).ArticlePrerender(pc, a)
	})
}

// AfterParseLate fires AFTER_PARSE_LATE with the full article list.
func (d *Dispatcher) AfterParseLate(pc *Context, articles []*site.Article) error {
	return d.each(pc, HookAfterParseLate, "", func(p Plugin) error {
		return p.(AfterParseLateHook).AfterParseLate(pc, articles)
	})
}

func (d *Dispatcher) each(pc *Context, hook Hook, article string, call func(Plugin) error) error {
	for _, p := range d.registry.ForHook(hook) {
		if err := pc.Context.Err(); err != nil {
			return err
		}
		name := p.Metadata().Name
		start := time.Now()
		err := call(p)
		pc.Recorder.ObserveHookDuration(string(hook), name, time.Since(start))
		if err == nil {
			continue
		}

		perr := NewPluginError(name, hook, article, err)
		if errors.IsFatal(err) {
			return perr
		}
		attrs := []any{logfields.Plugin(name), logfields.Hook(string(hook)), logfields.Error(err)}
		if article != "" {
			attrs = append(attrs, logfields.Article(article))
		}
		pc.Warn("plugin_error", "Plugin hook failed, continuing", attrs...)
	}
	return nil
}
