package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
)

// BuildFunc builds and writes the site.
type BuildFunc func(ctx context.Context) error

// ReceiveFunc fetches received webmentions and reports how many were new.
type ReceiveFunc func(ctx context.Context) (int, error)

// Options configure a Daemon.
type Options struct {
	ContentDir      string
	Debounce        time.Duration
	ReceiveInterval time.Duration
	MetricsAddr     string // Empty disables the HTTP server
	Registry        *prom.Registry
	Logger          *slog.Logger
}

// OptionsFromConfig maps the daemon section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ContentDir:      cfg.Content.Dir,
		Debounce:        config.Duration(cfg.Daemon.Debounce, config.DefaultDebounce),
		ReceiveInterval: config.Duration(cfg.Daemon.ReceiveInterval, config.DefaultReceiveInterval),
		MetricsAddr:     cfg.Daemon.MetricsAddr,
	}
}

// Daemon rebuilds the site on content changes and receives webmentions on a
// schedule. Builds and receives run on a single loop so the builder is never
// used concurrently.
type Daemon struct {
	opts    Options
	build   BuildFunc
	receive ReceiveFunc
	logger  *slog.Logger

	rebuildCh chan struct{}
	receiveCh chan struct{}

	status        status
	buildsTotal   prom.Counter
	failuresTotal prom.Counter
}

type status struct {
	builds      atomic.Int64
	failures    atomic.Int64
	received    atomic.Int64
	lastBuildAt atomic.Int64 // unix nanoseconds
	lastError   atomic.Value // string
}

// New creates a daemon. receive may be nil when webmentions are not received.
func New(build BuildFunc, receive ReceiveFunc, opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prom.NewRegistry()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}
	if opts.ReceiveInterval <= 0 {
		opts.ReceiveInterval = config.DefaultReceiveInterval
	}

	d := &Daemon{
		opts:      opts,
		build:     build,
		receive:   receive,
		logger:    opts.Logger,
		rebuildCh: make(chan struct{}, 1),
		receiveCh: make(chan struct{}, 1),
		buildsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "blogplugins", Name: "daemon_builds_total", Help: "Builds run by the daemon",
		}),
		failuresTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "blogplugins", Name: "daemon_build_failures_total", Help: "Failed daemon builds",
		}),
	}
	d.status.lastError.Store("")
	registerCollectors(opts.Registry, d.buildsTotal, d.failuresTotal)
	return d
}

// TriggerBuild requests a rebuild. Requests made while one is pending coalesce.
func (d *Daemon) TriggerBuild(reason string) {
	select {
	case d.rebuildCh <- struct{}{}:
		d.logger.Debug("Build requested", slog.String("reason", reason))
	default:
	}
}

// TriggerReceive requests a webmention fetch.
func (d *Daemon) TriggerReceive() {
	select {
	case d.receiveCh <- struct{}{}:
	default:
	}
}

// Run builds once, then serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := NewContentWatcher(d.opts.ContentDir, d.opts.Debounce, func() { d.TriggerBuild("content") }, d.logger)
	if err != nil {
		return err
	}
	go watcher.Run(ctx)

	if d.receive != nil {
		sched, err := NewScheduler(d.logger)
		if err != nil {
			return err
		}
		if _, err := sched.Every("webmention-receive", d.opts.ReceiveInterval, d.TriggerReceive); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				d.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
		d.TriggerReceive()
	}

	if d.opts.MetricsAddr != "" {
		srv := &http.Server{Addr: d.opts.MetricsAddr, Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			d.logger.Info("Serving metrics", slog.String("addr", d.opts.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	d.TriggerBuild("startup")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopping")
			return nil
		case <-d.receiveCh:
			d.runReceive(ctx)
		case <-d.rebuildCh:
			d.runBuild(ctx)
		}
	}
}

func (d *Daemon) runBuild(ctx context.Context) {
	start := time.Now()
	err := d.build(ctx)
	d.status.builds.Add(1)
	d.buildsTotal.Inc()
	d.status.lastBuildAt.Store(time.Now().UnixNano())
	if err != nil {
		d.status.failures.Add(1)
		d.failuresTotal.Inc()
		d.status.lastError.Store(err.Error())
		d.logger.Error("Build failed", logfields.Error(err))
		return
	}
	d.status.lastError.Store("")
	d.logger.Info("Build completed", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// runReceive fetches mentions and rebuilds when new ones arrived.
func (d *Daemon) runReceive(ctx context.Context) {
	n, err := d.receive(ctx)
	if err != nil {
		d.logger.Warn("Webmention receive failed", logfields.Error(err))
		return
	}
	d.status.received.Add(int64(n))
	if n > 0 {
		d.logger.Info("Received webmentions", logfields.Count(n))
		d.TriggerBuild("webmentions")
	}
}
