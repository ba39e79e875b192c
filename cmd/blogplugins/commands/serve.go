package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogplugins/internal/blog"
	"git.home.luguber.info/inful/blogplugins/internal/daemon"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Listen address for /metrics and /status (overrides daemon.metrics_addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	if s.MetricsAddr != "" {
		cfg.Daemon.MetricsAddr = s.MetricsAddr
	}

	reg := prom.NewRegistry()
	builder := blog.NewBuilder(cfg, blog.DefaultRegistry(),
		blog.WithLogger(g.Logger),
		blog.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	defer func() {
		if err := builder.Close(); err != nil {
			g.Logger.Warn("Plugin cleanup failed", "error", err)
		}
	}()

	build := func(ctx context.Context) error {
		_, err := buildSite(ctx, builder, g.Logger)
		return err
	}
	var receive daemon.ReceiveFunc
	if cfg.Webmention.Enabled && cfg.Webmention.ReceiveURL != "" {
		receive = func(ctx context.Context) (int, error) {
			return receiveMentions(ctx, builder)
		}
	}

	opts := daemon.OptionsFromConfig(cfg)
	opts.Registry = reg
	opts.Logger = g.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g.Logger.Info("Starting serve mode", "content", cfg.Content.Dir, "output", cfg.Output.Dir)
	return daemon.New(build, receive, opts).Run(ctx)
}

// receiveMentions configures the plugins and fetches new mentions into the store.
func receiveMentions(ctx context.Context, builder *blog.Builder) (int, error) {
	pc, err := builder.NewContext(ctx, "receive-"+uuid.NewString())
	if err != nil {
		return 0, err
	}
	if err := builder.Configure(pc); err != nil {
		return 0, err
	}
	wp, err := webmentionPlugin(builder)
	if err != nil {
		return 0, err
	}
	r := wp.Receiver(pc)
	if r == nil {
		return 0, errReceiveNotConfigured
	}
	return r.Fetch(ctx)
}
