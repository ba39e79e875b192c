// Package commands implements the blogplugins CLI.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogplugins/internal/blog"
	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/webmention"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogplugins.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Build the blog into the output directory"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	Serve      ServeCmd      `cmd:"" help:"Rebuild on content changes, receive webmentions periodically and serve metrics"`
	Webmention WebmentionCmd `cmd:"" help:"Send or receive webmentions without building"`
}

// AfterApply installs a default logger until the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// load reads the configuration and replaces the logger with the configured one.
func (c *CLI) load(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// buildSite runs one build and writes the result.
func buildSite(ctx context.Context, builder *blog.Builder, logger *slog.Logger) (*blog.Result, error) {
	res, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	cfg := builder.Config()
	w := &blog.Writer{Dir: cfg.Output.Dir, Clean: cfg.Output.Clean}
	if err := w.Write(res); err != nil {
		return nil, err
	}
	logger.Info("Site written",
		slog.String("output", cfg.Output.Dir),
		slog.Int("articles", len(res.Articles)),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// webmentionPlugin finds the webmention plugin in the builder's registry.
func webmentionPlugin(builder *blog.Builder) (*webmention.Plugin, error) {
	for _, p := range builder.Plugins() {
		if wp, ok := p.(*webmention.Plugin); ok {
			return wp, nil
		}
	}
	return nil, errors.New(errors.CategoryPlugin, errors.SeverityFatal, "webmention plugin not registered")
}
