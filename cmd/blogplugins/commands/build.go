package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogplugins/internal/blog"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output          string `short:"o" help:"Output directory (overrides output.dir)"`
	Drafts          bool   `help:"Include articles marked as drafts"`
	SendWebmentions bool   `name:"send-webmentions" help:"Send webmentions for external links after the build"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Dir = b.Output
	}
	if b.Drafts {
		cfg.Content.Drafts = true
	}
	if b.SendWebmentions {
		cfg.Webmention.Enabled = true
		cfg.Webmention.Send = true
	}

	builder := blog.NewBuilder(cfg, blog.DefaultRegistry(), blog.WithLogger(g.Logger))
	defer func() {
		if err := builder.Close(); err != nil {
			g.Logger.Warn("Plugin cleanup failed", "error", err)
		}
	}()

	res, err := buildSite(context.Background(), builder, g.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Built %d articles into %s\n", len(res.Articles), cfg.Output.Dir)
	return nil
}
