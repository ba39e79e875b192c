package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogplugins/internal/blog"
	"git.home.luguber.info/inful/blogplugins/internal/errors"
	wm "git.home.luguber.info/inful/blogplugins/internal/webmention"
)

var errReceiveNotConfigured = errors.ConfigInvalid("webmention.receive_url", "required to receive webmentions")

// WebmentionCmd groups the webmention subcommands.
type WebmentionCmd struct {
	Send    WebmentionSendCmd    `cmd:"" help:"Send webmentions for external links in all articles"`
	Receive WebmentionReceiveCmd `cmd:"" help:"Fetch received webmentions into the local store"`
}

// WebmentionSendCmd implements 'webmention send'.
type WebmentionSendCmd struct {
	DryRun bool `name:"dry-run" help:"List source and target pairs without sending"`
}

func (s *WebmentionSendCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	cfg.Webmention.Enabled = true
	// Sending happens below, not as part of the build.
	cfg.Webmention.Send = false

	builder := blog.NewBuilder(cfg, blog.DefaultRegistry(), blog.WithLogger(g.Logger))
	defer func() {
		if err := builder.Close(); err != nil {
			g.Logger.Warn("Plugin cleanup failed", "error", err)
		}
	}()

	ctx := context.Background()
	res, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	jobs, err := wm.Jobs(res.Articles, res.Site)
	if err != nil {
		return err
	}
	if s.DryRun {
		for _, job := range jobs {
			fmt.Fprintf(g.Stdout, "%s -> %s\n", job.Source, job.Target)
		}
		fmt.Fprintf(g.Stdout, "%d webmentions to check\n", len(jobs))
		return nil
	}

	wp, err := webmentionPlugin(builder)
	if err != nil {
		return err
	}
	pc, err := builder.NewContext(ctx, res.BuildID)
	if err != nil {
		return err
	}
	sender := wp.Sender(pc)
	if sender == nil {
		return errors.New(errors.CategoryStorage, errors.SeverityFatal, "webmention store is not open")
	}
	report, err := sender.Send(ctx, jobs)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "sent %d, skipped %d, failed %d\n", report.Sent, report.Skipped, report.Failed)
	return nil
}

// WebmentionReceiveCmd implements 'webmention receive'.
type WebmentionReceiveCmd struct{}

func (r *WebmentionReceiveCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	cfg.Webmention.Enabled = true

	builder := blog.NewBuilder(cfg, blog.DefaultRegistry(), blog.WithLogger(g.Logger))
	defer func() {
		if err := builder.Close(); err != nil {
			g.Logger.Warn("Plugin cleanup failed", "error", err)
		}
	}()

	n, err := receiveMentions(context.Background(), builder)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "received %d new webmentions\n", n)
	return nil
}
