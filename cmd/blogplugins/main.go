package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogplugins/cmd/blogplugins/commands"
	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Stdout: os.Stdout}
	ctx := kong.Parse(&cli,
		kong.Name("blogplugins"),
		kong.Description("Static blog builder with token, menu, navigation, webmention and schema.org plugins"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
