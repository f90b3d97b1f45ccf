package main

import (
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/cagesvc/cmd"
	"github.com/smazurov/cagesvc/internal/version"
)

// Options for the bare root invocation. cagesvc always works through a
// subcommand, so the root carries no flags of its own.
type Options struct{}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, _ *Options) {
		// Running cagesvc without a subcommand is always a mistake.
		hooks.OnStart(func() {
			_ = cli.Root().Help()
			os.Exit(1)
		})
	})

	cli.Root().Use = "cagesvc"
	cli.Root().Short = "Run arbitrary services as supervised systemd units"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(
		cmd.CreateRunCmd(),
		cmd.CreateInstallCmd(),
		cmd.CreateRemoveCmd(),
		cmd.CreateStatusCmd(),
		cmd.CreateStartCmd(),
		cmd.CreateStopCmd(),
	)

	cli.Run()
}
