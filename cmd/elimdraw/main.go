package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the elimination lottery server"`
	Verify  VerifyCmd        `cmd:"" help:"Verify a draw's randomness proof"`
	Prizes  PrizesCmd        `cmd:"" help:"List recorded prize payouts"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("elimdraw"),
		kong.Description("Elimination lottery engine with verifiable draws"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
