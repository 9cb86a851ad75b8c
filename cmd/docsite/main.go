package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/docsite/cmd/docsite/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Build   commands.BuildCmd   `cmd:"" help:"Build the docs site assets once"`
		Serve   commands.ServeCmd   `cmd:"" help:"Build in watch mode and serve the output"`
		Inspect commands.InspectCmd `cmd:"" help:"Print the assembled build configuration"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("docsite"),
		kong.Description("Asset build pipeline for the Backpack docs site."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
