package main

import (
	"log/slog"
	"os"

	"pixasm/assemble"
	"pixasm/config"

	"github.com/alecthomas/kong"
)

type cli struct {
	LogLevel slog.Level      `help:"Log level: debug, info, warn or error" default:"info"`
	Config   kong.ConfigFlag `help:"YAML configuration file"`

	Convert assemble.ConvertCmd `cmd:"" default:"withargs" help:"Convert a pixel file into an image"`
	Batch   assemble.BatchCmd   `cmd:"" help:"Convert every pixel file in a folder"`
	Verify  assemble.VerifyCmd  `cmd:"" help:"Check an image against the pixel file it was made from"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("pixasm"),
		kong.Description("Assemble raytracer pixel output into a lossless image."),
		kong.UsageOnError(),
		kong.DefaultEnvars("PIXASM"),
		kong.Configuration(config.YAML, config.DefaultPaths...),
	)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel})))
	slog.Debug("running", "command", kctx.Command())

	if err := kctx.Run(); err != nil {
		slog.Error("failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
