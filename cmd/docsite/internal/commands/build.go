package commands

import (
	"context"
	"fmt"
)

type BuildCmd struct {
	ConfigFlags   `embed:""`
	PipelineFlags `embed:""`

	Precompress bool `help:"write gzip copies of text outputs" default:"false" env:"DOCSITE_PRECOMPRESS"`
	Tracing     bool `help:"enable tracing" default:"false" env:"DOCSITE_TRACING"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, log := setupLogger(ctx, globals)

	log.Info().Str("version", globals.Version).Str("dir", c.Dir).Msg("Starting build")

	cfg, err := c.assemble()
	if err != nil {
		return err
	}

	shutdown := setupTelemetry(ctx, log, c.Tracing, globals.Version, "build", cfg)
	defer shutdown()

	log.Info().Object("config", cfg).Msg("Assembled configuration")

	pipeline, cleanup, err := c.pipeline(c.Dir, cfg, c.Precompress)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	log.Info().
		Strs("outputs", res.Outputs).
		Int("pages", len(res.Pages)).
		Int("warnings", len(res.Warnings)).
		Str("output_dir", pipeline.OutputDir()).
		Msg("Build finished")

	return nil
}
