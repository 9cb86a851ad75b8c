package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type InspectCmd struct {
	ConfigFlags `embed:""`
}

func (c *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	_, log := setupLogger(ctx, globals)

	cfg, err := c.assemble()
	if err != nil {
		return err
	}

	log.Debug().Object("config", cfg).Msg("Assembled configuration")

	return writeYAML(os.Stdout, cfg)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
