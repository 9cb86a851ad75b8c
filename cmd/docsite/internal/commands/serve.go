package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/docsite/internal/assets"
	"github.com/wolfeidau/docsite/internal/devserver"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	ConfigFlags   `embed:""`
	PipelineFlags `embed:""`

	Listen       string   `help:"listen address, defaults to the dev server policy" default:"" env:"DOCSITE_LISTEN"`
	AllowedHosts []string `help:"host names accepted when the host check is enabled" env:"DOCSITE_ALLOWED_HOSTS"`
	HostCheck    bool     `help:"verify the Host header of incoming requests" default:"false" env:"DOCSITE_HOST_CHECK"`
	Tracing      bool     `help:"enable tracing" default:"false" env:"DOCSITE_TRACING"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, log := setupLogger(ctx, globals)

	cfg, err := c.assemble()
	if err != nil {
		return err
	}

	shutdown := setupTelemetry(ctx, log, c.Tracing, globals.Version, "serve", cfg)
	defer shutdown()

	dev := cfg.DevServer
	if c.HostCheck {
		dev.DisableHostCheck = false
	}

	pipeline, cleanup, err := c.pipeline(c.Dir, cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	// pages for routes without a pre-rendered file are rendered on request
	shell, err := pipeline.Handler(c.PrerenderFrom, nil)
	if err != nil {
		return err
	}

	addr := c.Listen
	if addr == "" {
		addr = devserver.Addr(dev)
	}

	handler := devserver.Wrap(devserver.Handler(pipeline.OutputDir(), dev, shell), dev, log, c.AllowedHosts...)
	srv := configureHTTPServer(addr, handler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pipeline.Watch(gctx, func(res *assets.Result, err error) {
			if err != nil {
				log.Error().Err(err).Msg("Rebuild failed")
				return
			}
			log.Info().Int("outputs", len(res.Outputs)).Msg("Rebuild finished")
		})
	})

	g.Go(func() error {
		log.Info().Str("addr", addr).Str("dir", pipeline.OutputDir()).Msg("Serving docs site")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dev server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
