package assets

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// RebuildFunc receives the outcome of every watch build.
type RebuildFunc func(res *Result, err error)

// Watch builds once, then rebuilds whenever an input changes until ctx is
// cancelled.
func (p *Pipeline) Watch(ctx context.Context, onRebuild RebuildFunc) error {
	state := newBuildState()

	opts, err := p.buildOptions(state)
	if err != nil {
		return err
	}
	opts.Plugins = append(opts.Plugins, p.rebuildPlugin(state, onRebuild))

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return &BuildError{Messages: ctxErr.Errors}
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("output", p.outputDir()).Msg("Watching for changes")

	<-ctx.Done()

	return nil
}

func (p *Pipeline) rebuildPlugin(state *buildState, onRebuild RebuildFunc) api.Plugin {
	return api.Plugin{
		Name: "docsite-rebuild",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					for _, msg := range result.Errors {
						log.Error().Str("error", msg.Text).Str("file", messageFile(msg)).Msg("Rebuild error")
					}
					if onRebuild != nil {
						onRebuild(nil, &BuildError{Messages: result.Errors})
					}
					return api.OnEndResult{}, nil
				}

				res := p.result(state, *result)
				log.Info().Int("outputs", len(res.Outputs)).Msg("Rebuilt assets")

				if onRebuild != nil {
					onRebuild(res, nil)
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}
