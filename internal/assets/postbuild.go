package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/plugins"
	"github.com/wolfeidau/docsite/internal/telemetry"
)

// prerenderPlugin writes one page per route once the bundle is on disk.
func (p *Pipeline) prerenderPlugin(state *buildState, pr plugins.StaticPrerender) (api.Plugin, error) {
	entryPointPath, ok := p.config.Entries[pr.Entry]
	if !ok {
		return api.Plugin{}, fmt.Errorf("%w: %s", ErrEntryNotFound, pr.Entry)
	}

	return api.Plugin{
		Name: "docsite-prerender",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				for _, route := range pr.Paths {
					if err := p.renderPage(state, entryPointPath, route, pr.Locals); err != nil {
						return api.OnEndResult{}, fmt.Errorf("prerender %s: %w", route, err)
					}
				}

				log.Debug().Int("pages", len(pr.Paths)).Msg("Pre-rendered pages")

				return api.OnEndResult{}, nil
			})
		},
	}, nil
}

func (p *Pipeline) renderPage(state *buildState, entryPointPath, route string, locals plugins.Locals) error {
	page, err := p.page(entryPointPath, route, locals)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := p.renderer.Render(buf, page); err != nil {
		return err
	}

	file := filepath.Join(p.outputDir(), PageFile(route))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		return err
	}

	state.addPage(file)
	telemetry.GetMetrics().PagesRenderedTotal.Add(context.Background(), 1)

	return nil
}

// moduleOrderPlugin rewrites the metafile with sorted keys so identical
// builds produce identical files.
func (p *Pipeline) moduleOrderPlugin() api.Plugin {
	return api.Plugin{
		Name: "docsite-module-order",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				canonical, err := canonicalJSON([]byte(result.Metafile))
				if err != nil {
					return api.OnEndResult{}, fmt.Errorf("failed to order metafile: %w", err)
				}

				return api.OnEndResult{}, p.writeMetafile(canonical)
			})
		},
	}
}

// canonicalJSON re-encodes data with object keys sorted.
func canonicalJSON(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return json.MarshalIndent(doc, "", "  ")
}

// copyPlugin copies each pattern's source, relative to the working directory,
// into the output directory.
func (p *Pipeline) copyPlugin(state *buildState, cf plugins.CopyFiles) api.Plugin {
	return api.Plugin{
		Name: "docsite-copy",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				for _, pattern := range cf.Patterns {
					src := pattern.From
					if !filepath.IsAbs(src) {
						src = filepath.Join(p.workingDir(), src)
					}
					dst := filepath.Join(p.outputDir(), pattern.To)

					if err := copyFile(src, dst); err != nil {
						return api.OnEndResult{}, fmt.Errorf("copy %s: %w", pattern.From, err)
					}
					state.addWritten(dst)
				}

				return api.OnEndResult{}, nil
			})
		},
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
