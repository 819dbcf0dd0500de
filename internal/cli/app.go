// Package cli holds the wiring shared by the parley commands: building an app
// from graph and view files, opening session stores and flag defaults.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/loader"
	"github.com/aretw0/parley/pkg/render"
)

// AppOptions locate the files an app is built from.
type AppOptions struct {
	GraphPath     string
	ViewPaths     []string
	DefaultLocale string
	Logger        *slog.Logger
}

// BuildApp loads the graph and views and builds a validated app. extra
// options are applied after the ones derived from the files.
func BuildApp(opts AppOptions, extra ...parley.Option) (*parley.App, *loader.Definition, error) {
	if opts.GraphPath == "" {
		return nil, nil, fmt.Errorf("no graph file given (use --graph or %s)", EnvGraph)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	def, err := loader.LoadFile(opts.GraphPath)
	if err != nil {
		return nil, nil, err
	}

	appOpts := []parley.Option{parley.WithLogger(logger)}
	if len(opts.ViewPaths) > 0 {
		views, err := render.LoadFiles(opts.ViewPaths...)
		if err != nil {
			return nil, nil, fmt.Errorf("load views: %w", err)
		}
		var renderOpts []render.Option
		if opts.DefaultLocale != "" {
			renderOpts = append(renderOpts, render.WithDefaultLocale(opts.DefaultLocale))
		}
		r, err := render.New(views, renderOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("views: %w", err)
		}
		appOpts = append(appOpts, parley.WithRenderer(r))
	}

	app, err := def.Build(append(appOpts, extra...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opts.GraphPath, err)
	}
	logger.Debug("app built", "graph", opts.GraphPath, "name", def.Name, "states", len(app.Inspect()))
	return app, def, nil
}

// Environment variables read as flag defaults.
const (
	EnvGraph    = "PARLEY_GRAPH"
	EnvViews    = "PARLEY_VIEWS"
	EnvLogLevel = "PARLEY_LOG_LEVEL"
	EnvStore    = "PARLEY_STORE"
	EnvStoreURL = "PARLEY_STORE_URL"
	EnvSecret   = "PARLEY_JWT_SECRET"
	EnvKey      = "PARLEY_ENCRYPTION_KEY"
)

// Env returns the value of key, or def when unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
