// Package app wires configuration, logging, the wiki client and the
// optional graph store into a ready pipeline.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/driver"
	"github.com/agenthands/linkgraph/internal/export"
	"github.com/agenthands/linkgraph/internal/mediawiki"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Wiki     *mediawiki.Client
	Pipeline *core.Pipeline
	Store    *driver.Store

	driver driver.GraphDriver
}

// ConfigPath returns path, or CONFIG_PATH, or config/config.toml.
func ConfigPath(path string) string {
	if path != "" {
		return path
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config/config.toml"
}

// LoadConfig reads .env when present, then the TOML file, then environment
// overrides, and validates the result.
func LoadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(ConfigPath(path))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// New builds the pipeline for cfg. Artifacts are always written to disk; the
// Memgraph store is connected only when enabled. Extra sinks run after both.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, extra ...core.Sink) (*App, error) {
	log = logger.OrNop(log)
	a := &App{
		Config: cfg,
		Log:    log,
		Wiki:   mediawiki.NewFromConfig(cfg.Wiki, log),
	}

	sinks := []core.Sink{export.NewWriter(cfg.Export, log)}
	if cfg.Memgraph.Enabled {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph, log)
		if err != nil {
			return nil, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
		a.driver = d
		a.Store = driver.NewStore(d, log)
		sinks = append(sinks, a.Store)
	} else {
		log.Info("memgraph disabled, graph will only be exported to files")
	}
	sinks = append(sinks, extra...)

	a.Pipeline = core.NewPipeline(a.Wiki, cfg, log, sinks...)
	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.driver == nil {
		return nil
	}
	return a.driver.Close(ctx)
}
