package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gpuorch/gpud/internal/config"
	"github.com/gpuorch/gpud/pkg/logging"
	"github.com/gpuorch/gpud/pkg/server"
)

const (
	name           = "gpud"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/gpuorch/gpud/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown. It loads
// configuration from the environment, builds the collaborator graph, wires
// routes, and delegates lifecycle management to pkg/server.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg := config.Load()
	slog.Info("configuration loaded",
		"gpu_device_ids", cfg.GPUDeviceIDs,
		"container_runtime_kind", cfg.ContainerRuntimeKind,
		"task_catalog_dir", cfg.TaskCatalogDir,
		"model_cache_dir", cfg.ModelCacheDir,
	)

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	go app.Reaper.Run(ctx)

	s := server.New(
		server.WithConfig(serverConfigFrom(cfg)),
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(app.Routes()),
		server.WithHealthDetails(app.HealthDetails),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

func serverConfigFrom(cfg *config.Config) *server.Config {
	sc := server.NewConfig()
	sc.APIKey = cfg.InternalAPIKey
	return sc
}
