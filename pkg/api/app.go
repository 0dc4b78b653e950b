package api

import (
	"context"
	"fmt"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/config"
	"github.com/gpuorch/gpud/internal/containerruntime"
	"github.com/gpuorch/gpud/internal/containerruntime/docker"
	"github.com/gpuorch/gpud/internal/containerruntime/k8sjob"
	"github.com/gpuorch/gpud/internal/gpuallocator"
	"github.com/gpuorch/gpud/internal/gputelemetry"
	"github.com/gpuorch/gpud/internal/modelcache"
	"github.com/gpuorch/gpud/internal/modelfetch"
	httpfetch "github.com/gpuorch/gpud/internal/modelfetch/http"
	"github.com/gpuorch/gpud/internal/modelfetch/ociregistry"
	"github.com/gpuorch/gpud/internal/session"
	"github.com/gpuorch/gpud/internal/taskhandler"
	"github.com/gpuorch/gpud/pkg/k8s/client"
)

// App wires together every collaborator the HTTP routes depend on: the
// catalog, the GPU allocator, the model cache, the session registry, and the
// task handler pipeline built over them.
type App struct {
	Config    *config.Config
	Catalog   *catalog.Catalog
	Allocator *gpuallocator.Allocator
	Cache     *modelcache.Cache
	Sessions  *session.Registry
	Runtime   containerruntime.Runtime
	Handler   *taskhandler.Handler
	Reaper    *session.Reaper
}

// NewApp constructs the full collaborator graph from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	rt, err := buildRuntime(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := buildFetcher(cfg)

	specs, err := cfg.DeviceSpecs()
	if err != nil {
		return nil, fmt.Errorf("building gpu device specs: %w", err)
	}

	allocator := gpuallocator.New(specs, gputelemetry.NvidiaSMI{})
	allocator.StartTelemetryRefresh(ctx, cfg.MonitorInterval)

	cache := modelcache.New(cfg.ModelCacheDir, fetcher, cfg.AutoFetchModels)
	sessions := session.NewRegistry(allocator, rt, cfg.SessionQueueMaxSize, cfg.SessionIdleTimeout, cfg.SessionMaxLifetime)
	reaper := session.NewReaper(sessions, cfg.MonitorInterval)

	return &App{
		Config:    cfg,
		Catalog:   catalog.New(cfg.TaskCatalogDir),
		Allocator: allocator,
		Cache:     cache,
		Sessions:  sessions,
		Runtime:   rt,
		Reaper:    reaper,
		Handler: &taskhandler.Handler{
			Catalog:        catalog.New(cfg.TaskCatalogDir),
			Cache:          cache,
			Allocator:      allocator,
			Sessions:       sessions,
			Runtime:        rt,
			IsImageAllowed: cfg.IsImageAllowed,
		},
	}, nil
}

func buildRuntime(cfg *config.Config) (containerruntime.Runtime, error) {
	switch cfg.ContainerRuntimeKind {
	case "k8sjob":
		clientset, restConfig, err := client.GetKubeClient()
		if err != nil {
			return nil, fmt.Errorf("building kubernetes client: %w", err)
		}
		return k8sjob.New(clientset, restConfig, "default"), nil
	case "docker", "":
		return docker.New("/var/run/docker.sock"), nil
	default:
		return nil, fmt.Errorf("unknown CONTAINER_RUNTIME_KIND %q", cfg.ContainerRuntimeKind)
	}
}

func buildFetcher(cfg *config.Config) modelfetch.Fetcher {
	if cfg.FileServiceURL != "" {
		return httpfetch.New(cfg.FileServiceURL, cfg.FileServiceInternalKey)
	}
	return ociregistry.New("registry.local", "gpud/models")
}

// HealthDetails reports the fleet, session, and task counts the extended
// /health response surfaces.
func (a *App) HealthDetails() map[string]any {
	snapshot := a.Allocator.Snapshot()
	gpus := make([]map[string]any, 0, len(snapshot))
	available := 0
	for _, d := range snapshot {
		if d.Available {
			available++
		}
		gpus = append(gpus, map[string]any{
			"id":         d.ID,
			"difficulty": string(d.Difficulty),
			"available":  d.Available,
		})
	}

	sessions := a.Sessions.List()
	working := 0
	for _, sess := range sessions {
		if sess.Status() == session.Working {
			working++
		}
	}

	taskCount := 0
	if names, err := a.Catalog.Names(); err == nil {
		taskCount = len(names)
	}

	return map[string]any{
		"gpus": map[string]any{
			"total":     len(snapshot),
			"available": available,
			"devices":   gpus,
		},
		"sessions": map[string]any{
			"total":   len(sessions),
			"working": working,
		},
		"tasks": map[string]any{
			"defined": taskCount,
		},
	}
}
