// Package config parses the gpud process's environment into a Config,
// following the same "default, then override from env if set" shape as
// pkg/server/config.go.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/gpuallocator"
	"github.com/gpuorch/gpud/pkg/defaults"
)

// Config holds every environment-derived knob the orchestrator reads at
// startup.
type Config struct {
	// GPU fleet
	GPUDeviceIDs        []string
	GPUDeviceDifficulty []catalog.Difficulty

	// Session lifecycle
	SessionIdleTimeout  time.Duration
	SessionMaxLifetime  time.Duration
	SessionQueueMaxSize int
	MonitorInterval     time.Duration

	// Task execution
	DefaultTaskTimeout time.Duration
	MaxTaskTimeout     time.Duration

	// Model cache
	ModelCacheDir   string
	AutoFetchModels bool

	// File service collaborator
	FileServiceURL         string
	FileServiceInternalKey string

	// Inbound auth
	InternalAPIKey string

	// Admission control
	AllowedDockerImages []string

	// Catalog and runtime adapter selection (supplemented — spec.md never
	// enumerates these as knobs, but the catalog directory and runtime
	// adapter have to come from somewhere).
	TaskCatalogDir       string
	ContainerRuntimeKind string
}

// Load builds a Config from the process environment.
func Load() *Config {
	cfg := &Config{
		GPUDeviceIDs:           []string{"0"},
		GPUDeviceDifficulty:    []catalog.Difficulty{catalog.DifficultyLow},
		SessionIdleTimeout:     defaults.DefaultSessionIdleTimeout,
		SessionMaxLifetime:     defaults.DefaultSessionMaxLifetime,
		SessionQueueMaxSize:    defaults.DefaultSessionQueueDepth,
		MonitorInterval:        defaults.ReaperInterval,
		DefaultTaskTimeout:     defaults.DefaultTaskTimeout,
		MaxTaskTimeout:         defaults.MaxTaskTimeout,
		ModelCacheDir:          "/var/lib/gpud/models",
		AutoFetchModels:        true,
		TaskCatalogDir:         "./catalog",
		ContainerRuntimeKind:   "docker",
	}

	if v := os.Getenv("GPU_DEVICE_IDS"); v != "" {
		cfg.GPUDeviceIDs = splitCSV(v)
	}
	if v := os.Getenv("GPU_DEVICE_DIFFICULTY"); v != "" {
		cfg.GPUDeviceDifficulty = nil
		for _, d := range splitCSV(v) {
			cfg.GPUDeviceDifficulty = append(cfg.GPUDeviceDifficulty, catalog.Difficulty(d))
		}
	}

	if v := os.Getenv("SESSION_IDLE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SessionIdleTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SESSION_MAX_LIFETIME_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SessionMaxLifetime = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SESSION_QUEUE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SessionQueueMaxSize = n
		}
	}
	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.MonitorInterval = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("DEFAULT_TASK_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.DefaultTaskTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("MAX_TASK_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.MaxTaskTimeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("MODEL_CACHE_DIR"); v != "" {
		cfg.ModelCacheDir = v
	}
	if v := os.Getenv("AUTO_FETCH_MODELS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoFetchModels = b
		}
	}

	if v := os.Getenv("FILE_SERVICE_URL"); v != "" {
		cfg.FileServiceURL = v
	}
	if v := os.Getenv("FILE_SERVICE_INTERNAL_KEY"); v != "" {
		cfg.FileServiceInternalKey = v
	}
	if v := os.Getenv("INTERNAL_API_KEY"); v != "" {
		cfg.InternalAPIKey = v
	}

	if v := os.Getenv("ALLOWED_DOCKER_IMAGES"); v != "" {
		cfg.AllowedDockerImages = splitCSV(v)
	}

	if v := os.Getenv("TASK_CATALOG_DIR"); v != "" {
		cfg.TaskCatalogDir = v
	}
	if v := os.Getenv("CONTAINER_RUNTIME_KIND"); v != "" {
		cfg.ContainerRuntimeKind = v
	}

	return cfg
}

// DeviceSpecs zips GPUDeviceIDs against GPUDeviceDifficulty into the
// gpuallocator.New input, cycling the difficulty list if it is shorter than
// the id list (a single difficulty applies to every device by default).
func (c *Config) DeviceSpecs() ([]gpuallocator.DeviceSpec, error) {
	if len(c.GPUDeviceDifficulty) == 0 {
		return nil, fmt.Errorf("GPU_DEVICE_DIFFICULTY must name at least one difficulty")
	}
	specs := make([]gpuallocator.DeviceSpec, len(c.GPUDeviceIDs))
	for i, id := range c.GPUDeviceIDs {
		difficulty := c.GPUDeviceDifficulty[i%len(c.GPUDeviceDifficulty)]
		specs[i] = gpuallocator.DeviceSpec{ID: id, Difficulty: difficulty}
	}
	return specs, nil
}

// IsImageAllowed reports whether image passes the ALLOWED_DOCKER_IMAGES
// allow-list. An empty list means no restriction is configured.
func (c *Config) IsImageAllowed(image string) bool {
	if len(c.AllowedDockerImages) == 0 {
		return true
	}
	for _, allowed := range c.AllowedDockerImages {
		if allowed == image {
			return true
		}
	}
	return false
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
