package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gpuorch/gpud/internal/catalog"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, []string{"0"}, cfg.GPUDeviceIDs)
	require.Equal(t, []catalog.Difficulty{catalog.DifficultyLow}, cfg.GPUDeviceDifficulty)
	require.True(t, cfg.AutoFetchModels)
	require.Equal(t, "./catalog", cfg.TaskCatalogDir)
	require.Equal(t, "docker", cfg.ContainerRuntimeKind)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("GPU_DEVICE_IDS", "0,1,2")
	t.Setenv("GPU_DEVICE_DIFFICULTY", "low,high")
	t.Setenv("SESSION_IDLE_TIMEOUT_SECONDS", "45")
	t.Setenv("SESSION_QUEUE_MAX_SIZE", "8")
	t.Setenv("AUTO_FETCH_MODELS", "false")
	t.Setenv("ALLOWED_DOCKER_IMAGES", "worker:a, worker:b")
	t.Setenv("CONTAINER_RUNTIME_KIND", "k8sjob")

	cfg := Load()

	require.Equal(t, []string{"0", "1", "2"}, cfg.GPUDeviceIDs)
	require.Equal(t, []catalog.Difficulty{catalog.DifficultyLow, catalog.DifficultyHigh}, cfg.GPUDeviceDifficulty)
	require.Equal(t, 45*time.Second, cfg.SessionIdleTimeout)
	require.Equal(t, 8, cfg.SessionQueueMaxSize)
	require.False(t, cfg.AutoFetchModels)
	require.Equal(t, []string{"worker:a", "worker:b"}, cfg.AllowedDockerImages)
	require.Equal(t, "k8sjob", cfg.ContainerRuntimeKind)
}

func TestLoadInvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("SESSION_QUEUE_MAX_SIZE", "not-a-number")

	cfg := Load()

	require.Equal(t, 16, cfg.SessionQueueMaxSize)
}

func TestDeviceSpecsCyclesDifficultyAcrossIDs(t *testing.T) {
	cfg := Load()
	cfg.GPUDeviceIDs = []string{"0", "1", "2"}
	cfg.GPUDeviceDifficulty = []catalog.Difficulty{catalog.DifficultyLow, catalog.DifficultyHigh}

	specs, err := cfg.DeviceSpecs()
	require.NoError(t, err)
	require.Equal(t, catalog.DifficultyLow, specs[0].Difficulty)
	require.Equal(t, catalog.DifficultyHigh, specs[1].Difficulty)
	require.Equal(t, catalog.DifficultyLow, specs[2].Difficulty)
}

func TestIsImageAllowed(t *testing.T) {
	cfg := Load()
	require.True(t, cfg.IsImageAllowed("anything"), "no allow-list configured means unrestricted")

	cfg.AllowedDockerImages = []string{"worker:latest"}
	require.True(t, cfg.IsImageAllowed("worker:latest"))
	require.False(t, cfg.IsImageAllowed("other:latest"))
}
