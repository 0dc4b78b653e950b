// Package modelcache ensures a model's files are present on local disk,
// downloading through an injected modelfetch.Fetcher at most once per model
// id even under concurrent callers.
package modelcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/gpuorch/gpud/internal/metrics"
	"github.com/gpuorch/gpud/internal/modelfetch"
	cnserrors "github.com/gpuorch/gpud/pkg/errors"
)

// Cache publishes model directories under BaseDir, named by model id.
type Cache struct {
	BaseDir   string
	Fetcher   modelfetch.Fetcher
	AutoFetch bool

	group singleflight.Group
}

// New builds a Cache rooted at baseDir, downloading through fetcher on a
// miss when autoFetch is true. New creates nothing on disk; baseDir is
// created by the first fetch on a miss.
func New(baseDir string, fetcher modelfetch.Fetcher, autoFetch bool) *Cache {
	return &Cache{BaseDir: baseDir, Fetcher: fetcher, AutoFetch: autoFetch}
}

// Ensure returns the host path of modelID's directory, downloading it first
// if it is not already cached and AutoFetch is enabled. Concurrent Ensure
// calls for the same modelID share a single downstream fetch.
func (c *Cache) Ensure(ctx context.Context, modelID string) (string, error) {
	dest := filepath.Join(c.BaseDir, modelID)
	if isPopulatedDir(dest) {
		metrics.ModelCacheHitsTotal.Inc()
		return dest, nil
	}
	metrics.ModelCacheMissesTotal.Inc()

	if !c.AutoFetch {
		return "", cnserrors.NewWithContext(cnserrors.ErrCodeFetchError,
			"model not cached and auto-fetch is disabled", map[string]any{"model_id": modelID})
	}

	v, err, _ := c.group.Do(modelID, func() (any, error) {
		// Re-check: another Ensure may have populated dest while we waited
		// to enter Do (the singleflight key collapses concurrent callers,
		// but a prior, now-finished call could have already published it).
		if isPopulatedDir(dest) {
			return dest, nil
		}
		return dest, c.fetch(ctx, modelID, dest)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) fetch(ctx context.Context, modelID, dest string) error {
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"creating model cache directory", err, map[string]any{"model_id": modelID})
	}

	tmpDir, err := os.MkdirTemp(c.BaseDir, fmt.Sprintf(".tmp-%s-", sanitize(modelID)))
	if err != nil {
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"creating temp download directory", err, map[string]any{"model_id": modelID})
	}

	if err := c.Fetcher.Download(ctx, modelID, tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"downloading model", err, map[string]any{"model_id": modelID})
	}

	if err := os.Rename(tmpDir, dest); err != nil {
		os.RemoveAll(tmpDir)
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"publishing model directory", err, map[string]any{"model_id": modelID})
	}
	return nil
}

// isPopulatedDir reports whether path exists, is a directory, and contains
// at least one entry.
func isPopulatedDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

func sanitize(modelID string) string {
	out := make([]rune, 0, len(modelID))
	for _, r := range modelID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
