// Package ociregistry implements internal/modelfetch.Fetcher by pulling
// model artifacts from an OCI registry using pkg/oci.
package ociregistry

import (
	"context"
	"fmt"
	"strings"

	"github.com/gpuorch/gpud/pkg/oci"
)

// Fetcher pulls model artifacts tagged "<Repository>:<modelID>" from Registry.
type Fetcher struct {
	Registry    string
	Repository  string
	PlainHTTP   bool
	InsecureTLS bool
}

// New builds a Fetcher against the given registry/repository. The model ID
// passed to Download, with "/" and ":" replaced by "-", is used as the image tag.
func New(registry, repository string) *Fetcher {
	return &Fetcher{Registry: registry, Repository: repository}
}

// Download pulls the OCI artifact tagged modelID into destDir.
func (f *Fetcher) Download(ctx context.Context, modelID, destDir string) error {
	tag := sanitizeTag(modelID)
	_, err := oci.Pull(ctx, oci.PullOptions{
		Registry:    f.Registry,
		Repository:  f.Repository,
		Tag:         tag,
		DestDir:     destDir,
		PlainHTTP:   f.PlainHTTP,
		InsecureTLS: f.InsecureTLS,
	})
	if err != nil {
		return fmt.Errorf("pulling model %q from %s/%s:%s: %w", modelID, f.Registry, f.Repository, tag, err)
	}
	return nil
}

// sanitizeTag replaces characters OCI tags disallow (e.g. "/" in namespaced
// model IDs) with "-" since Docker tag grammar is [A-Za-z0-9_.-]+.
func sanitizeTag(modelID string) string {
	return strings.NewReplacer("/", "-", ":", "-").Replace(modelID)
}
