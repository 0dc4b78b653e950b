// Package modelfetch defines the narrow ModelFetcher collaborator interface
// the model cache downloads through, and provides two concrete adapters:
// a plain HTTP download (internal/modelfetch/http) and an OCI-registry pull
// (internal/modelfetch/ociregistry).
package modelfetch

import "context"

// Fetcher downloads a model's files into destDir. destDir is guaranteed to
// exist and be empty; the fetcher must not rename or replace it — the
// model cache owns the atomic publish step.
type Fetcher interface {
	Download(ctx context.Context, modelID, destDir string) error
}
