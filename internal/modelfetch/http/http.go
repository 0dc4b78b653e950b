// Package http implements internal/modelfetch.Fetcher against the file
// service's plain HTTP download surface.
package http

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cnserrors "github.com/gpuorch/gpud/pkg/errors"
	"github.com/gpuorch/gpud/pkg/serializer"
)

// Fetcher downloads a model archive from the configured file service and
// extracts it into the destination directory.
type Fetcher struct {
	BaseURL   string
	InternalKey string
	reader    *serializer.HttpReader
}

// New builds a Fetcher against baseURL, authenticating with internalKey via
// the file service's out-of-band internal-key header.
func New(baseURL, internalKey string) *Fetcher {
	return &Fetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		InternalKey: internalKey,
		reader: serializer.NewHttpReader(
			serializer.WithUserAgent("gpud-modelfetch/1"),
		),
	}
}

// Download fetches modelID.tar.gz from the file service and extracts it into
// destDir.
func (f *Fetcher) Download(ctx context.Context, modelID, destDir string) error {
	archivePath := filepath.Join(destDir, ".download.tar.gz")
	url := fmt.Sprintf("%s/models/%s.tar.gz", f.BaseURL, modelID)

	if err := f.reader.DownloadWithContext(ctx, url, archivePath); err != nil {
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"downloading model archive", err, map[string]any{"model_id": modelID})
	}
	defer os.Remove(archivePath)

	if err := extractTarGz(archivePath, destDir); err != nil {
		return cnserrors.WrapWithContext(cnserrors.ErrCodeFetchError,
			"extracting model archive", err, map[string]any{"model_id": modelID})
	}

	return nil
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}
