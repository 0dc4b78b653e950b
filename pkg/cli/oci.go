/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/gpuorch/gpud/pkg/oci"
)

func ociPushCmd() *cli.Command {
	return &cli.Command{
		Name:                  "oci-push",
		EnableShellCompletion: true,
		Usage:                 "Push a model artifact directory to an OCI registry",
		Description: `Push a model directory to an OCI registry so gpud's model cache can fetch it
by tag. The fetcher requests the task's model_id as the tag, with slashes and
colons replaced by dashes (neither is permitted in an OCI tag); pass that
value as --tag.

# Examples

  gpuctl oci-push --source ./models/llama3 --registry registry.local \
    --repository gpud/models --tag llama3`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Required: true,
				Usage:    "directory containing the model artifact to push",
			},
			&cli.StringFlag{
				Name:     "registry",
				Required: true,
				Usage:    "OCI registry host (e.g. registry.local, ghcr.io)",
			},
			&cli.StringFlag{
				Name:     "repository",
				Required: true,
				Usage:    "image repository path (e.g. gpud/models)",
			},
			&cli.StringFlag{
				Name:     "tag",
				Required: true,
				Usage:    "image tag; should match the model_id gpud will request",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP instead of HTTPS for the registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip TLS certificate verification",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := oci.PushOptions{
				SourceDir:   cmd.String("source"),
				Registry:    cmd.String("registry"),
				Repository:  cmd.String("repository"),
				Tag:         cmd.String("tag"),
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
			}

			slog.Info("pushing model artifact",
				"source", opts.SourceDir, "registry", opts.Registry,
				"repository", opts.Repository, "tag", opts.Tag)

			result, err := oci.Push(ctx, opts)
			if err != nil {
				return fmt.Errorf("pushing %q: %w", opts.SourceDir, err)
			}

			slog.Info("push complete", "reference", result.Reference, "digest", result.Digest)
			fmt.Printf("%s@%s\n", result.Reference, result.Digest)
			return nil
		},
	}
}
