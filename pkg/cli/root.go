/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the command-line interface for gpuctl, the operator
// tool for the GPU task orchestrator.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/gpuorch/gpud/pkg/logging"
)

const (
	name           = "gpuctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   "table",
		Usage:   "output format (json, yaml, table)",
	}
	serverFlag = &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Value:   "http://localhost:8080",
		Sources: cli.EnvVars("GPUD_SERVER"),
		Usage:   "base URL of the gpud API server",
	}
	apiKeyFlag = &cli.StringFlag{
		Name:    "api-key",
		Sources: cli.EnvVars("GPUD_API_KEY"),
		Usage:   "value for the X-Api-Key header, if the server requires one",
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		EnableShellCompletion: true,
		Usage:                 "Operate a gpud GPU task orchestrator",
		Description: fmt.Sprintf(`gpuctl - GPU task orchestrator operator CLI

Version: %s
Commit:  %s
Built:   %s

Talks to a running gpud server to inspect and manage sessions, and pushes
model artifacts to an OCI registry for gpud to fetch.`, version, commit, date),
		Commands: []*cli.Command{
			sessionsCmd(),
			ociPushCmd(),
		},
	}
}

// Execute runs gpuctl with os.Args, exiting non-zero on failure.
func Execute() {
	logging.SetDefaultStructuredLogger(name, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
