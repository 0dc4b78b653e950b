/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/gpuorch/gpud/pkg/defaults"
	"github.com/gpuorch/gpud/pkg/serializer"
)

var httpClient = &http.Client{Timeout: defaults.CLIRequestTimeout}

func sessionsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "sessions",
		EnableShellCompletion: true,
		Usage:                 "Inspect and manage gpud sessions",
		Commands: []*cli.Command{
			sessionsListCmd(),
			sessionsGetCmd(),
			sessionsKillCmd(),
		},
	}
}

func sessionsListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List active sessions",
		Flags: []cli.Flag{serverFlag, apiKeyFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var body struct {
				Sessions []map[string]any `json:"sessions"`
			}
			if err := apiGet(ctx, cmd, "/api/sessions", &body); err != nil {
				return err
			}
			return renderOutput(ctx, cmd, body.Sessions)
		},
	}
}

func sessionsGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch one session's state",
		ArgsUsage: "<session-id>",
		Flags:     []cli.Flag{serverFlag, apiKeyFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("session id is required")
			}
			var body map[string]any
			if err := apiGet(ctx, cmd, "/api/sessions/"+id, &body); err != nil {
				return err
			}
			return renderOutput(ctx, cmd, body)
		},
	}
}

func sessionsKillCmd() *cli.Command {
	return &cli.Command{
		Name:      "kill",
		Usage:     "Kill a session",
		ArgsUsage: "<session-id>",
		Flags:     []cli.Flag{serverFlag, apiKeyFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("session id is required")
			}
			return apiDo(ctx, cmd, http.MethodDelete, "/api/sessions/"+id, nil)
		},
	}
}

func apiGet(ctx context.Context, cmd *cli.Command, path string, out any) error {
	return apiCall(ctx, cmd, http.MethodGet, path, out)
}

func apiDo(ctx context.Context, cmd *cli.Command, method, path string, out any) error {
	return apiCall(ctx, cmd, method, path, out)
}

func apiCall(ctx context.Context, cmd *cli.Command, method, path string, out any) error {
	url := cmd.String("server") + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	if key := cmd.String("api-key"); key != "" {
		req.Header.Set("X-Api-Key", key)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

func renderOutput(ctx context.Context, cmd *cli.Command, data any) error {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return fmt.Errorf("unknown output format: %q", outFormat)
	}
	ser, err := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer func() {
		if closer, ok := ser.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()
	return ser.Serialize(ctx, data)
}
