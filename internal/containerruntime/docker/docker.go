// Package docker implements internal/containerruntime.Runtime against a
// Docker-compatible daemon's HTTP API reached over a Unix domain socket,
// using the same transport-configuration shape as pkg/serializer.HttpReader.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gpuorch/gpud/internal/containerruntime"
)

const apiVersion = "v1.45"

// Runtime talks to a Docker Engine API socket.
type Runtime struct {
	client *http.Client
}

// New builds a Runtime that dials socketPath (e.g. "/var/run/docker.sock").
func New(socketPath string) *Runtime {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Runtime{client: &http.Client{Transport: transport}}
}

func (r *Runtime) url(path string) string {
	return fmt.Sprintf("http://docker/%s%s", apiVersion, path)
}

func (r *Runtime) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding docker request body: %w", err)
		}
		reader = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, r.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("building docker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docker api request failed: %w", err)
	}
	return resp, nil
}

type createContainerRequest struct {
	Image      string            `json:"Image"`
	Cmd        []string          `json:"Cmd,omitempty"`
	Env        []string          `json:"Env,omitempty"`
	HostConfig hostConfig        `json:"HostConfig"`
	Labels     map[string]string `json:"Labels,omitempty"`
}

type hostConfig struct {
	Binds                []string `json:"Binds,omitempty"`
	AutoRemove           bool     `json:"AutoRemove"`
	DeviceRequests       []deviceRequest `json:"DeviceRequests,omitempty"`
}

type deviceRequest struct {
	Driver       string     `json:"Driver"`
	Count        int        `json:"Count,omitempty"`
	DeviceIDs    []string   `json:"DeviceIDs,omitempty"`
	Capabilities [][]string `json:"Capabilities"`
}

type createContainerResponse struct {
	ID       string   `json:"Id"`
	Warnings []string `json:"Warnings"`
}

func (r *Runtime) create(ctx context.Context, spec containerruntime.CreateSpec, longLived bool) (string, error) {
	env := make([]string, 0, len(spec.Env)+1)
	env = append(env, "MODEL_PATH=/models")
	for k, v := range spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	autoRemove := spec.AutoRemove && !longLived

	body := createContainerRequest{
		Image: spec.Image,
		Cmd:   spec.Argv,
		Env:   env,
		HostConfig: hostConfig{
			Binds:      []string{fmt.Sprintf("%s:/models:ro", spec.ModelHostPath)},
			AutoRemove: autoRemove,
			DeviceRequests: []deviceRequest{{
				Driver:       "nvidia",
				DeviceIDs:    []string{spec.GPUID},
				Capabilities: [][]string{{"gpu"}},
			}},
		},
	}

	resp, err := r.do(ctx, http.MethodPost, "/containers/create", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("docker create container: unexpected status %s", resp.Status)
	}

	var created createContainerResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding create container response: %w", err)
	}

	startResp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("/containers/%s/start", created.ID), nil)
	if err != nil {
		return "", err
	}
	defer startResp.Body.Close()
	if startResp.StatusCode/100 != 2 {
		return "", fmt.Errorf("docker start container: unexpected status %s", startResp.Status)
	}

	return created.ID, nil
}

// CreateOneoff implements containerruntime.Runtime.
func (r *Runtime) CreateOneoff(ctx context.Context, spec containerruntime.CreateSpec) (string, error) {
	return r.create(ctx, spec, false)
}

// CreateLongLived implements containerruntime.Runtime.
func (r *Runtime) CreateLongLived(ctx context.Context, spec containerruntime.CreateSpec) (string, error) {
	return r.create(ctx, spec, true)
}

// Exec implements containerruntime.Runtime.
func (r *Runtime) Exec(ctx context.Context, containerID string, argv []string) (*containerruntime.ExecResult, error) {
	createBody := map[string]any{
		"Cmd":          argv,
		"AttachStdout": true,
		"AttachStderr": true,
	}
	resp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("/containers/%s/exec", containerID), createBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("docker exec create: unexpected status %s", resp.Status)
	}

	var created struct {
		ID string `json:"Id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decoding exec create response: %w", err)
	}

	startReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.url(fmt.Sprintf("/exec/%s/start", created.ID)),
		strings.NewReader(`{"Detach":false,"Tty":false}`))
	if err != nil {
		return nil, fmt.Errorf("building exec start request: %w", err)
	}
	startReq.Header.Set("Content-Type", "application/json")

	startResp, err := r.client.Do(startReq)
	if err != nil {
		return nil, fmt.Errorf("docker exec start failed: %w", err)
	}
	if startResp.StatusCode/100 != 2 {
		startResp.Body.Close()
		return nil, fmt.Errorf("docker exec start: unexpected status %s", startResp.Status)
	}

	exitCode := func(ctx context.Context) (int, error) {
		inspectResp, err := r.do(ctx, http.MethodGet, fmt.Sprintf("/exec/%s/json", created.ID), nil)
		if err != nil {
			return -1, err
		}
		defer inspectResp.Body.Close()
		var inspected struct {
			ExitCode int  `json:"ExitCode"`
			Running  bool `json:"Running"`
		}
		if err := json.NewDecoder(inspectResp.Body).Decode(&inspected); err != nil {
			return -1, fmt.Errorf("decoding exec inspect response: %w", err)
		}
		return inspected.ExitCode, nil
	}

	return &containerruntime.ExecResult{Stdout: startResp.Body, ExitCode: exitCode}, nil
}

// StreamLogs implements containerruntime.Runtime. The returned ReadCloser's
// Read blocks on the daemon's streaming response when follow is true;
// callers must read it from a dedicated goroutine.
func (r *Runtime) StreamLogs(ctx context.Context, containerID string, follow bool) (io.ReadCloser, error) {
	path := fmt.Sprintf("/containers/%s/logs?stdout=true&stderr=true&follow=%t", containerID, follow)
	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, fmt.Errorf("docker logs: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Stop implements containerruntime.Runtime.
func (r *Runtime) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	resp, err := r.do(ctx, http.MethodPost,
		fmt.Sprintf("/containers/%s/stop?t=%d", containerID, seconds), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotModified {
		return fmt.Errorf("docker stop container: unexpected status %s", resp.Status)
	}
	return nil
}

// Remove implements containerruntime.Runtime.
func (r *Runtime) Remove(ctx context.Context, containerID string) error {
	resp, err := r.do(ctx, http.MethodDelete, fmt.Sprintf("/containers/%s?force=true", containerID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("docker remove container: unexpected status %s", resp.Status)
	}
	return nil
}
