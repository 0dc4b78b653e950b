// Package containerruntime defines the narrow Runtime collaborator the task
// handler and session dispatcher launch worker containers through, and
// provides two concrete adapters: a Docker-compatible daemon
// (internal/containerruntime/docker) and Kubernetes Jobs
// (internal/containerruntime/k8sjob).
package containerruntime

import (
	"context"
	"io"
	"time"
)

// CreateSpec describes a worker container to launch. ModelHostPath is always
// bound read-only at /models inside the container, and MODEL_PATH=/models is
// injected into Env alongside the caller-provided entries.
type CreateSpec struct {
	Image         string
	Argv          []string
	Env           map[string]string
	ModelHostPath string
	GPUID         string
	AutoRemove    bool
}

// ExecResult carries the output stream and exit-code future of Exec.
type ExecResult struct {
	Stdout   io.ReadCloser
	ExitCode func(ctx context.Context) (int, error)
}

// Runtime is the adapter contract the orchestrator depends on. It knows
// nothing about GPU allocation, sessions, or catalogs — only how to run and
// observe a container.
type Runtime interface {
	// CreateOneoff launches a container that the caller fully owns for the
	// lifetime of a single task; AutoRemove governs whether the runtime
	// removes it on exit.
	CreateOneoff(ctx context.Context, spec CreateSpec) (containerID string, err error)

	// CreateLongLived launches a container meant to outlive any single task
	// and be Exec'd into repeatedly (a session's backing container).
	CreateLongLived(ctx context.Context, spec CreateSpec) (containerID string, err error)

	// Exec runs argv inside an already-running container, returning a
	// stdout stream and an exit-code future the caller can await.
	Exec(ctx context.Context, containerID string, argv []string) (*ExecResult, error)

	// StreamLogs returns a lazy, line-oriented reader of the container's
	// log output. The returned ReadCloser's Read may block synchronously
	// on the underlying log source; callers must consume it from a
	// dedicated goroutine rather than the main request-handling path.
	StreamLogs(ctx context.Context, containerID string, follow bool) (io.ReadCloser, error)

	// Stop asks the container to terminate gracefully, killing it if it
	// has not exited within timeout.
	Stop(ctx context.Context, containerID string, timeout time.Duration) error

	// Remove deletes the container. Safe to call on an already-removed
	// container id.
	Remove(ctx context.Context, containerID string) error
}
