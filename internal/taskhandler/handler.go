// Package taskhandler composes ConfigCatalog, ModelCache, GpuAllocator,
// SessionRegistry, ContainerRuntime and InstanceStreamer into the single
// per-request pipeline described by the orchestrator's task endpoint.
package taskhandler

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/containerruntime"
	"github.com/gpuorch/gpud/internal/gpuallocator"
	"github.com/gpuorch/gpud/internal/modelcache"
	"github.com/gpuorch/gpud/internal/session"
	"github.com/gpuorch/gpud/internal/streamer"
)

// Handler is the TaskRequestHandler pipeline: resolve -> ensure model ->
// dispatch on kind.
type Handler struct {
	Catalog   *catalog.Catalog
	Cache     *modelcache.Cache
	Allocator *gpuallocator.Allocator
	Sessions  *session.Registry
	Runtime   containerruntime.Runtime

	// IsImageAllowed gates every resolved task's docker image against the
	// ALLOWED_DOCKER_IMAGES admission list before any GPU is leased or
	// container created, for both oneoff and session-backed tasks. A nil
	// func allows everything.
	IsImageAllowed func(image string) bool
}

// Request is the inbound task request, mirroring the HTTP body of
// POST /api/tasks/predefined.
type Request struct {
	TaskName       string
	Difficulty     catalog.Difficulty
	TimeoutSeconds int
	Metadata       map[string]any
	SessionID      string
	CreateSession  bool
}

// Handle runs the full pipeline for req and returns the lazy Event sequence
// the HTTP layer streams to the caller. All resource acquisition performed
// before the first event is released on every error path.
func (h *Handler) Handle(ctx context.Context, req Request) iter.Seq[streamer.Event] {
	return func(yield func(streamer.Event) bool) {
		resolved, err := h.Catalog.Resolve(req.TaskName, catalog.Overrides{
			Difficulty:     req.Difficulty,
			TimeoutSeconds: req.TimeoutSeconds,
			Metadata:       req.Metadata,
			SessionID:      req.SessionID,
			CreateSession:  req.CreateSession,
		})
		if err != nil {
			failBeforeStream(yield, err.Error())
			return
		}

		if h.IsImageAllowed != nil && !h.IsImageAllowed(resolved.Action.DockerImage) {
			failBeforeStream(yield, fmt.Sprintf("docker image %q is not in the allowed image list", resolved.Action.DockerImage))
			return
		}

		modelPath := resolved.ModelHostPath
		if resolved.ModelID != "" {
			modelPath, err = h.Cache.Ensure(ctx, resolved.ModelID)
			if err != nil {
				failBeforeStream(yield, err.Error())
				return
			}
		}

		deadline := time.Duration(resolved.TimeoutSeconds) * time.Second

		switch resolved.Kind {
		case catalog.KindOneoff:
			h.handleOneoff(ctx, resolved, modelPath, deadline, yield)
		default:
			h.handleSession(ctx, resolved, modelPath, yield)
		}
	}
}

func failBeforeStream(yield func(streamer.Event) bool, message string) {
	if !yield(streamer.Connection{Status: "failed", Message: message}) {
		return
	}
	yield(streamer.TaskFinish{Status: "failed", Error: message})
}

func (h *Handler) handleOneoff(ctx context.Context, resolved *catalog.ResolvedTask, modelPath string, deadline time.Duration, yield func(streamer.Event) bool) {
	gpuID, err := h.Allocator.Lease(resolved.Difficulty)
	if err != nil {
		failBeforeStream(yield, err.Error())
		return
	}

	if !yield(streamer.Connection{Status: "allocated", GPUID: gpuID}) {
		h.Allocator.Release(gpuID)
		return
	}

	env := make(map[string]string, len(resolved.Action.EnvVars))
	for k, v := range resolved.Action.EnvVars {
		env[k] = v
	}

	containerID, err := h.Runtime.CreateOneoff(ctx, containerruntime.CreateSpec{
		Image:         resolved.Action.DockerImage,
		Argv:          resolved.Action.Command,
		Env:           env,
		ModelHostPath: modelPath,
		GPUID:         gpuID,
		AutoRemove:    true,
	})
	if err != nil {
		h.Allocator.Release(gpuID)
		message := err.Error()
		yield(streamer.Connection{Status: "failed", Message: message})
		yield(streamer.TaskFinish{Status: "failed", Error: message})
		return
	}

	defer h.Allocator.Release(gpuID)

	for ev := range streamer.Stream(ctx, h.Runtime, containerID, deadline) {
		if !yield(ev) {
			return
		}
	}
}

func (h *Handler) handleSession(ctx context.Context, resolved *catalog.ResolvedTask, modelPath string, yield func(streamer.Event) bool) {
	sess, reused, err := h.Sessions.FindOrCreate(ctx, session.Request{
		SessionID:     resolved.SessionID,
		CreateSession: resolved.CreateSession,
		Difficulty:    resolved.Difficulty,
		ModelID:       resolved.ModelID,
		ModelHostPath: modelPath,
		Action:        resolved.Action,
		Argv:          resolved.Action.Command,
	})
	if err != nil {
		failBeforeStream(yield, err.Error())
		return
	}

	status := "allocated"
	if reused {
		status = "session_found"
	}
	if !yield(streamer.Connection{Status: status, GPUID: sess.GPUID, SessionID: sess.ID}) {
		return
	}

	sink := make(chan streamer.Event, 16)
	done := make(chan struct{})
	cancel := make(chan struct{})
	if err := h.Sessions.Enqueue(sess, &session.QueuedRequest{
		Argv:      resolved.Action.Command,
		Sink:      sink,
		Done:      done,
		Cancelled: cancel,
	}); err != nil {
		message := err.Error()
		yield(streamer.Connection{Status: "failed", Message: message})
		yield(streamer.TaskFinish{Status: "failed", Error: message})
		return
	}

	for {
		select {
		case ev := <-sink:
			if !yield(ev) {
				return
			}
		case <-done:
			for {
				select {
				case ev := <-sink:
					if !yield(ev) {
						return
					}
				default:
					return
				}
			}
		case <-ctx.Done():
			// If the session's dispatcher hasn't reached this request yet,
			// closing cancel withdraws it from the queue; if it already has,
			// this is a no-op and the already-dispatched path above applies.
			close(cancel)
			return
		}
	}
}
