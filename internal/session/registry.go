package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/containerruntime"
	"github.com/gpuorch/gpud/internal/gpuallocator"
	"github.com/gpuorch/gpud/internal/metrics"
	"github.com/gpuorch/gpud/internal/streamer"
	cnserrors "github.com/gpuorch/gpud/pkg/errors"
)

// Request describes a resolved task destined for a session, carrying only
// what Registry needs to find-or-create and enqueue it.
type Request struct {
	SessionID     string
	CreateSession bool
	Difficulty    catalog.Difficulty
	ModelID       string
	ModelHostPath string
	Action        catalog.TaskAction
	Argv          []string
}

// Registry maintains session_id -> *Session and coordinates session
// creation, lookup, enqueue, and kill.
type Registry struct {
	Allocator   *gpuallocator.Allocator
	Runtime     containerruntime.Runtime
	QueueDepth  int
	IdleTimeout time.Duration
	MaxLifetime time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds an empty Registry.
func NewRegistry(allocator *gpuallocator.Allocator, runtime containerruntime.Runtime, queueDepth int, idleTimeout, maxLifetime time.Duration) *Registry {
	return &Registry{
		Allocator:   allocator,
		Runtime:     runtime,
		QueueDepth:  queueDepth,
		IdleTimeout: idleTimeout,
		MaxLifetime: maxLifetime,
		sessions:    map[string]*Session{},
	}
}

// FindOrCreate resolves req against the registry: an explicit SessionID
// looks up and validates; CreateSession scans for a reusable WAITING
// session with the same model id; otherwise a fresh session is created
// (GPU leased, container launched, dispatcher spawned).
func (r *Registry) FindOrCreate(ctx context.Context, req Request) (sess *Session, reused bool, err error) {
	if req.SessionID != "" {
		sess, err := r.lookup(req.SessionID)
		if err != nil {
			return nil, false, err
		}
		return sess, true, nil
	}

	if req.CreateSession {
		if sess := r.findReusable(req.ModelID); sess != nil {
			return sess, true, nil
		}
	}

	sess, err = r.create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return sess, false, nil
}

func (r *Registry) lookup(sessionID string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, cnserrors.NewWithContext(cnserrors.ErrCodeSessionNotFound,
			"session not found", map[string]any{"session_id": sessionID})
	}
	switch sess.Status() {
	case Killed, Initializing:
		return nil, cnserrors.NewWithContext(cnserrors.ErrCodeInvalidSessionState,
			"session is not accepting requests", map[string]any{
				"session_id": sessionID, "status": sess.Status().String(),
			})
	default:
		return sess, nil
	}
}

func (r *Registry) findReusable(modelID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sess := range r.sessions {
		if sess.ModelID == modelID && sess.Status() == Waiting {
			return sess
		}
	}
	return nil
}

func (r *Registry) create(ctx context.Context, req Request) (*Session, error) {
	gpuID, err := r.Allocator.Lease(req.Difficulty)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string, len(req.Action.EnvVars))
	for k, v := range req.Action.EnvVars {
		env[k] = v
	}

	containerID, err := r.Runtime.CreateLongLived(ctx, containerruntime.CreateSpec{
		Image:         req.Action.DockerImage,
		Argv:          req.Action.Command,
		Env:           env,
		ModelHostPath: req.ModelHostPath,
		GPUID:         gpuID,
	})
	if err != nil {
		r.Allocator.Release(gpuID)
		return nil, cnserrors.WrapWithContext(cnserrors.ErrCodeContainerCreateError,
			"creating session container", err, map[string]any{"gpu_id": gpuID})
	}

	now := time.Now()
	sess := newSession(uuid.NewString(), gpuID, req.ModelID, containerID, r.IdleTimeout, r.MaxLifetime, r.QueueDepth, now)
	sess.setStatus(Waiting)

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	go r.dispatch(sess.ID)

	return sess, nil
}

// Enqueue places req onto sess's bounded FIFO queue. Full queues return
// QueueFull without altering last_activity.
func (r *Registry) Enqueue(sess *Session, req *QueuedRequest) error {
	if !sess.enqueue(req, time.Now()) {
		return cnserrors.NewWithContext(cnserrors.ErrCodeQueueFull,
			"session request queue is full", map[string]any{"session_id": sess.ID})
	}
	return nil
}

// Keepalive bumps sess's last_activity to now, extending its idle deadline
// without enqueuing any work.
func (r *Registry) Keepalive(sessionID string) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.touch(time.Now())
	return nil
}

// Get returns the session by id, if present.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// List returns a snapshot slice of all sessions, for the health/listing
// surface.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Kill transitions sess to KILLED, stops and removes its container, releases
// its GPU, and drains its queue with a failed TaskFinish. Idempotent: a
// second Kill on an already-KILLED session is a no-op.
func (r *Registry) Kill(ctx context.Context, sessionID, reason string) {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if !sess.kill() {
		return
	}

	_ = r.Runtime.Stop(ctx, sess.ContainerID, 5*time.Second)
	_ = r.Runtime.Remove(ctx, sess.ContainerID)
	r.Allocator.Release(sess.GPUID)

	drainQueue(sess, reason)
	metrics.SessionQueueDepth.DeleteLabelValues(sessionID)
}

// drainQueue fails every request still buffered on sess.queue. sess.kill
// has already closed the channel, so ranging over it terminates once
// drained instead of blocking.
func drainQueue(sess *Session, reason string) {
	for req := range sess.queue {
		metrics.SessionQueueDepth.WithLabelValues(sess.ID).Dec()
		req.Sink <- streamer.TaskFinish{Status: "failed", Error: reason}
		close(req.Done)
	}
}

// dispatch is the per-session logical worker: it holds only the session id
// and reads the session back from the registry on each iteration, avoiding
// a Session<->dispatcher ownership cycle.
func (r *Registry) dispatch(sessionID string) {
	for {
		sess, ok := r.Get(sessionID)
		if !ok {
			return
		}
		if sess.Status() == Killed {
			return
		}

		req, ok := <-sess.queue
		if !ok {
			return
		}
		metrics.SessionQueueDepth.WithLabelValues(sessionID).Dec()

		sess, ok = r.Get(sessionID)
		if !ok || sess.Status() == Killed {
			if req != nil {
				req.Sink <- streamer.TaskFinish{Status: "failed", Error: "session killed"}
				close(req.Done)
			}
			return
		}

		if requestCancelled(req) {
			close(req.Done)
			continue
		}

		sess.setStatus(Working)
		r.execRequest(sess, req)
		if sess.Status() != Killed {
			sess.setStatus(Waiting)
			sess.touch(time.Now())
		}
		close(req.Done)
	}
}

// requestCancelled reports whether req was withdrawn by its caller before
// dispatch reached it. A nil Cancelled channel (requests built without
// disconnect support, e.g. in tests) never reports cancelled.
func requestCancelled(req *QueuedRequest) bool {
	if req.Cancelled == nil {
		return false
	}
	select {
	case <-req.Cancelled:
		return true
	default:
		return false
	}
}

func (r *Registry) execRequest(sess *Session, req *QueuedRequest) {
	result, err := r.Runtime.Exec(context.Background(), sess.ContainerID, req.Argv)
	if err != nil {
		req.Sink <- streamer.TaskFinish{Status: "failed", Error: err.Error()}
		return
	}
	defer result.Stdout.Close()

	for ev := range readWorkerEvents(result.Stdout) {
		req.Sink <- ev
	}
}
