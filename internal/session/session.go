// Package session maintains long-lived Session state machines: creation,
// the bounded per-session FIFO dispatcher, and a dual-timeout reaper.
package session

import (
	"sync"
	"time"

	"github.com/gpuorch/gpud/internal/metrics"
	"github.com/gpuorch/gpud/internal/streamer"
)

// Status is a Session's position in the INITIALIZING -> WAITING -> WORKING
// -> KILLED state machine.
type Status int

const (
	Initializing Status = iota
	Waiting
	Working
	Killed
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "INITIALIZING"
	case Waiting:
		return "WAITING"
	case Working:
		return "WORKING"
	case Killed:
		return "KILLED"
	default:
		return "UNKNOWN"
	}
}

// QueuedRequest is one dispatched unit of work waiting on a session's queue.
// Cancelled, if set, is closed by the caller to withdraw the request before
// dispatch has picked it up; dispatch checks it immediately after receiving
// the request off the queue and skips execution if it is already closed.
type QueuedRequest struct {
	Argv      []string
	Sink      chan<- streamer.Event
	Done      chan<- struct{}
	Cancelled <-chan struct{}
}

// Session is a long-lived worker container and its FIFO request queue.
// Field access (other than through Registry's lock-guarded methods) must go
// through the accessor methods below, which take Session's own mutex.
type Session struct {
	ID          string
	GPUID       string
	ModelID     string
	ContainerID string
	CreatedAt   time.Time
	IdleTimeout time.Duration
	MaxLifetime time.Duration

	queue chan *QueuedRequest

	mu           sync.Mutex
	status       Status
	lastActivity time.Time
}

// newSession constructs a Session in INITIALIZING with a queue of the given
// bounded capacity.
func newSession(id, gpuID, modelID, containerID string, idleTimeout, maxLifetime time.Duration, queueDepth int, now time.Time) *Session {
	metrics.SessionStateTransitionsTotal.WithLabelValues(Initializing.String()).Inc()
	return &Session{
		ID:           id,
		GPUID:        gpuID,
		ModelID:      modelID,
		ContainerID:  containerID,
		CreatedAt:    now,
		IdleTimeout:  idleTimeout,
		MaxLifetime:  maxLifetime,
		queue:        make(chan *QueuedRequest, queueDepth),
		status:       Initializing,
		lastActivity: now,
	}
}

// Status returns the session's current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// setStatus transitions the session's state.
func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	metrics.SessionStateTransitionsTotal.WithLabelValues(status.String()).Inc()
}

// kill transitions the session to KILLED and closes its queue, so a
// dispatcher blocked receiving from it wakes and exits. Status and the
// close happen under the same lock as enqueue's status check, so a
// concurrent enqueue either lands before the close (and is drained) or
// sees KILLED and never touches the channel. Returns false if the session
// was already KILLED.
func (s *Session) kill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Killed {
		return false
	}
	s.status = Killed
	close(s.queue)
	return true
}

// LastActivity returns the last time the session accepted a request or a
// keepalive, or finished running a request.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// touch bumps last_activity to now if now is later, preserving monotonicity.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastActivity) {
		s.lastActivity = now
	}
	s.mu.Unlock()
}

// Summary is a read-only, JSON-friendly view of a Session for the listing
// and single-session HTTP endpoints.
type Summary struct {
	ID           string    `json:"session_id"`
	GPUID        string    `json:"gpu_id"`
	ModelID      string    `json:"model_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Summary snapshots the session's current state.
func (s *Session) Summary() Summary {
	return Summary{
		ID:           s.ID,
		GPUID:        s.GPUID,
		ModelID:      s.ModelID,
		Status:       s.Status().String(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity(),
	}
}

// enqueue attempts a non-blocking send onto the session's bounded queue,
// bumping last_activity only on success so a full queue never extends the
// idle window it is about to be reaped for. The status check and the send
// share kill's lock, so enqueue never sends on a queue that kill has
// already closed.
func (s *Session) enqueue(req *QueuedRequest, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Killed || cap(s.queue) == 0 {
		return false
	}
	select {
	case s.queue <- req:
		if now.After(s.lastActivity) {
			s.lastActivity = now
		}
		metrics.SessionQueueDepth.WithLabelValues(s.ID).Inc()
		return true
	default:
		return false
	}
}
