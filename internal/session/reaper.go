package session

import (
	"context"
	"time"
)

// Reaper wakes every interval and kills sessions that have exceeded their
// idle timeout or max lifetime. Kill decisions are collected from a
// read-only snapshot first, then applied, so the registry is never mutated
// mid-scan.
type Reaper struct {
	Registry *Registry
	Interval time.Duration
}

// NewReaper builds a Reaper over registry, waking every interval.
func NewReaper(registry *Registry, interval time.Duration) *Reaper {
	return &Reaper{Registry: registry, Interval: interval}
}

// Run blocks, reaping on each tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reapOnce(ctx)
		}
	}
}

type killDecision struct {
	sessionID string
	reason    string
}

// reapOnce performs one scan-then-kill pass.
func (r *Reaper) reapOnce(ctx context.Context) {
	now := time.Now()
	var decisions []killDecision

	for _, sess := range r.Registry.List() {
		if sess.Status() == Killed {
			continue
		}
		age := now.Sub(sess.CreatedAt)
		if age > sess.MaxLifetime {
			decisions = append(decisions, killDecision{sess.ID, "max_lifetime"})
			continue
		}
		if sess.Status() == Waiting && now.Sub(sess.LastActivity()) > sess.IdleTimeout {
			decisions = append(decisions, killDecision{sess.ID, "idle_timeout"})
		}
	}

	for _, d := range decisions {
		r.Registry.Kill(ctx, d.sessionID, d.reason)
	}
}
