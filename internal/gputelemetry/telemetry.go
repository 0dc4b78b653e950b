// Package gputelemetry provides the narrow GpuTelemetry collaborator
// interface and an nvidia-smi-backed implementation of it.
package gputelemetry

import "context"

// Reading is one GPU's point-in-time telemetry snapshot.
type Reading struct {
	ID       string
	MemUsed  int64 // MB
	MemTotal int64 // MB
	TempC    int
	UtilPct  int
}

// Provider is the narrow external collaborator the allocator refreshes
// against. A failed Snapshot degrades the allocator's cached readings but
// never blocks or fails a lease.
type Provider interface {
	Snapshot(ctx context.Context) ([]Reading, error)
}
