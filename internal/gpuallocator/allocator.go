// Package gpuallocator holds the fixed set of GPU devices configured at
// startup and leases/releases them by difficulty class under a single
// exclusive critical section.
package gpuallocator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/gputelemetry"
	"github.com/gpuorch/gpud/internal/metrics"
	cnserrors "github.com/gpuorch/gpud/pkg/errors"
)

// Telemetry is one GPU's last-known telemetry snapshot. Zero value means no
// reading has landed yet.
type Telemetry struct {
	MemUsedMB  int64
	MemTotalMB int64
	TempC      int
	UtilPct    int
	ObservedAt time.Time
}

// GpuDevice is one configured GPU slot.
type GpuDevice struct {
	ID         string
	Difficulty catalog.Difficulty
	Available  bool

	mu        sync.Mutex
	telemetry Telemetry
}

func (d *GpuDevice) setTelemetry(t Telemetry) {
	d.mu.Lock()
	d.telemetry = t
	d.mu.Unlock()
}

func (d *GpuDevice) getTelemetry() Telemetry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.telemetry
}

// DeviceSnapshot is a read-only copy of one device's state for health/listing.
type DeviceSnapshot struct {
	ID         string
	Difficulty catalog.Difficulty
	Available  bool
	Telemetry  Telemetry
}

// Allocator owns the fixed list of GpuDevice built at startup. Lease and
// Release are mutually exclusive with themselves and each other via mu;
// telemetry refresh runs independently against each device's own lock and
// never touches mu, so a Snapshot call is never blocked by a telemetry fetch.
type Allocator struct {
	mu      sync.Mutex
	devices []*GpuDevice

	telemetry   gputelemetry.Provider
	refreshOnce sync.Once
}

// New builds an Allocator from an ordered id/difficulty pairing, e.g. decoded
// from GPU_DEVICE_IDS / GPU_DEVICE_DIFFICULTY. Devices are kept sorted by
// ascending id (numerically when both ids are integers).
func New(devices []DeviceSpec, telemetry gputelemetry.Provider) *Allocator {
	a := &Allocator{telemetry: telemetry}
	for _, spec := range devices {
		a.devices = append(a.devices, &GpuDevice{
			ID:         spec.ID,
			Difficulty: spec.Difficulty,
			Available:  true,
		})
	}
	sort.SliceStable(a.devices, func(i, j int) bool {
		x, errX := strconv.Atoi(a.devices[i].ID)
		y, errY := strconv.Atoi(a.devices[j].ID)
		if errX == nil && errY == nil {
			return x < y
		}
		return a.devices[i].ID < a.devices[j].ID
	})
	return a
}

// DeviceSpec is the startup configuration for one GPU.
type DeviceSpec struct {
	ID         string
	Difficulty catalog.Difficulty
}

// Lease atomically scans devices of the requested difficulty in ascending id
// order and returns the first available one, marking it leased. Returns
// ErrCodeCapacityFull if none are free.
func (a *Allocator) Lease(difficulty catalog.Difficulty) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, d := range a.devices {
		if d.Difficulty == difficulty && d.Available {
			d.Available = false
			metrics.GPULeasesTotal.WithLabelValues(string(difficulty)).Inc()
			return d.ID, nil
		}
	}

	return "", cnserrors.NewWithContext(cnserrors.ErrCodeCapacityFull,
		fmt.Sprintf("no %s-difficulty GPU available", difficulty),
		map[string]any{"difficulty": string(difficulty)})
}

// Release marks gpuID available again. Idempotent: releasing an
// already-available or unknown id is a no-op.
func (a *Allocator) Release(gpuID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, d := range a.devices {
		if d.ID == gpuID {
			d.Available = true
			metrics.GPUReleasesTotal.WithLabelValues(string(d.Difficulty)).Inc()
			return
		}
	}
}

// Snapshot returns a read-only copy of every device's state.
func (a *Allocator) Snapshot() []DeviceSnapshot {
	a.mu.Lock()
	devices := make([]*GpuDevice, len(a.devices))
	copy(devices, a.devices)
	a.mu.Unlock()

	out := make([]DeviceSnapshot, 0, len(devices))
	for _, d := range devices {
		a.mu.Lock()
		avail := d.Available
		a.mu.Unlock()
		out = append(out, DeviceSnapshot{
			ID:         d.ID,
			Difficulty: d.Difficulty,
			Available:  avail,
			Telemetry:  d.getTelemetry(),
		})
	}
	return out
}

// StartTelemetryRefresh runs Provider.Snapshot on a ticker until ctx is
// canceled, writing results into each device's own telemetry field. A failed
// or empty refresh is skipped without logging and the previous readings stay
// in place, so a stale or missing reading never blocks or fails a lease.
func (a *Allocator) StartTelemetryRefresh(ctx context.Context, interval time.Duration) {
	if a.telemetry == nil {
		return
	}
	a.refreshOnce.Do(func() {
		go a.refreshLoop(ctx, interval)
	})
}

func (a *Allocator) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pollTelemetry(ctx)
		}
	}
}

func (a *Allocator) pollTelemetry(ctx context.Context) {
	readings, err := a.telemetry.Snapshot(ctx)
	if err != nil || readings == nil {
		return
	}

	byID := make(map[string]gputelemetry.Reading, len(readings))
	for _, r := range readings {
		byID[r.ID] = r
	}

	a.mu.Lock()
	devices := make([]*GpuDevice, len(a.devices))
	copy(devices, a.devices)
	a.mu.Unlock()

	now := time.Now()
	for _, d := range devices {
		r, ok := byID[d.ID]
		if !ok {
			continue
		}
		d.setTelemetry(Telemetry{
			MemUsedMB:  r.MemUsed,
			MemTotalMB: r.MemTotal,
			TempC:      r.TempC,
			UtilPct:    r.UtilPct,
			ObservedAt: now,
		})
	}
}
