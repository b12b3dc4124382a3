// Package health tracks the last known status of external connectors.
// It is a diagnostic surface, not a circuit breaker: last write wins, there
// is no TTL, and nothing is persisted across restarts.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/brandscout/brandscout/internal/core/domain"
	"github.com/brandscout/brandscout/internal/platform/observability"
)

// Tracker records per-connector health snapshots.
type Tracker struct {
	mu        sync.RWMutex
	snapshots map[string]domain.ConnectorSnapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		snapshots: make(map[string]domain.ConnectorSnapshot),
	}
}

// MarkOK records a healthy status for the connector.
func (t *Tracker) MarkOK(name string) {
	t.set(domain.ConnectorSnapshot{
		Name:       name,
		Status:     domain.ConnectorOK,
		OccurredAt: time.Now(),
	})
}

// MarkDegraded records a degraded status with the failure reason.
func (t *Tracker) MarkDegraded(name, reason string) {
	t.set(domain.ConnectorSnapshot{
		Name:       name,
		Status:     domain.ConnectorDegraded,
		Reason:     reason,
		OccurredAt: time.Now(),
	})
}

func (t *Tracker) set(snap domain.ConnectorSnapshot) {
	t.mu.Lock()
	t.snapshots[snap.Name] = snap
	degraded := t.countDegradedLocked()
	t.mu.Unlock()

	observability.ConnectorsDegraded.Set(float64(degraded))
}

func (t *Tracker) countDegradedLocked() int {
	count := 0

	for _, snap := range t.snapshots {
		if snap.Status == domain.ConnectorDegraded {
			count++
		}
	}

	return count
}

// Snapshot returns all connector snapshots, sorted by name.
func (t *Tracker) Snapshot() []domain.ConnectorSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.ConnectorSnapshot, 0, len(t.snapshots))
	for _, snap := range t.snapshots {
		out = append(out, snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// DegradedNames returns the names of currently degraded connectors, sorted.
func (t *Tracker) DegradedNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var names []string

	for name, snap := range t.snapshots {
		if snap.Status == domain.ConnectorDegraded {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}
