package health

import (
	"testing"

	"github.com/brandscout/brandscout/internal/core/domain"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	tracker.MarkOK("searxng")
	tracker.MarkDegraded("browser", "launch failed")
	tracker.MarkDegraded("subprocess", "timeout")

	snaps := tracker.Snapshot()
	if len(snaps) != 3 {
		t.Fatalf("Snapshot = %d entries, want 3", len(snaps))
	}

	// Snapshot is sorted by connector name.
	for i := 1; i < len(snaps); i++ {
		if snaps[i-1].Name > snaps[i].Name {
			t.Errorf("snapshot unsorted: %q before %q", snaps[i-1].Name, snaps[i].Name)
		}
	}

	degraded := tracker.DegradedNames()
	if len(degraded) != 2 {
		t.Fatalf("DegradedNames = %v, want 2", degraded)
	}

	// Recovery overwrites the degraded state.
	tracker.MarkOK("browser")

	degraded = tracker.DegradedNames()
	if len(degraded) != 1 || degraded[0] != "subprocess" {
		t.Errorf("DegradedNames = %v, want only subprocess", degraded)
	}

	for _, snap := range tracker.Snapshot() {
		if snap.Name == "browser" && snap.Status != domain.ConnectorOK {
			t.Errorf("browser status = %q, want ok after recovery", snap.Status)
		}
	}
}
