package copier

import (
	"testing"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

func newTestTracker() *RatioTracker {
	return NewRatioTracker(zap.NewNop(), 1000)
}

func TestRatioTracker_RecordOpenStoresRatio(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 2000, 2127)

	ratio := tracker.Ratio(1)
	if !ratio.Eq(fixed.FromFloat64(1.0635)) {
		t.Errorf("ratio = %s; want 1.0635", ratio.String())
	}
	if tracker.State(1) != LifecycleOpen {
		t.Errorf("state = %v; want open", tracker.State(1))
	}
}

func TestRatioTracker_DefaultRatioIsOne(t *testing.T) {
	tracker := newTestTracker()

	ratio := tracker.Ratio(7)
	if !ratio.Eq(fixed.One) {
		t.Errorf("ratio = %s; want 1", ratio.String())
	}
}

func TestRatioTracker_ReopenOverwritesRatio(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 2000, 4000)
	tracker.RecordClose(1, true)
	tracker.RecordOpen(1, 2000, 1000)

	ratio := tracker.Ratio(1)
	if !ratio.Eq(fixed.FromFloat64(0.5)) {
		t.Errorf("ratio = %s; want 0.5", ratio.String())
	}
}

func TestRatioTracker_RatioSurvivesFullClose(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 2000, 4000)
	tracker.RecordClose(1, true)

	if tracker.State(1) != LifecycleNoPosition {
		t.Errorf("state = %v; want no-position", tracker.State(1))
	}

	// An out-of-order close after the flat period still gets the last ratio.
	ratio := tracker.Ratio(1)
	if !ratio.Eq(fixed.FromFloat64(2.0)) {
		t.Errorf("ratio = %s; want 2", ratio.String())
	}
}

func TestRatioTracker_PartialCloseLifecycle(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 2000, 2000)
	tracker.RecordClose(1, false)

	if tracker.State(1) != LifecyclePartiallyClosed {
		t.Errorf("state = %v; want partially-closed", tracker.State(1))
	}
}

func TestRatioTracker_ZeroOriginalVolumeIgnored(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 0, 2000)

	if !tracker.Ratio(1).Eq(fixed.One) {
		t.Error("ratio stored from a zero original volume")
	}
}

func TestRoundCloseVolume(t *testing.T) {
	tests := []struct {
		name          string
		rawTarget     int64
		step          int64
		currentVolume int64
		want          int64
	}{
		{"multiple of step", 3000, 1000, 10000, 3000},
		{"floors to step", 1060, 1000, 10000, 1000},
		{"below one step", 750, 1000, 10000, 0},
		{"remainder snaps to full close", 4500, 1000, 5000, 5000},
		{"exact full close", 5000, 1000, 5000, 5000},
		{"zero step uses min lot", 2500, 0, 10000, 2000},
		{"negative step uses min lot", 2500, -1, 10000, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCloseVolume(tt.rawTarget, tt.step, tt.currentVolume, 1000)
			if got != tt.want {
				t.Errorf("RoundCloseVolume(%d, %d, %d, 1000) = %d; want %d",
					tt.rawTarget, tt.step, tt.currentVolume, got, tt.want)
			}
		})
	}
}

func TestCloseVolume_ScaledBelowStepClosesNothing(t *testing.T) {
	tracker := newTestTracker()

	// Ratio 0.5; a source close of 1500 targets 750, which floors below one
	// broker increment while the remaining position is larger than a step.
	tracker.RecordOpen(1, 3000, 1500)

	got := tracker.CloseVolume(1, 1500, 1000, 2000)
	if got != 0 {
		t.Errorf("close volume = %d; want 0", got)
	}
}

func TestCloseVolume_FractionalTargetFloors(t *testing.T) {
	tracker := newTestTracker()

	// Ratio 1.5; 501*1.5 = 751.5 must floor to 751, not round to 752.
	tracker.RecordOpen(1, 2000, 3000)

	got := tracker.CloseVolume(1, 501, 1, 10000)
	if got != 751 {
		t.Errorf("close volume = %d; want 751", got)
	}
}

func TestCloseVolume_PartialCloseScales(t *testing.T) {
	tracker := newTestTracker()

	tracker.RecordOpen(1, 2000, 4000) // ratio 2.0

	got := tracker.CloseVolume(1, 1000, 1000, 10000)
	if got != 2000 {
		t.Errorf("close volume = %d; want 2000", got)
	}
}
