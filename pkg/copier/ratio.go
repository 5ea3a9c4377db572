package copier

import (
	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// LifecycleState is the per-instrument replication lifecycle:
// NoPosition -> Open -> PartiallyClosed* -> NoPosition.
type LifecycleState int

const (
	LifecycleNoPosition LifecycleState = iota
	LifecycleOpen
	LifecyclePartiallyClosed
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleOpen:
		return "open"
	case LifecyclePartiallyClosed:
		return "partially-closed"
	default:
		return "no-position"
	}
}

type instrumentTrack struct {
	state    LifecycleState
	ratio    fixed.Point
	ratioSet bool
}

// RatioTracker remembers, per instrument, the volume ratio applied when the
// position was opened, so later partial closes scale consistently. The ratio
// survives a full close until the next open overwrites it; a close is only
// guaranteed consistent with the most recent open of that instrument.
type RatioTracker struct {
	logger *zap.Logger

	minLotSize int64
	tracks     map[common.InstrumentID]*instrumentTrack
}

func NewRatioTracker(logger *zap.Logger, minLotSize int64) *RatioTracker {
	return &RatioTracker{
		logger:     logger,
		minLotSize: minLotSize,
		tracks:     make(map[common.InstrumentID]*instrumentTrack),
	}
}

// RecordOpen stores adjustedVolume/originalVolume, overwriting any prior
// ratio for the instrument.
func (t *RatioTracker) RecordOpen(id common.InstrumentID, originalVolume, adjustedVolume int64) {
	if originalVolume <= 0 {
		return
	}

	track := t.track(id)
	track.ratio = fixed.FromInt64(adjustedVolume, 0).DivInt64(originalVolume)
	track.ratioSet = true
	track.state = LifecycleOpen

	t.logger.Debug("replication ratio stored",
		zap.Int64("instrument", id),
		zap.String("ratio", track.ratio.String()))
}

// Ratio returns the stored ratio, 1.0 when none was ever stored. A close
// arriving before its open's ratio was recorded gets the 1.0 default; the
// event stream carries no ordering guarantee across the session boundary.
func (t *RatioTracker) Ratio(id common.InstrumentID) fixed.Point {
	track, ok := t.tracks[id]
	if !ok || !track.ratioSet {
		t.logger.Warn("no replication ratio stored, defaulting to 1.0",
			zap.Int64("instrument", id))
		return fixed.One
	}
	if track.state == LifecycleNoPosition {
		t.logger.Debug("reusing ratio stored before a flat period",
			zap.Int64("instrument", id),
			zap.String("ratio", track.ratio.String()))
	}
	return track.ratio
}

// CloseVolume computes the destination volume to close for an observed source
// close of sourceVolume micro-units.
//
// The raw target floor(sourceVolume*ratio) is rounded down to the broker's
// volume step (the configured minimum lot substitutes for a missing or
// non-positive step). If the remainder after closing would be at most one
// step, the whole position closes instead of stranding an untradeable rest.
// A zero result means no close should be issued at all.
func (t *RatioTracker) CloseVolume(id common.InstrumentID, sourceVolume, step, currentVolume int64) int64 {

	ratio := t.Ratio(id)

	rawTarget := fixed.FromInt64(sourceVolume, 0).Mul(ratio).Int64()
	volumeToClose := RoundCloseVolume(rawTarget, step, currentVolume, t.minLotSize)

	t.logger.Debug("close volume computed",
		zap.Int64("instrument", id),
		zap.Int64("source_volume", sourceVolume),
		zap.String("ratio", ratio.String()),
		zap.Int64("raw_target", rawTarget),
		zap.Int64("step", step),
		zap.Int64("current_volume", currentVolume),
		zap.Int64("volume_to_close", volumeToClose))

	return volumeToClose
}

// RoundCloseVolume rounds a raw close target down to the nearest allowed
// broker increment. A missing or non-positive step falls back to minLotSize.
// When the remainder after closing would be at most one step the whole
// position closes instead.
func RoundCloseVolume(rawTarget, step, currentVolume, minLotSize int64) int64 {
	if step <= 0 {
		step = minLotSize
	}

	volumeToClose := rawTarget / step * step

	if currentVolume-volumeToClose <= step {
		volumeToClose = currentVolume
	}
	return volumeToClose
}

// RecordClose advances the lifecycle. The ratio itself is deliberately left
// in place on a full close; the next open overwrites it.
func (t *RatioTracker) RecordClose(id common.InstrumentID, full bool) {
	track := t.track(id)
	if full {
		track.state = LifecycleNoPosition
	} else {
		track.state = LifecyclePartiallyClosed
	}
}

func (t *RatioTracker) State(id common.InstrumentID) LifecycleState {
	track, ok := t.tracks[id]
	if !ok {
		return LifecycleNoPosition
	}
	return track.state
}

func (t *RatioTracker) track(id common.InstrumentID) *instrumentTrack {
	track, ok := t.tracks[id]
	if !ok {
		track = &instrumentTrack{}
		t.tracks[id] = track
	}
	return track
}
