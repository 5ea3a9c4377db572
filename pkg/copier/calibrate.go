package copier

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/common"
)

// CalibrationEntry is one instrument's view across both brokers.
type CalibrationEntry struct {
	Instrument common.InstrumentID
	Name       string

	SourceLoaded      bool
	DestinationLoaded bool

	SourcePipValue      string
	DestinationPipValue string
	Multiplier          string

	SourceVolumeStep      int64
	DestinationVolumeStep int64
}

// Calibrate probes the configured instrument universe and reports how the
// two brokers' contract specifications line up. Call after Bootstrap; pip
// values for cross-currency instruments need at least one quote to have
// arrived, entries without one report the value as unavailable.
func (e *Engine) Calibrate(ctx context.Context) []CalibrationEntry {

	entries := make([]CalibrationEntry, 0, len(e.cfg.Instruments))

	for _, id := range e.cfg.Instruments {
		if ctx.Err() != nil {
			break
		}

		entry := CalibrationEntry{
			Instrument: id,
			Name:       e.source.InstrumentName(id),
		}

		if reference, err := e.source.Instrument(id); err == nil {
			entry.SourceLoaded = true
			entry.SourceVolumeStep = reference.VolumeStep
		}
		if reference, err := e.destination.Instrument(id); err == nil {
			entry.DestinationLoaded = true
			entry.DestinationVolumeStep = reference.VolumeStep
		}

		entry.SourcePipValue = "unavailable"
		entry.DestinationPipValue = "unavailable"
		entry.Multiplier = "fallback"

		if pair, err := e.calculator.Pair(id); err == nil {
			entry.SourcePipValue = pair.SourcePipValue.String()
			entry.DestinationPipValue = pair.DestinationPipValue.String()
			entry.Multiplier = pair.SourcePipValue.
				Div(pair.DestinationPipValue).
				Mul(e.cfg.GlobalRiskRatio).
				String()
		}

		e.logger.Info("calibration",
			zap.Int64("instrument", entry.Instrument),
			zap.String("name", entry.Name),
			zap.Bool("source_loaded", entry.SourceLoaded),
			zap.Bool("destination_loaded", entry.DestinationLoaded),
			zap.String("source_pip_value", entry.SourcePipValue),
			zap.String("destination_pip_value", entry.DestinationPipValue),
			zap.String("multiplier", entry.Multiplier),
			zap.Int64("source_volume_step", entry.SourceVolumeStep),
			zap.Int64("destination_volume_step", entry.DestinationVolumeStep))

		entries = append(entries, entry)
	}

	return entries
}
