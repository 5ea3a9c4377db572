package copier

import (
	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// AdjustMode records which path produced a destination volume.
type AdjustMode string

const (
	AdjustPipParity AdjustMode = "pip-parity"
	AdjustFallback  AdjustMode = "fallback"
)

// VolumeAdjuster turns a source order volume into a risk-equivalent
// destination volume.
type VolumeAdjuster struct {
	logger *zap.Logger

	calculator *PipValueCalculator
	cfg        Configuration
}

func NewVolumeAdjuster(logger *zap.Logger, calculator *PipValueCalculator, cfg Configuration) *VolumeAdjuster {
	return &VolumeAdjuster{
		logger:     logger,
		calculator: calculator,
		cfg:        cfg,
	}
}

// Adjust never fails. When pip values are unavailable on either side it
// degrades to the configured static multipliers.
func (a *VolumeAdjuster) Adjust(id common.InstrumentID, originalVolume int64) (int64, fixed.Point, AdjustMode) {

	pair, err := a.calculator.Pair(id)
	if err != nil {
		a.logger.Debug("pip values unavailable, using fallback multiplier",
			zap.Int64("instrument", id), zap.Error(err))
		multiplier := a.fallbackMultiplier(id)
		return a.apply(originalVolume, multiplier), multiplier, AdjustFallback
	}

	multiplier := pair.SourcePipValue.
		Div(pair.DestinationPipValue).
		Mul(a.cfg.GlobalRiskRatio)
	multiplier = fixed.ClampPoint(multiplier, minMultiplier, a.cfg.MaxLotMultiplier)

	adjusted := a.apply(originalVolume, multiplier)

	a.logger.Info("volume adjusted",
		zap.Int64("instrument", id),
		zap.Int64("original_volume", originalVolume),
		zap.Int64("adjusted_volume", adjusted),
		zap.String("multiplier", multiplier.String()),
		zap.String("source_pip_value", pair.SourcePipValue.String()),
		zap.String("destination_pip_value", pair.DestinationPipValue.String()))

	return adjusted, multiplier, AdjustPipParity
}

func (a *VolumeAdjuster) fallbackMultiplier(id common.InstrumentID) fixed.Point {
	if !a.cfg.GlobalOverrideMultiplier.IsZero() {
		return a.cfg.GlobalOverrideMultiplier
	}
	if multiplier, ok := a.cfg.PerInstrumentFallbackMultiplier[id]; ok && !multiplier.IsZero() {
		return multiplier
	}
	return a.cfg.DefaultFallbackMultiplier
}

func (a *VolumeAdjuster) apply(originalVolume int64, multiplier fixed.Point) int64 {
	adjusted := fixed.FromInt64(originalVolume, 0).Mul(multiplier).Rescale(0).Int64()
	if adjusted < a.cfg.MinLotSize {
		adjusted = a.cfg.MinLotSize
	}
	return adjusted
}
