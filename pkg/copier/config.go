package copier

import (
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// Configuration holds the replication options. Multipliers are dimensionless
// scalars; volumes are micro-units of a lot.
type Configuration struct {
	SourceAccount      common.AccountID
	DestinationAccount common.AccountID

	// Instruments is the universe to load and subscribe on both accounts.
	Instruments []common.InstrumentID

	// GlobalRiskRatio scales the pip-value parity multiplier. 1.0 is equal
	// dollar risk.
	GlobalRiskRatio fixed.Point

	MinLotSize       int64
	MaxLotMultiplier fixed.Point

	// Fallback multipliers, used when pip values are unavailable. A non-zero
	// GlobalOverrideMultiplier short-circuits the per-instrument table and the
	// default.
	PerInstrumentFallbackMultiplier map[common.InstrumentID]fixed.Point
	DefaultFallbackMultiplier       fixed.Point
	GlobalOverrideMultiplier        fixed.Point

	OrderComment string
}

// minMultiplier is the hard floor of the parity multiplier clamp.
var minMultiplier = fixed.New(1, 3)

func (c Configuration) withDefaults() Configuration {
	if c.GlobalRiskRatio.IsZero() {
		c.GlobalRiskRatio = fixed.One
	}
	if c.MinLotSize <= 0 {
		c.MinLotSize = 1000
	}
	if c.MaxLotMultiplier.IsZero() {
		c.MaxLotMultiplier = fixed.Ten
	}
	if c.DefaultFallbackMultiplier.IsZero() {
		c.DefaultFallbackMultiplier = fixed.One
	}
	if c.OrderComment == "" {
		c.OrderComment = "copied from source"
	}
	return c
}
