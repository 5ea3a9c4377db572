package copier

import (
	"context"
	"time"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// OpenRecord is the audit trail of one replicated open.
type OpenRecord struct {
	TraceID        utility.TraceID
	Instrument     common.InstrumentID
	InstrumentName string
	Side           common.Side
	SourceVolume   int64
	AdjustedVolume int64
	Multiplier     fixed.Point
	Mode           AdjustMode
	At             time.Time
}

// CloseRecord is the audit trail of one replicated close decision, including
// decisions rounded down to zero that issued no request.
type CloseRecord struct {
	TraceID        utility.TraceID
	Instrument     common.InstrumentID
	InstrumentName string
	Position       common.PositionID
	SourceVolume   int64
	ClosedVolume   int64
	Ratio          fixed.Point
	Step           int64
	Full           bool
	At             time.Time
}

// Journal implementations must be safe for concurrent use; zero-rounded
// close decisions are recorded off the dispatch goroutine.
type Journal interface {
	RecordOpen(ctx context.Context, record OpenRecord) error
	RecordClose(ctx context.Context, record CloseRecord) error
}

type NoopJournal struct{}

func (NoopJournal) RecordOpen(context.Context, OpenRecord) error   { return nil }
func (NoopJournal) RecordClose(context.Context, CloseRecord) error { return nil }
