package broker

import (
	"github.com/peter-kozarec/parity/pkg/common"
)

type ExecutionType int

const (
	ExecutionUnspecified ExecutionType = iota
	ExecutionOrderAccepted
	ExecutionOrderFilled
	ExecutionOrderPartialFill
	ExecutionOrderCancelled
	ExecutionOrderExpired
	ExecutionOrderRejected
)

func (t ExecutionType) IsFill() bool {
	return t == ExecutionOrderFilled || t == ExecutionOrderPartialFill
}

func (t ExecutionType) String() string {
	switch t {
	case ExecutionOrderAccepted:
		return "order-accepted"
	case ExecutionOrderFilled:
		return "order-filled"
	case ExecutionOrderPartialFill:
		return "order-partial-fill"
	case ExecutionOrderCancelled:
		return "order-cancelled"
	case ExecutionOrderExpired:
		return "order-expired"
	case ExecutionOrderRejected:
		return "order-rejected"
	default:
		return "unspecified"
	}
}

type TradeData struct {
	Instrument common.InstrumentID
	Side       common.Side
	Volume     int64
}

type OrderNotice struct {
	ClosingOrder bool
	TradeData    *TradeData

	// StopLoss and TakeProfit are raw fixed-point prices, scale 10^digits
	// of the instrument. Nil when the order carries no protection.
	StopLoss   *int64
	TakeProfit *int64
}

type DealNotice struct {
	Instrument common.InstrumentID
	Side       common.Side
	Volume     int64

	// ClosePositionDetail is nil when the broker omitted it entirely. Brokers
	// routinely send it present but empty, which must not read as a close.
	ClosePositionDetail *string
}

// ExecutionNotice is one raw trade-execution notification. Order and Deal are
// optional sub-records with overlapping fields; the top-level trade fields are
// a last-resort fallback and are zero when absent.
type ExecutionNotice struct {
	Account common.AccountID
	Type    ExecutionType

	Order *OrderNotice
	Deal  *DealNotice

	Instrument common.InstrumentID
	Side       common.Side
	Volume     int64
}

// SpotQuote carries raw fixed-point prices, scale 10^digits of the
// instrument. A zero bid or ask means the feed omitted that side.
type SpotQuote struct {
	Account    common.AccountID
	Instrument common.InstrumentID
	Bid        uint64
	Ask        uint64
}
