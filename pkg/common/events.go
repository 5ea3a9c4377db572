package common

import (
	"time"

	"github.com/peter-kozarec/parity/pkg/utility"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

type Quote struct {
	Account    AccountID    `json:"account"`
	Instrument InstrumentID `json:"instrument"`
	Bid        fixed.Point  `json:"bid"`
	Ask        fixed.Point  `json:"ask"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type SignalKind int

const (
	SignalOpen SignalKind = iota
	SignalClose
)

func (k SignalKind) String() string {
	if k == SignalClose {
		return "close"
	}
	return "open"
}

// TradeSignal is one normalized source-account execution. Volume is in
// micro-units of a lot. StopLoss and TakeProfit are zero when the execution
// carried none.
type TradeSignal struct {
	Kind       SignalKind   `json:"kind"`
	Instrument InstrumentID `json:"instrument"`
	Side       Side         `json:"side"`
	Volume     int64        `json:"volume"`
	Price      fixed.Point  `json:"price"`
	StopLoss   fixed.Point  `json:"stop_loss"`
	TakeProfit fixed.Point  `json:"take_profit"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// OrderAdvice is the engine's decision to mirror an open on the destination
// account.
type OrderAdvice struct {
	Instrument InstrumentID `json:"instrument"`
	Side       Side         `json:"side"`
	Volume     int64        `json:"volume"`
	StopLoss   fixed.Point  `json:"stop_loss"`
	TakeProfit fixed.Point  `json:"take_profit"`
	Multiplier fixed.Point  `json:"multiplier"`
	Comment    string       `json:"comment,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// CloseAdvice is the engine's decision to close volume of a destination
// position.
type CloseAdvice struct {
	Instrument   InstrumentID `json:"instrument"`
	Position     PositionID   `json:"position"`
	Volume       int64        `json:"volume"`
	SourceVolume int64        `json:"source_volume"`
	Ratio        fixed.Point  `json:"ratio"`
	Step         int64        `json:"step"`
	Full         bool         `json:"full"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderRejected struct {
	Instrument InstrumentID `json:"instrument"`
	Reason     string       `json:"reason"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
