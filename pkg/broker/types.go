package broker

import (
	"github.com/peter-kozarec/parity/pkg/common"
)

// InstrumentReference is broker-reported instrument metadata. The source and
// destination brokers keep independent copies even for the same instrument.
type InstrumentReference struct {
	ID           common.InstrumentID
	Name         string
	Digits       int
	PipPosition  int
	LotSize      int64
	BaseAssetID  common.AssetID
	QuoteAssetID common.AssetID
	VolumeStep   int64
}

type AssetInfo struct {
	ID     common.AssetID
	Name   string
	Digits int
}

type TraderInfo struct {
	DepositAssetID common.AssetID
	Balance        int64
	MoneyDigits    int
}

type PositionSnapshot struct {
	ID         common.PositionID
	Instrument common.InstrumentID
	Side       common.Side
	Volume     int64
}

// OpenOrderRequest is a wire-shaped market order. StopLoss and TakeProfit are
// in the feed's fixed-point representation, nil when unset.
type OpenOrderRequest struct {
	Account    common.AccountID
	Instrument common.InstrumentID
	Side       common.Side
	Volume     int64
	StopLoss   *int64
	TakeProfit *int64
	Comment    string
}

type ClosePositionRequest struct {
	Account  common.AccountID
	Position common.PositionID
	Volume   int64
}
