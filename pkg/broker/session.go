package broker

import (
	"context"

	"github.com/peter-kozarec/parity/pkg/common"
)

// Session is the abstract trading-platform boundary. Implementations own the
// transport, the wire encoding and the heartbeat; the copier core only issues
// requests and consumes the two streams.
//
// Requests block the calling goroutine until the correlated response arrives
// or ctx is done. Stream handlers are invoked from the session's read
// goroutine; consumers are expected to hand the payload off to their own
// dispatch loop.
type Session interface {
	AuthorizeApplication(ctx context.Context) error
	AuthorizeAccount(ctx context.Context, account common.AccountID) error
	AccountList(ctx context.Context) ([]common.AccountID, error)

	AssetList(ctx context.Context, account common.AccountID) ([]AssetInfo, error)
	TraderInfo(ctx context.Context, account common.AccountID) (TraderInfo, error)
	InstrumentReferences(ctx context.Context, account common.AccountID, instruments []common.InstrumentID) ([]InstrumentReference, error)

	SubscribeSpots(ctx context.Context, account common.AccountID, instruments []common.InstrumentID) error

	ListOpenPositions(ctx context.Context, account common.AccountID) ([]PositionSnapshot, error)
	SubmitOpenOrder(ctx context.Context, req OpenOrderRequest) error
	SubmitClosePosition(ctx context.Context, req ClosePositionRequest) error

	OnExecution(handler func(ExecutionNotice))
	OnSpot(handler func(SpotQuote))
}
