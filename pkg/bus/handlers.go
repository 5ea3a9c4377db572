package bus

import (
	"context"

	"github.com/peter-kozarec/parity/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type QuoteEventHandler EventHandler[common.Quote]
type SignalEventHandler EventHandler[common.TradeSignal]
type OrderAdviceEventHandler EventHandler[common.OrderAdvice]
type CloseAdviceEventHandler EventHandler[common.CloseAdvice]
type OrderRejectedEventHandler EventHandler[common.OrderRejected]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
