package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/bus"
	"github.com/peter-kozarec/parity/pkg/common"
)

type Telemetry struct {
	logger *zap.Logger

	quoteEventCounter         int64
	signalEventCounter        int64
	orderAdviceEventCounter   int64
	closeAdviceEventCounter   int64
	orderRejectedEventCounter int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote common.Quote) {
		t.quoteEventCounter++
		handler(ctx, quote)
	}
}

func (t *Telemetry) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.TradeSignal) {
		t.signalEventCounter++
		handler(ctx, signal)
	}
}

func (t *Telemetry) WithOrderAdvice(handler bus.OrderAdviceEventHandler) bus.OrderAdviceEventHandler {
	return func(ctx context.Context, advice common.OrderAdvice) {
		t.orderAdviceEventCounter++
		handler(ctx, advice)
	}
}

func (t *Telemetry) WithCloseAdvice(handler bus.CloseAdviceEventHandler) bus.CloseAdviceEventHandler {
	return func(ctx context.Context, advice common.CloseAdvice) {
		t.closeAdviceEventCounter++
		handler(ctx, advice)
	}
}

func (t *Telemetry) WithOrderRejected(handler bus.OrderRejectedEventHandler) bus.OrderRejectedEventHandler {
	return func(ctx context.Context, rejection common.OrderRejected) {
		t.orderRejectedEventCounter++
		handler(ctx, rejection)
	}
}

func (t *Telemetry) Report() {
	t.logger.Info("telemetry",
		zap.Int64("quote_events", t.quoteEventCounter),
		zap.Int64("signal_events", t.signalEventCounter),
		zap.Int64("order_advice_events", t.orderAdviceEventCounter),
		zap.Int64("close_advice_events", t.closeAdviceEventCounter),
		zap.Int64("order_rejected_events", t.orderRejectedEventCounter))
}
