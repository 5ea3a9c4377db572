package middleware

import (
	"context"
	"log/slog"

	"github.com/peter-kozarec/parity/pkg/bus"
	"github.com/peter-kozarec/parity/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorQuotes
	MonitorSignals
	MonitorOrderAdvice
	MonitorCloseAdvice
	MonitorRejections
)

type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) WithQuote(handler bus.QuoteEventHandler) bus.QuoteEventHandler {
	return func(ctx context.Context, quote common.Quote) {
		if m.flags&MonitorQuotes != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "quote", quote)
		}
		handler(ctx, quote)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.TradeSignal) {
		if m.flags&MonitorSignals != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "signal", signal)
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithOrderAdvice(handler bus.OrderAdviceEventHandler) bus.OrderAdviceEventHandler {
	return func(ctx context.Context, advice common.OrderAdvice) {
		if m.flags&MonitorOrderAdvice != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "order_advice", advice)
		}
		handler(ctx, advice)
	}
}

func (m *Monitor) WithCloseAdvice(handler bus.CloseAdviceEventHandler) bus.CloseAdviceEventHandler {
	return func(ctx context.Context, advice common.CloseAdvice) {
		if m.flags&MonitorCloseAdvice != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "close_advice", advice)
		}
		handler(ctx, advice)
	}
}

func (m *Monitor) WithOrderRejected(handler bus.OrderRejectedEventHandler) bus.OrderRejectedEventHandler {
	return func(ctx context.Context, rejection common.OrderRejected) {
		if m.flags&MonitorRejections != 0 || m.flags&MonitorAll != 0 {
			slog.Info("event", "order_rejected", rejection)
		}
		handler(ctx, rejection)
	}
}
