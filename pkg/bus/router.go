package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/peter-kozarec/parity/pkg/common"
)

type event struct {
	id   EventId
	data interface{}
}

// Router is a single-threaded event dispatcher. All handlers run on the
// goroutine executing Exec, so handler state needs no locking.
type Router struct {
	events chan event

	OnQuote         QuoteEventHandler
	OnSignal        SignalEventHandler
	OnOrderAdvice   OrderAdviceEventHandler
	OnCloseAdvice   CloseAdviceEventHandler
	OnOrderRejected OrderRejectedEventHandler

	startTime     time.Time
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		events: make(chan event, eventCapacity),
	}
}

func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return errors.New("event capacity reached")
	}
}

func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	r.startTime = time.Now()
	r.postCount.Store(0)
	r.postFails.Store(0)
	r.dispatchCount.Store(0)
	r.dispatchFails.Store(0)

	go func() {
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount.Add(1)
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails.Add(1)
					slog.Warn("dispatch failed", "error", err, "event_id", ev.id)
				}
			}
		}
	}()

	return done
}

func (r *Router) Statistics() Statistics {
	runTime := time.Since(r.startTime)
	return Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
		Throughput:    float64(r.postCount.Load()) / runTime.Seconds(),
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case QuoteEvent:
		quote, ok := ev.data.(common.Quote)
		if !ok {
			return errors.New("invalid type assertion for quote event")
		}
		if r.OnQuote != nil {
			r.OnQuote(ctx, quote)
		} else {
			slog.Debug("quote handler is nil")
		}
	case SignalEvent:
		signal, ok := ev.data.(common.TradeSignal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		if r.OnSignal != nil {
			r.OnSignal(ctx, signal)
		} else {
			slog.Debug("signal handler is nil")
		}
	case OrderAdviceEvent:
		advice, ok := ev.data.(common.OrderAdvice)
		if !ok {
			return errors.New("invalid type assertion for order advice event")
		}
		if r.OnOrderAdvice != nil {
			r.OnOrderAdvice(ctx, advice)
		} else {
			slog.Debug("order advice handler is nil")
		}
	case CloseAdviceEvent:
		advice, ok := ev.data.(common.CloseAdvice)
		if !ok {
			return errors.New("invalid type assertion for close advice event")
		}
		if r.OnCloseAdvice != nil {
			r.OnCloseAdvice(ctx, advice)
		} else {
			slog.Debug("close advice handler is nil")
		}
	case OrderRejectedEvent:
		rejection, ok := ev.data.(common.OrderRejected)
		if !ok {
			return errors.New("invalid type assertion for order rejected event")
		}
		if r.OnOrderRejected != nil {
			r.OnOrderRejected(ctx, rejection)
		} else {
			slog.Debug("order rejected handler is nil")
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
