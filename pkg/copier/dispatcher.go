package copier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// Dispatcher translates replication decisions into wire-shaped session
// requests for the destination account. No business logic lives here.
type Dispatcher struct {
	logger *zap.Logger

	session     broker.Session
	destination *AccountContext
}

func NewDispatcher(logger *zap.Logger, session broker.Session, destination *AccountContext) *Dispatcher {
	return &Dispatcher{
		logger:      logger,
		session:     session,
		destination: destination,
	}
}

// DispatchOpen submits a market order for the advised volume. Stop loss and
// take profit are scaled to the feed's fixed-point representation using the
// destination instrument's digits.
func (d *Dispatcher) DispatchOpen(ctx context.Context, advice common.OrderAdvice) error {

	req := broker.OpenOrderRequest{
		Account:    d.destination.ID(),
		Instrument: advice.Instrument,
		Side:       advice.Side,
		Volume:     advice.Volume,
		Comment:    advice.Comment,
	}

	if !advice.StopLoss.IsZero() || !advice.TakeProfit.IsZero() {
		reference, err := d.destination.Instrument(advice.Instrument)
		if err != nil {
			return fmt.Errorf("cannot scale protection prices: %w", err)
		}
		scale := fixed.PowerOfTen(reference.Digits)
		if !advice.StopLoss.IsZero() {
			sl := advice.StopLoss.Mul(scale).Rescale(0).Int64()
			req.StopLoss = &sl
		}
		if !advice.TakeProfit.IsZero() {
			tp := advice.TakeProfit.Mul(scale).Rescale(0).Int64()
			req.TakeProfit = &tp
		}
	}

	if err := d.session.SubmitOpenOrder(ctx, req); err != nil {
		return fmt.Errorf("unable to submit open order: %w", err)
	}

	d.logger.Info("open order dispatched",
		zap.Int64("instrument", advice.Instrument),
		zap.String("side", advice.Side.String()),
		zap.Int64("volume", advice.Volume))

	return nil
}

// DispatchClose submits a close for the advised volume of the resolved
// destination position.
func (d *Dispatcher) DispatchClose(ctx context.Context, advice common.CloseAdvice) error {

	req := broker.ClosePositionRequest{
		Account:  d.destination.ID(),
		Position: advice.Position,
		Volume:   advice.Volume,
	}

	if err := d.session.SubmitClosePosition(ctx, req); err != nil {
		return fmt.Errorf("unable to submit close position: %w", err)
	}

	d.logger.Info("close dispatched",
		zap.Int64("instrument", advice.Instrument),
		zap.Int64("position", advice.Position),
		zap.Int64("volume", advice.Volume))

	return nil
}

// FindPosition resolves the destination's current open position for an
// instrument through a reconciliation lookup.
func (d *Dispatcher) FindPosition(ctx context.Context, id common.InstrumentID) (broker.PositionSnapshot, error) {

	positions, err := d.session.ListOpenPositions(ctx, d.destination.ID())
	if err != nil {
		return broker.PositionSnapshot{}, fmt.Errorf("unable to list open positions: %w", err)
	}

	for _, position := range positions {
		if position.Instrument == id {
			return position, nil
		}
	}

	return broker.PositionSnapshot{}, fmt.Errorf("instrument %d: %w", id, ErrNoMatchingPosition)
}
