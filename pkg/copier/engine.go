package copier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/bus"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

const engineComponentName = "copier.engine"

// Engine replicates source-account executions onto the destination account
// with risk-equivalent volumes.
//
// All state mutation (reference maps after load, price caches, pip-value
// cache, ratio tracker) happens on the router's dispatch goroutine. Session
// stream callbacks only normalize and post; outbound requests run on spawned
// goroutines with all state captured beforehand, so a stalled request stalls
// its own decision and nothing else.
type Engine struct {
	logger  *zap.Logger
	router  *bus.Router
	session broker.Session
	cfg     Configuration

	source      *AccountContext
	destination *AccountContext

	calculator *PipValueCalculator
	adjuster   *VolumeAdjuster
	tracker    *RatioTracker
	dispatcher *Dispatcher
	journal    Journal

	active bool
}

type EngineOption func(*Engine)

func WithJournal(journal Journal) EngineOption {
	return func(e *Engine) {
		e.journal = journal
	}
}

func NewEngine(logger *zap.Logger, router *bus.Router, session broker.Session, cfg Configuration, options ...EngineOption) *Engine {
	cfg = cfg.withDefaults()

	source := NewAccountContext(logger, cfg.SourceAccount, common.RoleSource)
	destination := NewAccountContext(logger, cfg.DestinationAccount, common.RoleDestination)
	calculator := NewPipValueCalculator(logger, source, destination)

	e := &Engine{
		logger:      logger,
		router:      router,
		session:     session,
		cfg:         cfg,
		source:      source,
		destination: destination,
		calculator:  calculator,
		adjuster:    NewVolumeAdjuster(logger, calculator, cfg),
		tracker:     NewRatioTracker(logger, cfg.MinLotSize),
		dispatcher:  NewDispatcher(logger, session, destination),
		journal:     NoopJournal{},
	}

	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Engine) Source() *AccountContext      { return e.source }
func (e *Engine) Destination() *AccountContext { return e.destination }

// Bootstrap runs the session startup sequence: authorize the application,
// authorize and load the source account, subscribe its prices, then the same
// for the destination. Replication activates only once both contexts are
// ready. Any failure here is fatal; the engine must not start half-authorized.
func (e *Engine) Bootstrap(ctx context.Context) error {

	if err := e.session.AuthorizeApplication(ctx); err != nil {
		return errors.Join(ErrAuthorizationFailure, fmt.Errorf("application: %w", err))
	}

	accounts, err := e.session.AccountList(ctx)
	if err != nil {
		return errors.Join(ErrAuthorizationFailure, fmt.Errorf("account list: %w", err))
	}
	e.logger.Info("accounts available", zap.Int64s("accounts", accounts))

	for _, account := range []*AccountContext{e.source, e.destination} {
		if err := e.session.AuthorizeAccount(ctx, account.ID()); err != nil {
			return errors.Join(ErrAuthorizationFailure,
				fmt.Errorf("account %d (%s): %w", account.ID(), account.Role(), err))
		}
		if err := account.Load(ctx, e.session, e.cfg.Instruments); err != nil {
			return fmt.Errorf("unable to load %s account data: %w", account.Role(), err)
		}
		if err := e.session.SubscribeSpots(ctx, account.ID(), e.cfg.Instruments); err != nil {
			return fmt.Errorf("unable to subscribe %s spots: %w", account.Role(), err)
		}
	}

	if !e.source.Ready() || !e.destination.Ready() {
		return fmt.Errorf("account data incomplete after load: %w", ErrReferenceDataMissing)
	}

	e.session.OnSpot(e.onSpotQuote)
	e.session.OnExecution(e.onExecutionNotice)
	e.active = true

	e.logger.Info("replication active",
		zap.Int64("source", e.source.ID()),
		zap.Int64("destination", e.destination.ID()))

	return nil
}

// onSpotQuote runs on the session read goroutine. It only converts using the
// immutable reference maps and posts; the cache write happens in HandleQuote.
func (e *Engine) onSpotQuote(spot broker.SpotQuote) {

	var account *AccountContext
	switch spot.Account {
	case e.source.ID():
		account = e.source
	case e.destination.ID():
		account = e.destination
	default:
		return
	}

	reference, err := account.Instrument(spot.Instrument)
	if err != nil {
		// Unknown instrument, drop silently per the price-cache contract.
		return
	}

	quote := common.Quote{
		Account:     spot.Account,
		Instrument:  spot.Instrument,
		Source:      engineComponentName,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now(),
	}
	if spot.Bid != 0 {
		quote.Bid = fixed.FromUint64(spot.Bid, reference.Digits)
	}
	if spot.Ask != 0 {
		quote.Ask = fixed.FromUint64(spot.Ask, reference.Digits)
	}

	if err := e.router.Post(bus.QuoteEvent, quote); err != nil {
		e.logger.Debug("unable to post quote event", zap.Error(err))
	}
}

// onExecutionNotice runs on the session read goroutine. Classification is
// pure; everything stateful happens in HandleSignal.
func (e *Engine) onExecutionNotice(notice broker.ExecutionNotice) {

	if notice.Account != e.source.ID() {
		return
	}

	signal, ok, err := Classify(notice)
	if err != nil {
		e.logger.Warn("execution event dropped", zap.Error(err))
		return
	}
	if !ok {
		e.logger.Debug("execution type not actionable", zap.Stringer("type", notice.Type))
		return
	}

	// Protection prices arrive raw and scale with the source instrument's
	// digits, same as spot quotes.
	if order := notice.Order; order != nil {
		if reference, err := e.source.Instrument(signal.Instrument); err == nil {
			if order.StopLoss != nil && *order.StopLoss > 0 {
				signal.StopLoss = fixed.FromInt64(*order.StopLoss, reference.Digits)
			}
			if order.TakeProfit != nil && *order.TakeProfit > 0 {
				signal.TakeProfit = fixed.FromInt64(*order.TakeProfit, reference.Digits)
			}
		}
	}

	if err := e.router.Post(bus.SignalEvent, signal); err != nil {
		e.logger.Warn("unable to post signal event", zap.Error(err))
	}
}

// HandleQuote applies a price update to the owning account context.
func (e *Engine) HandleQuote(_ context.Context, quote common.Quote) {
	switch quote.Account {
	case e.source.ID():
		e.source.ApplyQuote(quote.Instrument, quote.Bid, quote.Ask)
	case e.destination.ID():
		e.destination.ApplyQuote(quote.Instrument, quote.Bid, quote.Ask)
	}
}

// HandleSignal turns a classified source execution into a replication
// decision.
func (e *Engine) HandleSignal(ctx context.Context, signal common.TradeSignal) {

	if !e.active {
		e.logger.Warn("signal before replication active, dropped",
			zap.Int64("instrument", signal.Instrument))
		return
	}

	switch signal.Kind {
	case common.SignalOpen:
		e.replicateOpen(ctx, signal)
	case common.SignalClose:
		e.replicateClose(ctx, signal)
	}
}

func (e *Engine) replicateOpen(ctx context.Context, signal common.TradeSignal) {

	adjusted, multiplier, mode := e.adjuster.Adjust(signal.Instrument, signal.Volume)
	e.tracker.RecordOpen(signal.Instrument, signal.Volume, adjusted)

	advice := common.OrderAdvice{
		Instrument:  signal.Instrument,
		Side:        signal.Side,
		Volume:      adjusted,
		StopLoss:    signal.StopLoss,
		TakeProfit:  signal.TakeProfit,
		Multiplier:  multiplier,
		Comment:     e.cfg.OrderComment,
		Source:      engineComponentName,
		ExecutionID: signal.ExecutionID,
		TraceID:     signal.TraceID,
		TimeStamp:   time.Now(),
	}

	if err := e.journal.RecordOpen(ctx, OpenRecord{
		TraceID:        signal.TraceID,
		Instrument:     signal.Instrument,
		InstrumentName: e.source.InstrumentName(signal.Instrument),
		Side:           signal.Side,
		SourceVolume:   signal.Volume,
		AdjustedVolume: adjusted,
		Multiplier:     multiplier,
		Mode:           mode,
		At:             advice.TimeStamp,
	}); err != nil {
		e.logger.Warn("unable to journal open", zap.Error(err))
	}

	if err := e.router.Post(bus.OrderAdviceEvent, advice); err != nil {
		e.logger.Warn("unable to post order advice", zap.Error(err))
	}
}

// replicateClose resolves ratio and step on the dispatch goroutine, then
// performs the position lookup out of band with everything captured.
func (e *Engine) replicateClose(ctx context.Context, signal common.TradeSignal) {

	ratio := e.tracker.Ratio(signal.Instrument)
	rawTarget := fixed.FromInt64(signal.Volume, 0).Mul(ratio).Int64()

	step := int64(0)
	if reference, err := e.destination.Instrument(signal.Instrument); err == nil {
		step = reference.VolumeStep
	}
	if step <= 0 {
		step = e.cfg.MinLotSize
	}

	go e.resolveClose(ctx, signal, ratio, rawTarget, step)
}

func (e *Engine) resolveClose(ctx context.Context, signal common.TradeSignal, ratio fixed.Point, rawTarget, step int64) {

	position, err := e.dispatcher.FindPosition(ctx, signal.Instrument)
	if err != nil {
		if errors.Is(err, ErrNoMatchingPosition) {
			e.logger.Warn("no destination position for close, dropped",
				zap.Int64("instrument", signal.Instrument))
		} else {
			e.logger.Warn("position lookup failed, close dropped",
				zap.Int64("instrument", signal.Instrument), zap.Error(err))
		}
		return
	}

	volumeToClose := RoundCloseVolume(rawTarget, step, position.Volume, e.cfg.MinLotSize)
	if volumeToClose <= 0 {
		// The scaled close rounded below one broker increment and the
		// remainder is larger than a step. Nothing tradeable to close,
		// but the decision still belongs in the audit trail.
		e.logger.Info("close volume rounded to zero, no request issued",
			zap.Int64("instrument", signal.Instrument),
			zap.Int64("source_volume", signal.Volume),
			zap.Int64("raw_target", rawTarget),
			zap.Int64("step", step))
		if err := e.journal.RecordClose(ctx, CloseRecord{
			TraceID:        signal.TraceID,
			Instrument:     signal.Instrument,
			InstrumentName: e.destination.InstrumentName(signal.Instrument),
			Position:       position.ID,
			SourceVolume:   signal.Volume,
			ClosedVolume:   0,
			Ratio:          ratio,
			Step:           step,
			At:             time.Now(),
		}); err != nil {
			e.logger.Warn("unable to journal close", zap.Error(err))
		}
		return
	}

	advice := common.CloseAdvice{
		Instrument:   signal.Instrument,
		Position:     position.ID,
		Volume:       volumeToClose,
		SourceVolume: signal.Volume,
		Ratio:        ratio,
		Step:         step,
		Full:         volumeToClose == position.Volume,
		Source:       engineComponentName,
		ExecutionID:  signal.ExecutionID,
		TraceID:      signal.TraceID,
		TimeStamp:    time.Now(),
	}

	if err := e.router.Post(bus.CloseAdviceEvent, advice); err != nil {
		e.logger.Warn("unable to post close advice", zap.Error(err))
	}
}

// HandleOrderAdvice dispatches an open decision. The request runs out of
// band; a rejection is logged and surfaced, never retried.
func (e *Engine) HandleOrderAdvice(ctx context.Context, advice common.OrderAdvice) {
	go func() {
		if err := e.dispatcher.DispatchOpen(ctx, advice); err != nil {
			e.logger.Warn("open order rejected", zap.Error(err))
			e.postRejection(advice.Instrument, err)
		}
	}()
}

// HandleCloseAdvice records the lifecycle transition and dispatches the
// close.
func (e *Engine) HandleCloseAdvice(ctx context.Context, advice common.CloseAdvice) {

	e.tracker.RecordClose(advice.Instrument, advice.Full)

	if err := e.journal.RecordClose(ctx, CloseRecord{
		TraceID:        advice.TraceID,
		Instrument:     advice.Instrument,
		InstrumentName: e.destination.InstrumentName(advice.Instrument),
		Position:       advice.Position,
		SourceVolume:   advice.SourceVolume,
		ClosedVolume:   advice.Volume,
		Ratio:          advice.Ratio,
		Step:           advice.Step,
		Full:           advice.Full,
		At:             advice.TimeStamp,
	}); err != nil {
		e.logger.Warn("unable to journal close", zap.Error(err))
	}

	go func() {
		if err := e.dispatcher.DispatchClose(ctx, advice); err != nil {
			e.logger.Warn("close rejected", zap.Error(err))
			e.postRejection(advice.Instrument, err)
		}
	}()
}

// HandleOrderRejected is terminal: rejections require a human.
func (e *Engine) HandleOrderRejected(_ context.Context, rejection common.OrderRejected) {
	e.logger.Error("order rejected, manual intervention required",
		zap.Int64("instrument", rejection.Instrument),
		zap.String("reason", rejection.Reason))
}

func (e *Engine) postRejection(instrument common.InstrumentID, cause error) {
	rejection := common.OrderRejected{
		Instrument:  instrument,
		Reason:      cause.Error(),
		Source:      engineComponentName,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now(),
	}
	if err := e.router.Post(bus.OrderRejectedEvent, rejection); err != nil {
		e.logger.Warn("unable to post rejection event", zap.Error(err))
	}
}
