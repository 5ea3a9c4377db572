package copier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/bus"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

type engineHarness struct {
	engine  *Engine
	session *stubSession

	quotes        chan common.Quote
	orderAdvice   chan common.OrderAdvice
	closeAdvice   chan common.CloseAdvice
	orderRejected chan common.OrderRejected
}

// newEngineHarness bootstraps an engine against the stub session with the
// router loop running, source account 100 and destination account 200.
func newEngineHarness(t *testing.T, sourceLot, destinationLot int64, options ...EngineOption) *engineHarness {
	t.Helper()

	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD, Balance: 1000000, MoneyDigits: 2},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(sourceLot)})
	session.seedAccount(200,
		broker.TraderInfo{DepositAssetID: testUSD, Balance: 500000, MoneyDigits: 2},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(destinationLot)})

	router := bus.NewRouter(64)
	engine := NewEngine(zap.NewNop(), router, session, testConfiguration(), options...)

	h := &engineHarness{
		engine:        engine,
		session:       session,
		quotes:        make(chan common.Quote, 8),
		orderAdvice:   make(chan common.OrderAdvice, 8),
		closeAdvice:   make(chan common.CloseAdvice, 8),
		orderRejected: make(chan common.OrderRejected, 8),
	}

	// Engine handlers run first so a test observing a captured event sees the
	// engine state that event produced.
	router.OnQuote = func(ctx context.Context, quote common.Quote) {
		engine.HandleQuote(ctx, quote)
		h.quotes <- quote
	}
	router.OnSignal = engine.HandleSignal
	router.OnOrderAdvice = func(ctx context.Context, advice common.OrderAdvice) {
		engine.HandleOrderAdvice(ctx, advice)
		h.orderAdvice <- advice
	}
	router.OnCloseAdvice = func(ctx context.Context, advice common.CloseAdvice) {
		engine.HandleCloseAdvice(ctx, advice)
		h.closeAdvice <- advice
	}
	router.OnOrderRejected = func(ctx context.Context, rejection common.OrderRejected) {
		engine.HandleOrderRejected(ctx, rejection)
		h.orderRejected <- rejection
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_ = router.Exec(ctx)

	require.NoError(t, engine.Bootstrap(ctx))
	return h
}

func openFill(account common.AccountID, volume int64) broker.ExecutionNotice {
	return broker.ExecutionNotice{
		Account: account,
		Type:    broker.ExecutionOrderFilled,
		Deal: &broker.DealNotice{
			Instrument: 1,
			Side:       common.SideBuy,
			Volume:     volume,
		},
	}
}

func closeFill(account common.AccountID, volume int64) broker.ExecutionNotice {
	return broker.ExecutionNotice{
		Account: account,
		Type:    broker.ExecutionOrderFilled,
		Deal: &broker.DealNotice{
			Instrument:          1,
			Side:                common.SideSell,
			Volume:              volume,
			ClosePositionDetail: strPtr(`{"balance":100134}`),
		},
	}
}

func (h *engineHarness) awaitOrderAdvice(t *testing.T) common.OrderAdvice {
	t.Helper()
	select {
	case advice := <-h.orderAdvice:
		return advice
	case <-time.After(time.Second):
		t.Fatal("no order advice published")
		return common.OrderAdvice{}
	}
}

func TestEngine_ReplicatesOpenWithParityVolume(t *testing.T) {
	h := newEngineHarness(t, 840000, 790000)

	h.session.executionHandler(openFill(100, 2000))

	advice := h.awaitOrderAdvice(t)
	assert.Equal(t, int64(2127), advice.Volume)
	assert.Equal(t, common.SideBuy, advice.Side)
	assert.Equal(t, "copied from source", advice.Comment)

	require.Eventually(t, func() bool {
		return len(h.session.submittedOpens()) == 1
	}, time.Second, 10*time.Millisecond)

	submitted := h.session.submittedOpens()[0]
	assert.Equal(t, common.AccountID(200), submitted.Account)
	assert.Equal(t, int64(2127), submitted.Volume)
	assert.Nil(t, submitted.StopLoss)
	assert.Nil(t, submitted.TakeProfit)
}

func TestEngine_OpenCarriesScaledProtection(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)

	sl, tp := int64(107000), int64(110000)
	notice := openFill(100, 2000)
	notice.Order = &broker.OrderNotice{StopLoss: &sl, TakeProfit: &tp}

	h.session.executionHandler(notice)

	advice := h.awaitOrderAdvice(t)
	assert.True(t, advice.StopLoss.Eq(fixed.FromFloat64(1.07)),
		"stop loss = %s; want 1.07", advice.StopLoss.String())
	assert.True(t, advice.TakeProfit.Eq(fixed.FromFloat64(1.1)),
		"take profit = %s; want 1.1", advice.TakeProfit.String())

	require.Eventually(t, func() bool {
		return len(h.session.submittedOpens()) == 1
	}, time.Second, 10*time.Millisecond)

	submitted := h.session.submittedOpens()[0]
	require.NotNil(t, submitted.StopLoss)
	require.NotNil(t, submitted.TakeProfit)
	assert.Equal(t, int64(107000), *submitted.StopLoss)
	assert.Equal(t, int64(110000), *submitted.TakeProfit)
}

func TestEngine_IgnoresDestinationExecutions(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)

	// A fill on the destination account must not be replicated back.
	h.session.executionHandler(openFill(200, 2000))

	select {
	case <-h.orderAdvice:
		t.Fatal("destination execution replicated")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEngine_PartialCloseScalesByStoredRatio(t *testing.T) {
	h := newEngineHarness(t, 840000, 790000)
	h.session.positions[200] = []broker.PositionSnapshot{
		{ID: 555, Instrument: 1, Side: common.SideBuy, Volume: 4000},
	}

	h.session.executionHandler(openFill(100, 2000))
	h.awaitOrderAdvice(t)

	h.session.executionHandler(closeFill(100, 2000))

	select {
	case advice := <-h.closeAdvice:
		// floor(2000 * 1.0635) = 2127, floored to the 1000 step; 2000 left
		// open is more than a step, so no full-close snap.
		assert.Equal(t, int64(2000), advice.Volume)
		assert.Equal(t, common.PositionID(555), advice.Position)
		assert.False(t, advice.Full)
		assert.Equal(t, LifecyclePartiallyClosed, h.engine.tracker.State(1))
	case <-time.After(time.Second):
		t.Fatal("no close advice published")
	}

	require.Eventually(t, func() bool {
		return len(h.session.submittedCloses()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(2000), h.session.submittedCloses()[0].Volume)
}

func TestEngine_SmallRemainderSnapsToFullClose(t *testing.T) {
	h := newEngineHarness(t, 840000, 790000)
	h.session.positions[200] = []broker.PositionSnapshot{
		{ID: 556, Instrument: 1, Side: common.SideBuy, Volume: 2500},
	}

	h.session.executionHandler(openFill(100, 2000))
	h.awaitOrderAdvice(t)

	h.session.executionHandler(closeFill(100, 2000))

	select {
	case advice := <-h.closeAdvice:
		// Target 2000 leaves 500 behind, no more than one step, so the whole
		// position goes.
		assert.Equal(t, int64(2500), advice.Volume)
		assert.True(t, advice.Full)
		assert.Equal(t, LifecycleNoPosition, h.engine.tracker.State(1))
	case <-time.After(time.Second):
		t.Fatal("no close advice published")
	}
}

func TestEngine_CloseRoundedToZeroIssuesNothing(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)
	h.session.positions[200] = []broker.PositionSnapshot{
		{ID: 557, Instrument: 1, Side: common.SideBuy, Volume: 2000},
	}

	// Stored ratio 0.5: a source close of 1500 targets 750, which floors to
	// zero against the 1000 step.
	h.engine.tracker.RecordOpen(1, 3000, 1500)

	h.session.executionHandler(closeFill(100, 1500))

	select {
	case advice := <-h.closeAdvice:
		t.Fatalf("close advice published for a zero target: %+v", advice)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, h.session.submittedCloses())
}

func TestEngine_ZeroRoundedCloseIsJournaled(t *testing.T) {
	journal := &recordingJournal{}
	h := newEngineHarness(t, 100000, 100000, WithJournal(journal))
	h.session.positions[200] = []broker.PositionSnapshot{
		{ID: 557, Instrument: 1, Side: common.SideBuy, Volume: 2000},
	}

	h.engine.tracker.RecordOpen(1, 3000, 1500)
	h.session.executionHandler(closeFill(100, 1500))

	require.Eventually(t, func() bool {
		return len(journal.recordedCloses()) == 1
	}, time.Second, 10*time.Millisecond)

	record := journal.recordedCloses()[0]
	assert.Equal(t, int64(0), record.ClosedVolume)
	assert.Equal(t, int64(1500), record.SourceVolume)
	assert.Equal(t, common.PositionID(557), record.Position)
	assert.False(t, record.Full)
	assert.Empty(t, h.session.submittedCloses())
}

func TestEngine_CloseWithoutPositionDropped(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)

	h.session.executionHandler(closeFill(100, 2000))

	select {
	case <-h.closeAdvice:
		t.Fatal("close advice published without a destination position")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, h.session.submittedCloses())
}

func TestEngine_RejectedOpenSurfacesRejection(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)
	h.session.failOpen = true

	h.session.executionHandler(openFill(100, 2000))
	h.awaitOrderAdvice(t)

	select {
	case rejection := <-h.orderRejected:
		assert.Equal(t, common.InstrumentID(1), rejection.Instrument)
		assert.Contains(t, rejection.Reason, "order refused")
	case <-time.After(time.Second):
		t.Fatal("no rejection published")
	}
}

func TestEngine_BootstrapAuthFailure(t *testing.T) {
	session := newStubSession()
	session.failAuth = true

	router := bus.NewRouter(16)
	engine := NewEngine(zap.NewNop(), router, session, testConfiguration())

	err := engine.Bootstrap(context.Background())
	require.ErrorIs(t, err, ErrAuthorizationFailure)
}

func TestEngine_BootstrapIncompleteReferenceData(t *testing.T) {
	session := newStubSession()
	// Accounts authorize but return no reference data.
	session.seedAccount(100, broker.TraderInfo{}, nil, nil)
	session.seedAccount(200, broker.TraderInfo{}, nil, nil)

	router := bus.NewRouter(16)
	engine := NewEngine(zap.NewNop(), router, session, testConfiguration())

	err := engine.Bootstrap(context.Background())
	require.ErrorIs(t, err, ErrReferenceDataMissing)
}

func TestEngine_SpotQuoteFlowsIntoPriceCache(t *testing.T) {
	h := newEngineHarness(t, 100000, 100000)

	h.session.spotHandler(broker.SpotQuote{
		Account:    100,
		Instrument: 1,
		Bid:        108490,
		Ask:        108510,
	})

	select {
	case <-h.quotes:
	case <-time.After(time.Second):
		t.Fatal("quote never dispatched")
	}

	quote, ok := h.engine.Source().Quote(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), quote.Revision)
}
