package copier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
)

// stubSession is an in-memory broker.Session. Request data is keyed per
// account; submitted orders are captured for assertions.
type stubSession struct {
	traders    map[common.AccountID]broker.TraderInfo
	assets     map[common.AccountID][]broker.AssetInfo
	references map[common.AccountID][]broker.InstrumentReference
	positions  map[common.AccountID][]broker.PositionSnapshot

	failAuth  bool
	failOpen  bool
	failClose bool

	mu          sync.Mutex
	openOrders  []broker.OpenOrderRequest
	closeOrders []broker.ClosePositionRequest

	executionHandler func(broker.ExecutionNotice)
	spotHandler      func(broker.SpotQuote)
}

func newStubSession() *stubSession {
	return &stubSession{
		traders:    make(map[common.AccountID]broker.TraderInfo),
		assets:     make(map[common.AccountID][]broker.AssetInfo),
		references: make(map[common.AccountID][]broker.InstrumentReference),
		positions:  make(map[common.AccountID][]broker.PositionSnapshot),
	}
}

func (s *stubSession) AuthorizeApplication(context.Context) error {
	if s.failAuth {
		return errors.New("authorization refused")
	}
	return nil
}

func (s *stubSession) AuthorizeAccount(context.Context, common.AccountID) error {
	if s.failAuth {
		return errors.New("authorization refused")
	}
	return nil
}

func (s *stubSession) AccountList(context.Context) ([]common.AccountID, error) {
	accounts := make([]common.AccountID, 0, len(s.traders))
	for id := range s.traders {
		accounts = append(accounts, id)
	}
	return accounts, nil
}

func (s *stubSession) AssetList(_ context.Context, account common.AccountID) ([]broker.AssetInfo, error) {
	return s.assets[account], nil
}

func (s *stubSession) TraderInfo(_ context.Context, account common.AccountID) (broker.TraderInfo, error) {
	return s.traders[account], nil
}

func (s *stubSession) InstrumentReferences(_ context.Context, account common.AccountID, _ []common.InstrumentID) ([]broker.InstrumentReference, error) {
	return s.references[account], nil
}

func (s *stubSession) SubscribeSpots(context.Context, common.AccountID, []common.InstrumentID) error {
	return nil
}

func (s *stubSession) ListOpenPositions(_ context.Context, account common.AccountID) ([]broker.PositionSnapshot, error) {
	return s.positions[account], nil
}

func (s *stubSession) SubmitOpenOrder(_ context.Context, req broker.OpenOrderRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOpen {
		return errors.New("order refused")
	}
	s.openOrders = append(s.openOrders, req)
	return nil
}

func (s *stubSession) SubmitClosePosition(_ context.Context, req broker.ClosePositionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failClose {
		return errors.New("close refused")
	}
	s.closeOrders = append(s.closeOrders, req)
	return nil
}

func (s *stubSession) OnExecution(handler func(broker.ExecutionNotice)) {
	s.executionHandler = handler
}

func (s *stubSession) OnSpot(handler func(broker.SpotQuote)) {
	s.spotHandler = handler
}

func (s *stubSession) submittedOpens() []broker.OpenOrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]broker.OpenOrderRequest(nil), s.openOrders...)
}

func (s *stubSession) submittedCloses() []broker.ClosePositionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]broker.ClosePositionRequest(nil), s.closeOrders...)
}

// seedAccount registers one account's reference data on the stub.
func (s *stubSession) seedAccount(id common.AccountID, trader broker.TraderInfo, assets []broker.AssetInfo, references []broker.InstrumentReference) {
	s.traders[id] = trader
	s.assets[id] = assets
	s.references[id] = references
}

// loadedContext builds an AccountContext populated through the regular Load
// path.
func loadedContext(t *testing.T, session broker.Session, id common.AccountID, role common.AccountRole, universe []common.InstrumentID) *AccountContext {
	t.Helper()
	account := NewAccountContext(zap.NewNop(), id, role)
	if err := account.Load(context.Background(), session, universe); err != nil {
		t.Fatalf("unable to load account %d: %v", id, err)
	}
	return account
}

const (
	testUSD common.AssetID = 4
	testGBP common.AssetID = 5
)

func usdAssets() []broker.AssetInfo {
	return []broker.AssetInfo{
		{ID: testUSD, Name: "USD", Digits: 2},
		{ID: testGBP, Name: "GBP", Digits: 2},
	}
}

// eurusdReference mirrors a conventional five-digit FX major quoted in the
// deposit currency.
func eurusdReference(lotSize int64) broker.InstrumentReference {
	return broker.InstrumentReference{
		ID:           1,
		Name:         "EURUSD",
		Digits:       5,
		PipPosition:  4,
		LotSize:      lotSize,
		BaseAssetID:  6,
		QuoteAssetID: testUSD,
		VolumeStep:   1000,
	}
}

// eurgbpReference is quoted in a currency other than the deposit one, so its
// pip value needs a live price.
func eurgbpReference(lotSize int64) broker.InstrumentReference {
	return broker.InstrumentReference{
		ID:           2,
		Name:         "EURGBP",
		Digits:       5,
		PipPosition:  4,
		LotSize:      lotSize,
		BaseAssetID:  6,
		QuoteAssetID: testGBP,
		VolumeStep:   1000,
	}
}

// recordingJournal captures journal records for assertions. Guarded because
// zero-rounded close decisions are recorded off the dispatch goroutine.
type recordingJournal struct {
	mu     sync.Mutex
	opens  []OpenRecord
	closes []CloseRecord
}

func (j *recordingJournal) RecordOpen(_ context.Context, record OpenRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.opens = append(j.opens, record)
	return nil
}

func (j *recordingJournal) RecordClose(_ context.Context, record CloseRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closes = append(j.closes, record)
	return nil
}

func (j *recordingJournal) recordedCloses() []CloseRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]CloseRecord(nil), j.closes...)
}
