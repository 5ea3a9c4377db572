package copier

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

func TestAccountContext_LoadAndReady(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD, Balance: 1000000, MoneyDigits: 2},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})

	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	if !account.Ready() {
		t.Fatal("account not ready after load")
	}
	if account.DepositAsset() != testUSD {
		t.Errorf("deposit asset = %d; want %d", account.DepositAsset(), testUSD)
	}

	reference, err := account.Instrument(1)
	if err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}
	if reference.Name != "EURUSD" || reference.Digits != 5 {
		t.Errorf("unexpected reference: %+v", reference)
	}
}

func TestAccountContext_NotReadyWithoutData(t *testing.T) {
	account := NewAccountContext(zap.NewNop(), 100, common.RoleSource)
	if account.Ready() {
		t.Error("empty context reports ready")
	}
}

func TestAccountContext_UnknownInstrument(t *testing.T) {
	account := NewAccountContext(zap.NewNop(), 100, common.RoleSource)

	_, err := account.Instrument(42)
	if !errors.Is(err, ErrReferenceDataMissing) {
		t.Errorf("error = %v; want ErrReferenceDataMissing", err)
	}
}

func TestAccountContext_ApplyQuote(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})
	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	account.ApplyQuote(1, fixed.FromFloat64(1.08490), fixed.FromFloat64(1.08510))

	quote, ok := account.Quote(1)
	if !ok {
		t.Fatal("quote missing after update")
	}
	if quote.Revision != 1 {
		t.Errorf("revision = %d; want 1", quote.Revision)
	}
	if !quote.Bid.Eq(fixed.FromFloat64(1.08490)) || !quote.Ask.Eq(fixed.FromFloat64(1.08510)) {
		t.Errorf("quote = %s/%s", quote.Bid.String(), quote.Ask.String())
	}
}

func TestAccountContext_ZeroSideKeepsPrevious(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})
	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	account.ApplyQuote(1, fixed.FromFloat64(1.0849), fixed.FromFloat64(1.0851))
	account.ApplyQuote(1, fixed.FromFloat64(1.0850), fixed.Zero)

	quote, _ := account.Quote(1)
	if !quote.Bid.Eq(fixed.FromFloat64(1.0850)) {
		t.Errorf("bid = %s; want 1.0850", quote.Bid.String())
	}
	if !quote.Ask.Eq(fixed.FromFloat64(1.0851)) {
		t.Errorf("ask = %s; want retained 1.0851", quote.Ask.String())
	}
	if quote.Revision != 2 {
		t.Errorf("revision = %d; want 2", quote.Revision)
	}
}

func TestAccountContext_UnknownInstrumentQuoteDropped(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})
	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	account.ApplyQuote(99, fixed.FromFloat64(1.0), fixed.FromFloat64(1.1))

	if _, ok := account.Quote(99); ok {
		t.Error("quote stored for an unknown instrument")
	}
}

func TestAccountContext_OnPriceUpdateConvertsDigits(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})
	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	// Five digits: 108490 means 1.08490.
	account.OnPriceUpdate(1, 108490, 108510)

	quote, ok := account.Quote(1)
	if !ok {
		t.Fatal("quote missing after raw update")
	}
	if !quote.Bid.Eq(fixed.FromFloat64(1.0849)) {
		t.Errorf("bid = %s; want 1.0849", quote.Bid.String())
	}
}

func TestAccountContext_InstrumentName(t *testing.T) {
	session := newStubSession()
	session.seedAccount(100,
		broker.TraderInfo{DepositAssetID: testUSD},
		usdAssets(),
		[]broker.InstrumentReference{eurusdReference(100000)})
	account := loadedContext(t, session, 100, common.RoleSource, []common.InstrumentID{1})

	if got := account.InstrumentName(1); got != "EURUSD" {
		t.Errorf("InstrumentName(1) = %s; want EURUSD", got)
	}
	// Outside the loaded universe the static table answers.
	if got := account.InstrumentName(41); got != "XAUUSD" {
		t.Errorf("InstrumentName(41) = %s; want XAUUSD", got)
	}
	if got := account.InstrumentName(999); got != "SYMBOL_999" {
		t.Errorf("InstrumentName(999) = %s; want SYMBOL_999", got)
	}
}
