package copier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// PriceQuote is the latest converted bid/ask of one instrument. Revision
// increments on every feed update and keys the pip-value cache.
type PriceQuote struct {
	Bid           fixed.Point
	Ask           fixed.Point
	Revision      uint64
	LastUpdatedAt time.Time
}

// AccountContext owns one side's reference data and live prices. Reference
// maps are immutable once Load completes; quotes are overwritten in place by
// the price feed on the dispatch goroutine.
type AccountContext struct {
	logger *zap.Logger

	id   common.AccountID
	role common.AccountRole

	depositAsset common.AssetID
	instruments  map[common.InstrumentID]broker.InstrumentReference
	assets       map[common.AssetID]broker.AssetInfo
	quotes       map[common.InstrumentID]*PriceQuote
}

func NewAccountContext(logger *zap.Logger, id common.AccountID, role common.AccountRole) *AccountContext {
	return &AccountContext{
		logger:      logger,
		id:          id,
		role:        role,
		instruments: make(map[common.InstrumentID]broker.InstrumentReference),
		assets:      make(map[common.AssetID]broker.AssetInfo),
		quotes:      make(map[common.InstrumentID]*PriceQuote),
	}
}

func (a *AccountContext) ID() common.AccountID     { return a.id }
func (a *AccountContext) Role() common.AccountRole { return a.role }

// Load issues the asset-list, trader-info and instrument-detail requests and
// populates the context. Written as one linear flow; each request blocks on
// its correlated response.
func (a *AccountContext) Load(ctx context.Context, session broker.Session, universe []common.InstrumentID) error {

	trader, err := session.TraderInfo(ctx, a.id)
	if err != nil {
		return fmt.Errorf("unable to retrieve trader info: %w", err)
	}
	a.depositAsset = trader.DepositAssetID

	assets, err := session.AssetList(ctx, a.id)
	if err != nil {
		return fmt.Errorf("unable to retrieve asset list: %w", err)
	}
	for _, asset := range assets {
		a.assets[asset.ID] = asset
	}

	references, err := session.InstrumentReferences(ctx, a.id, universe)
	if err != nil {
		return fmt.Errorf("unable to retrieve instrument references: %w", err)
	}
	for _, reference := range references {
		a.instruments[reference.ID] = reference
	}

	a.logger.Info("account data loaded",
		zap.Int64("account", a.id),
		zap.String("role", string(a.role)),
		zap.Int64("deposit_asset", a.depositAsset),
		zap.Int("assets", len(a.assets)),
		zap.Int("instruments", len(a.instruments)))

	return nil
}

// Ready reports whether the context can serve pip-value calculations.
func (a *AccountContext) Ready() bool {
	return a.depositAsset != 0 && len(a.assets) > 0 && len(a.instruments) > 0
}

func (a *AccountContext) DepositAsset() common.AssetID {
	return a.depositAsset
}

func (a *AccountContext) Instrument(id common.InstrumentID) (broker.InstrumentReference, error) {
	reference, ok := a.instruments[id]
	if !ok {
		return broker.InstrumentReference{}, fmt.Errorf("instrument %d not loaded for account %d: %w", id, a.id, ErrReferenceDataMissing)
	}
	return reference, nil
}

func (a *AccountContext) Asset(id common.AssetID) (broker.AssetInfo, bool) {
	asset, ok := a.assets[id]
	return asset, ok
}

// InstrumentName resolves an id through the loaded references, degrading to
// the static table for unknown ids.
func (a *AccountContext) InstrumentName(id common.InstrumentID) string {
	if reference, ok := a.instruments[id]; ok && reference.Name != "" {
		return reference.Name
	}
	return FallbackSymbolName(id)
}

// OnPriceUpdate converts the feed's fixed-point integers using the
// instrument's digits and overwrites the cached quote. Updates for unknown
// instruments are dropped without error.
func (a *AccountContext) OnPriceUpdate(id common.InstrumentID, bidRaw, askRaw uint64) {
	reference, ok := a.instruments[id]
	if !ok {
		return
	}

	var bid, ask fixed.Point
	if bidRaw != 0 {
		bid = fixed.FromUint64(bidRaw, reference.Digits)
	}
	if askRaw != 0 {
		ask = fixed.FromUint64(askRaw, reference.Digits)
	}
	a.ApplyQuote(id, bid, ask)
}

// ApplyQuote overwrites the cached quote with already converted prices. A
// zero side keeps the previous value. Unknown instruments are dropped.
func (a *AccountContext) ApplyQuote(id common.InstrumentID, bid, ask fixed.Point) {
	if _, ok := a.instruments[id]; !ok {
		return
	}

	quote, ok := a.quotes[id]
	if !ok {
		quote = &PriceQuote{}
		a.quotes[id] = quote
	}

	if !bid.IsZero() {
		quote.Bid = bid
	}
	if !ask.IsZero() {
		quote.Ask = ask
	}
	quote.Revision++
	quote.LastUpdatedAt = time.Now()
}

// Quote returns the latest cached quote, false when no update arrived yet.
func (a *AccountContext) Quote(id common.InstrumentID) (PriceQuote, bool) {
	quote, ok := a.quotes[id]
	if !ok {
		return PriceQuote{}, false
	}
	return *quote, true
}
