package copier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// PipValuePair is the cached outcome of one parity computation. The revisions
// record which quote states produced it; the pair is stale once either side's
// feed has moved.
type PipValuePair struct {
	SourcePipValue      fixed.Point
	DestinationPipValue fixed.Point

	sourceRevision      uint64
	destinationRevision uint64
}

// PipValueCalculator derives the monetary value of one pip per standard lot,
// in the account's deposit currency.
type PipValueCalculator struct {
	logger *zap.Logger

	source      *AccountContext
	destination *AccountContext

	cache map[common.InstrumentID]PipValuePair
}

func NewPipValueCalculator(logger *zap.Logger, source, destination *AccountContext) *PipValueCalculator {
	return &PipValueCalculator{
		logger:      logger,
		source:      source,
		destination: destination,
		cache:       make(map[common.InstrumentID]PipValuePair),
	}
}

// PipValue computes the pip value of one instrument on one account.
//
// When the quote asset equals the deposit asset the result is exact and needs
// no price: pipSize * lotSize. Otherwise the mid price converts the quote
// side, which is a deliberate approximation, good enough for risk parity but
// not a full deposit-currency conversion.
func (c *PipValueCalculator) PipValue(account *AccountContext, id common.InstrumentID) (fixed.Point, error) {

	reference, err := account.Instrument(id)
	if err != nil {
		return fixed.Point{}, err
	}

	pipSize := fixed.PowerOfTen(-reference.PipPosition)

	quoteAsset := reference.QuoteAssetID
	if _, ok := account.Asset(quoteAsset); !ok {
		// Unknown quote asset. Treat it as the deposit currency instead of
		// failing, the same-currency path is the safer approximation.
		c.logger.Debug("quote asset unknown, assuming deposit currency",
			zap.Int64("account", account.ID()),
			zap.Int64("instrument", id),
			zap.Int64("quote_asset", quoteAsset))
		quoteAsset = account.DepositAsset()
	}

	if quoteAsset == account.DepositAsset() {
		return pipSize.MulInt64(reference.LotSize), nil
	}

	quote, ok := account.Quote(id)
	if !ok || quote.Bid.IsZero() || quote.Ask.IsZero() {
		return fixed.Point{}, fmt.Errorf("no fresh quote for instrument %d on account %d: %w", id, account.ID(), ErrPriceUnavailable)
	}

	midPrice := quote.Bid.Add(quote.Ask).DivInt(2)
	return pipSize.Div(midPrice).MulInt64(reference.LotSize), nil
}

// Pair returns both sides' pip values for an instrument, reusing the cached
// pair until either account's quote revision moves.
func (c *PipValueCalculator) Pair(id common.InstrumentID) (PipValuePair, error) {

	sourceRev, destinationRev := c.quoteRevisions(id)

	if pair, ok := c.cache[id]; ok &&
		pair.sourceRevision == sourceRev && pair.destinationRevision == destinationRev {
		return pair, nil
	}

	sourceValue, err := c.PipValue(c.source, id)
	if err != nil {
		return PipValuePair{}, fmt.Errorf("source pip value: %w", err)
	}

	destinationValue, err := c.PipValue(c.destination, id)
	if err != nil {
		return PipValuePair{}, fmt.Errorf("destination pip value: %w", err)
	}

	pair := PipValuePair{
		SourcePipValue:      sourceValue,
		DestinationPipValue: destinationValue,
		sourceRevision:      sourceRev,
		destinationRevision: destinationRev,
	}
	c.cache[id] = pair

	c.logger.Debug("pip values computed",
		zap.Int64("instrument", id),
		zap.String("source", sourceValue.String()),
		zap.String("destination", destinationValue.String()))

	return pair, nil
}

func (c *PipValueCalculator) quoteRevisions(id common.InstrumentID) (uint64, uint64) {
	var sourceRev, destinationRev uint64
	if quote, ok := c.source.Quote(id); ok {
		sourceRev = quote.Revision
	}
	if quote, ok := c.destination.Quote(id); ok {
		destinationRev = quote.Revision
	}
	return sourceRev, destinationRev
}
