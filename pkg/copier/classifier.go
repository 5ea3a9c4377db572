package copier

import (
	"fmt"
	"strings"
	"time"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/utility"
)

const classifierComponentName = "copier.classifier"

// Classify normalizes one raw execution notice into a trade signal.
//
// Only fills and partial fills are classified; for anything else ok is false
// and the notice is acknowledged without action. Close detection precedence,
// highest first:
//
//  1. deal.closePositionDetail present and non-empty after trimming
//  2. order.closingOrder
//  3. otherwise an open
//
// A structurally present but empty closePositionDetail must NOT classify as a
// close; brokers send the field unconditionally on some routes.
//
// Trade fields resolve deal first, then order.tradeData, then the top-level
// notice; ErrIncompleteExecutionEvent when all three fail.
func Classify(notice broker.ExecutionNotice) (common.TradeSignal, bool, error) {

	if !notice.Type.IsFill() {
		return common.TradeSignal{}, false, nil
	}

	kind := common.SignalOpen
	switch {
	case notice.Deal != nil && notice.Deal.ClosePositionDetail != nil &&
		strings.TrimSpace(*notice.Deal.ClosePositionDetail) != "":
		kind = common.SignalClose
	case notice.Order != nil && notice.Order.ClosingOrder:
		kind = common.SignalClose
	}

	instrument, side, volume := resolveTradeFields(notice)
	if instrument == 0 || side == common.SideUnspecified || volume <= 0 {
		return common.TradeSignal{}, false, fmt.Errorf(
			"cannot resolve trade fields (instrument=%d side=%v volume=%d): %w",
			instrument, side, volume, ErrIncompleteExecutionEvent)
	}

	return common.TradeSignal{
		Kind:        kind,
		Instrument:  instrument,
		Side:        side,
		Volume:      volume,
		Source:      classifierComponentName,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now(),
	}, true, nil
}

func resolveTradeFields(notice broker.ExecutionNotice) (common.InstrumentID, common.Side, int64) {
	if deal := notice.Deal; deal != nil && deal.Instrument != 0 {
		return deal.Instrument, deal.Side, deal.Volume
	}
	if order := notice.Order; order != nil && order.TradeData != nil && order.TradeData.Instrument != 0 {
		return order.TradeData.Instrument, order.TradeData.Side, order.TradeData.Volume
	}
	return notice.Instrument, notice.Side, notice.Volume
}
