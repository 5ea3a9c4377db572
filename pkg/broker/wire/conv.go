package wire

import (
	"encoding/json"
	"strings"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
)

func sideFromWire(s string) common.Side {
	switch s {
	case "BUY":
		return common.SideBuy
	case "SELL":
		return common.SideSell
	default:
		return common.SideUnspecified
	}
}

func sideToWire(s common.Side) string {
	switch s {
	case common.SideBuy:
		return "BUY"
	case common.SideSell:
		return "SELL"
	default:
		return ""
	}
}

func executionTypeFromWire(t string) broker.ExecutionType {
	switch t {
	case "ORDER_ACCEPTED":
		return broker.ExecutionOrderAccepted
	case "ORDER_FILLED":
		return broker.ExecutionOrderFilled
	case "ORDER_PARTIAL_FILL":
		return broker.ExecutionOrderPartialFill
	case "ORDER_CANCELLED":
		return broker.ExecutionOrderCancelled
	case "ORDER_EXPIRED":
		return broker.ExecutionOrderExpired
	case "ORDER_REJECTED":
		return broker.ExecutionOrderRejected
	default:
		return broker.ExecutionUnspecified
	}
}

// closeDetailString distinguishes an omitted close detail from a present but
// empty one. Brokers send empty detail objects on open fills.
func closeDetailString(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return nil
	}
	if s == "{}" || s == `""` {
		s = ""
	}
	return &s
}

func noticeFromWire(event executionEvent) broker.ExecutionNotice {
	notice := broker.ExecutionNotice{
		Account:    event.CtidTraderAccountID,
		Type:       executionTypeFromWire(event.ExecutionType),
		Instrument: event.SymbolID,
		Side:       sideFromWire(event.TradeSide),
		Volume:     event.Volume,
	}

	if event.Order != nil {
		order := &broker.OrderNotice{
			ClosingOrder: event.Order.ClosingOrder,
			StopLoss:     event.Order.StopLoss,
			TakeProfit:   event.Order.TakeProfit,
		}
		if td := event.Order.TradeData; td != nil {
			order.TradeData = &broker.TradeData{
				Instrument: td.SymbolID,
				Side:       sideFromWire(td.TradeSide),
				Volume:     td.Volume,
			}
		}
		notice.Order = order
	}

	if event.Deal != nil {
		notice.Deal = &broker.DealNotice{
			Instrument:          event.Deal.SymbolID,
			Side:                sideFromWire(event.Deal.TradeSide),
			Volume:              event.Deal.Volume,
			ClosePositionDetail: closeDetailString(event.Deal.ClosePositionDetail),
		}
	}

	return notice
}
