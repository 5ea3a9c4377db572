// Package wire implements broker.Session over the cTrader Open API websocket
// JSON framing. Every message is one frame carrying a numeric payload type and
// a json payload; requests are correlated to responses by clientMsgId.
package wire

import (
	"encoding/json"
)

type frame struct {
	PayloadType int             `json:"payloadType"`
	ClientMsgID string          `json:"clientMsgId,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

const (
	payloadHeartbeatEvent = 51

	payloadApplicationAuthReq = 2100
	payloadApplicationAuthRes = 2101
	payloadAccountAuthReq     = 2102
	payloadAccountAuthRes     = 2103
	payloadNewOrderReq        = 2106
	payloadClosePositionReq   = 2111
	payloadAssetListReq       = 2112
	payloadAssetListRes       = 2113
	payloadSymbolByIDReq      = 2116
	payloadSymbolByIDRes      = 2117
	payloadTraderReq          = 2121
	payloadTraderRes          = 2122
	payloadReconcileReq       = 2124
	payloadReconcileRes       = 2125
	payloadExecutionEvent     = 2126
	payloadSubscribeSpotsReq  = 2127
	payloadSubscribeSpotsRes  = 2128
	payloadSpotEvent          = 2131
	payloadErrorRes           = 2142
	payloadAccountListReq     = 2150
	payloadAccountListRes     = 2151
)

// streamFrameTypes are server-initiated frames that never answer a request.
var streamFrameTypes = map[int]struct{}{
	payloadExecutionEvent: {},
	payloadSpotEvent:      {},
}

type applicationAuthReq struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type accountAuthReq struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	AccessToken         string `json:"accessToken"`
}

type accountListReq struct {
	AccessToken string `json:"accessToken"`
}

type accountListRes struct {
	CtidTraderAccount []struct {
		CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
	} `json:"ctidTraderAccount"`
}

type assetListReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type assetListRes struct {
	Asset []struct {
		AssetID int64  `json:"assetId"`
		Name    string `json:"name"`
		Digits  int    `json:"digits"`
	} `json:"asset"`
}

type traderReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type traderRes struct {
	Trader struct {
		DepositAssetID int64 `json:"depositAssetId"`
		Balance        int64 `json:"balance"`
		MoneyDigits    int   `json:"moneyDigits"`
	} `json:"trader"`
}

type symbolByIDReq struct {
	CtidTraderAccountID int64   `json:"ctidTraderAccountId"`
	SymbolID            []int64 `json:"symbolId"`
}

type symbolByIDRes struct {
	Symbol []struct {
		SymbolID     int64  `json:"symbolId"`
		SymbolName   string `json:"symbolName"`
		Digits       int    `json:"digits"`
		PipPosition  int    `json:"pipPosition"`
		LotSize      int64  `json:"lotSize"`
		BaseAssetID  int64  `json:"baseAssetId"`
		QuoteAssetID int64  `json:"quoteAssetId"`
		StepVolume   int64  `json:"stepVolume"`
	} `json:"symbol"`
}

type subscribeSpotsReq struct {
	CtidTraderAccountID      int64   `json:"ctidTraderAccountId"`
	SymbolID                 []int64 `json:"symbolId"`
	SubscribeToSpotTimestamp bool    `json:"subscribeToSpotTimestamp"`
}

type reconcileReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
}

type reconcileRes struct {
	Position []struct {
		PositionID int64      `json:"positionId"`
		TradeData  *tradeData `json:"tradeData"`
	} `json:"position"`
}

type tradeData struct {
	SymbolID  int64  `json:"symbolId"`
	TradeSide string `json:"tradeSide"`
	Volume    int64  `json:"volume"`
}

type newOrderReq struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	SymbolID            int64  `json:"symbolId"`
	OrderType           string `json:"orderType"`
	TradeSide           string `json:"tradeSide"`
	Volume              int64  `json:"volume"`
	StopLoss            *int64 `json:"stopLoss,omitempty"`
	TakeProfit          *int64 `json:"takeProfit,omitempty"`
	Comment             string `json:"comment,omitempty"`
}

type closePositionReq struct {
	CtidTraderAccountID int64 `json:"ctidTraderAccountId"`
	PositionID          int64 `json:"positionId"`
	Volume              int64 `json:"volume"`
}

type executionEvent struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	ExecutionType       string `json:"executionType"`

	Order *struct {
		ClosingOrder bool       `json:"closingOrder"`
		TradeData    *tradeData `json:"tradeData"`
		StopLoss     *int64     `json:"stopLoss"`
		TakeProfit   *int64     `json:"takeProfit"`
	} `json:"order"`

	Deal *struct {
		SymbolID            int64           `json:"symbolId"`
		TradeSide           string          `json:"tradeSide"`
		Volume              int64           `json:"volume"`
		ClosePositionDetail json.RawMessage `json:"closePositionDetail"`
	} `json:"deal"`

	SymbolID  int64  `json:"symbolId"`
	TradeSide string `json:"tradeSide"`
	Volume    int64  `json:"volume"`
}

type spotEvent struct {
	CtidTraderAccountID int64  `json:"ctidTraderAccountId"`
	SymbolID            int64  `json:"symbolId"`
	Bid                 uint64 `json:"bid"`
	Ask                 uint64 `json:"ask"`
}

type errorRes struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
}
