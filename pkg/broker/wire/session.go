package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/peter-kozarec/parity/pkg/broker"
	"github.com/peter-kozarec/parity/pkg/common"
)

const (
	EndpointLive = "wss://live.ctraderapi.com:5036"
	EndpointDemo = "wss://demo.ctraderapi.com:5036"
)

// Session is the websocket-backed broker.Session. One session multiplexes
// every account over a single connection.
type Session struct {
	conn   *connection
	logger *zap.Logger

	appID       string
	appSecret   string
	accessToken string
}

func Dial(logger *zap.Logger, endpoint, appID, appSecret, accessToken string) (*Session, error) {
	wsConn, _, err := websocket.DefaultDialer.Dial(endpoint, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("unable to dial %s: %w", endpoint, err)
	}

	conn := newConnection(wsConn, logger)
	conn.start()

	s := &Session{
		conn:        conn,
		logger:      logger,
		appID:       appID,
		appSecret:   appSecret,
		accessToken: accessToken,
	}

	s.keepAlive(time.Second * 30)
	return s, nil
}

func (s *Session) Close() {
	s.conn.stop()
}

func (s *Session) AuthorizeApplication(ctx context.Context) error {

	req := applicationAuthReq{ClientID: s.appID, ClientSecret: s.appSecret}
	var resp struct{}

	if err := sendReceive(ctx, s.conn, payloadApplicationAuthReq, payloadApplicationAuthRes, req, &resp); err != nil {
		return fmt.Errorf("unable to perform application authorization request: %w", err)
	}

	return nil
}

func (s *Session) AuthorizeAccount(ctx context.Context, account common.AccountID) error {

	req := accountAuthReq{CtidTraderAccountID: account, AccessToken: s.accessToken}
	var resp struct{}

	if err := sendReceive(ctx, s.conn, payloadAccountAuthReq, payloadAccountAuthRes, req, &resp); err != nil {
		return fmt.Errorf("unable to perform account authorization request: %w", err)
	}

	return nil
}

func (s *Session) AccountList(ctx context.Context) ([]common.AccountID, error) {

	req := accountListReq{AccessToken: s.accessToken}
	var resp accountListRes

	if err := sendReceive(ctx, s.conn, payloadAccountListReq, payloadAccountListRes, req, &resp); err != nil {
		return nil, fmt.Errorf("unable to retrieve account list: %w", err)
	}

	accounts := make([]common.AccountID, 0, len(resp.CtidTraderAccount))
	for _, a := range resp.CtidTraderAccount {
		accounts = append(accounts, a.CtidTraderAccountID)
	}
	return accounts, nil
}

func (s *Session) AssetList(ctx context.Context, account common.AccountID) ([]broker.AssetInfo, error) {

	req := assetListReq{CtidTraderAccountID: account}
	var resp assetListRes

	if err := sendReceive(ctx, s.conn, payloadAssetListReq, payloadAssetListRes, req, &resp); err != nil {
		return nil, fmt.Errorf("unable to retrieve asset list: %w", err)
	}

	assets := make([]broker.AssetInfo, 0, len(resp.Asset))
	for _, a := range resp.Asset {
		assets = append(assets, broker.AssetInfo{
			ID:     a.AssetID,
			Name:   a.Name,
			Digits: a.Digits,
		})
	}
	return assets, nil
}

func (s *Session) TraderInfo(ctx context.Context, account common.AccountID) (broker.TraderInfo, error) {

	req := traderReq{CtidTraderAccountID: account}
	var resp traderRes

	if err := sendReceive(ctx, s.conn, payloadTraderReq, payloadTraderRes, req, &resp); err != nil {
		return broker.TraderInfo{}, fmt.Errorf("unable to perform trader request: %w", err)
	}

	return broker.TraderInfo{
		DepositAssetID: resp.Trader.DepositAssetID,
		Balance:        resp.Trader.Balance,
		MoneyDigits:    resp.Trader.MoneyDigits,
	}, nil
}

func (s *Session) InstrumentReferences(ctx context.Context, account common.AccountID, instruments []common.InstrumentID) ([]broker.InstrumentReference, error) {

	req := symbolByIDReq{CtidTraderAccountID: account, SymbolID: instruments}
	var resp symbolByIDRes

	if err := sendReceive(ctx, s.conn, payloadSymbolByIDReq, payloadSymbolByIDRes, req, &resp); err != nil {
		return nil, fmt.Errorf("unable to perform symbol by id request: %w", err)
	}

	references := make([]broker.InstrumentReference, 0, len(resp.Symbol))
	for _, sym := range resp.Symbol {
		references = append(references, broker.InstrumentReference{
			ID:           sym.SymbolID,
			Name:         sym.SymbolName,
			Digits:       sym.Digits,
			PipPosition:  sym.PipPosition,
			LotSize:      sym.LotSize,
			BaseAssetID:  sym.BaseAssetID,
			QuoteAssetID: sym.QuoteAssetID,
			VolumeStep:   sym.StepVolume,
		})
	}
	return references, nil
}

func (s *Session) SubscribeSpots(ctx context.Context, account common.AccountID, instruments []common.InstrumentID) error {

	req := subscribeSpotsReq{
		CtidTraderAccountID:      account,
		SymbolID:                 instruments,
		SubscribeToSpotTimestamp: true,
	}
	var resp struct{}

	if err := sendReceive(ctx, s.conn, payloadSubscribeSpotsReq, payloadSubscribeSpotsRes, req, &resp); err != nil {
		return fmt.Errorf("unable to perform subscribe spots request: %w", err)
	}

	return nil
}

func (s *Session) ListOpenPositions(ctx context.Context, account common.AccountID) ([]broker.PositionSnapshot, error) {

	req := reconcileReq{CtidTraderAccountID: account}
	var resp reconcileRes

	if err := sendReceive(ctx, s.conn, payloadReconcileReq, payloadReconcileRes, req, &resp); err != nil {
		return nil, fmt.Errorf("unable to perform reconcile request: %w", err)
	}

	positions := make([]broker.PositionSnapshot, 0, len(resp.Position))
	for _, p := range resp.Position {
		snapshot := broker.PositionSnapshot{ID: p.PositionID}
		if p.TradeData != nil {
			snapshot.Instrument = p.TradeData.SymbolID
			snapshot.Side = sideFromWire(p.TradeData.TradeSide)
			snapshot.Volume = p.TradeData.Volume
		}
		positions = append(positions, snapshot)
	}
	return positions, nil
}

func (s *Session) SubmitOpenOrder(ctx context.Context, req broker.OpenOrderRequest) error {

	order := newOrderReq{
		CtidTraderAccountID: req.Account,
		SymbolID:            req.Instrument,
		OrderType:           "MARKET",
		TradeSide:           sideToWire(req.Side),
		Volume:              req.Volume,
		StopLoss:            req.StopLoss,
		TakeProfit:          req.TakeProfit,
		Comment:             req.Comment,
	}

	return send(ctx, s.conn, payloadNewOrderReq, order)
}

func (s *Session) SubmitClosePosition(ctx context.Context, req broker.ClosePositionRequest) error {

	body := closePositionReq{
		CtidTraderAccountID: req.Account,
		PositionID:          req.Position,
		Volume:              req.Volume,
	}

	return send(ctx, s.conn, payloadClosePositionReq, body)
}

func (s *Session) OnExecution(handler func(broker.ExecutionNotice)) {
	subscribe(s.conn, payloadExecutionEvent, func(f frame) {
		var event executionEvent
		if err := json.Unmarshal(f.Payload, &event); err != nil {
			s.logger.Warn("unable to unmarshal execution event", zap.Error(err))
			return
		}
		handler(noticeFromWire(event))
	})
}

func (s *Session) OnSpot(handler func(broker.SpotQuote)) {
	subscribe(s.conn, payloadSpotEvent, func(f frame) {
		var event spotEvent
		if err := json.Unmarshal(f.Payload, &event); err != nil {
			s.logger.Warn("unable to unmarshal spot event", zap.Error(err))
			return
		}
		handler(broker.SpotQuote{
			Account:    event.CtidTraderAccountID,
			Instrument: event.SymbolID,
			Bid:        event.Bid,
			Ask:        event.Ask,
		})
	})
}

func (s *Session) keepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-s.conn.ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				s.conn.writeChan <- frame{PayloadType: payloadHeartbeatEvent}
			}
		}
	}()
}
