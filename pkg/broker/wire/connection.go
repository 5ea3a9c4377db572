package wire

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type connection struct {
	conn   *websocket.Conn
	logger *zap.Logger

	ctx       context.Context
	ctxCancel context.CancelFunc

	writeChan chan frame

	pending       sync.Map // map[string]chan frame
	subscribersMu sync.RWMutex
	subscribers   map[int][]chan frame
}

func newConnection(conn *websocket.Conn, logger *zap.Logger) *connection {
	ctx, cancel := context.WithCancel(context.Background())

	c := &connection{
		conn:        conn,
		logger:      logger,
		ctx:         ctx,
		ctxCancel:   cancel,
		writeChan:   make(chan frame, 100),
		subscribers: make(map[int][]chan frame),
	}
	return c
}

func (c *connection) start() {
	go c.read()
	go c.write()
}

func (c *connection) stop() {
	c.ctxCancel()
	_ = c.conn.Close()
}

func (c *connection) read() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				c.logger.Warn("cannot read data", zap.Error(err))
				time.Sleep(1 * time.Second) // prevent tight loop
				return
			}

			var f frame
			if err := json.Unmarshal(message, &f); err != nil {
				c.logger.Warn("unmarshal failed",
					zap.ByteString("raw", message),
					zap.Error(err))
				time.Sleep(100 * time.Millisecond)
				continue
			}

			_, isStream := streamFrameTypes[f.PayloadType]

			c.logger.Debug("read",
				zap.Int("type", f.PayloadType),
				zap.ByteString("payload", f.Payload))

			// Correlated frames first, so error responses reach the waiting
			// request instead of being dropped.
			if !isStream && f.ClientMsgID != "" {
				if ch, ok := c.pending.LoadAndDelete(f.ClientMsgID); ok {
					select {
					case ch.(chan frame) <- f:
					default: // drop if blocked
					}
				}
			} else if isStream {
				c.subscribersMu.RLock()
				for _, ch := range c.subscribers[f.PayloadType] {
					select {
					case ch <- f:
					default: // drop if blocked
					}
				}
				c.subscribersMu.RUnlock()
			}
		}
	}
}

func (c *connection) write() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case f, ok := <-c.writeChan:
			if !ok {
				return
			}

			c.logger.Debug("write",
				zap.Int("type", f.PayloadType),
				zap.ByteString("payload", f.Payload))

			data, err := json.Marshal(f)
			if err != nil {
				c.logger.Warn("failed to marshal message", zap.Error(err))
				continue
			}

			if err = c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("failed to write to connection", zap.Error(err))
				time.Sleep(1 * time.Second) // prevent tight loop
				continue
			}
		}
	}
}
