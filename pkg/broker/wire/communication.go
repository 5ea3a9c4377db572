package wire

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

func sendReceive[Out any](
	ctx context.Context,
	conn *connection,
	reqType, resType int,
	in any,
	out *Out,
) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cannot marshal payload: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("cannot create uuid: %w", err)
	}
	msgID := id.String()

	f := frame{
		PayloadType: reqType,
		ClientMsgID: msgID,
		Payload:     payload,
	}

	respChan := make(chan frame, 1)
	conn.pending.Store(msgID, respChan)
	defer conn.pending.Delete(msgID)

	// Send message or abort on context cancel
	select {
	case conn.writeChan <- f:
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.ctx.Done():
		return conn.ctx.Err()
	}

	// Wait for response or cancel
	select {
	case response, ok := <-respChan:
		if !ok {
			return fmt.Errorf("response channel closed")
		}
		if response.PayloadType == payloadErrorRes {
			var e errorRes
			if err := json.Unmarshal(response.Payload, &e); err != nil {
				return fmt.Errorf("cannot decode error response: %w", err)
			}
			return fmt.Errorf("request rejected: %s: %s", e.ErrorCode, e.Description)
		}
		if response.PayloadType != resType {
			return fmt.Errorf("unexpected response type %d, want %d", response.PayloadType, resType)
		}
		if out != nil {
			if err := json.Unmarshal(response.Payload, out); err != nil {
				return fmt.Errorf("cannot decode response payload: %w", err)
			}
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.ctx.Done():
		return conn.ctx.Err()
	}

	return nil
}

func send(ctx context.Context, conn *connection, reqType int, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cannot marshal payload: %w", err)
	}

	f := frame{
		PayloadType: reqType,
		Payload:     payload,
	}

	select {
	case conn.writeChan <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.ctx.Done():
		return conn.ctx.Err()
	}
}

func subscribe(conn *connection, frameType int, cb func(frame)) func() {

	internalChan := make(chan frame, 256)

	conn.subscribersMu.Lock()
	conn.subscribers[frameType] = append(conn.subscribers[frameType], internalChan)
	conn.subscribersMu.Unlock()

	// Decode loop
	ctx, cancel := context.WithCancel(conn.ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-internalChan:
				if !ok {
					return
				}
				cb(f)
			}
		}
	}()

	unsub := func() {
		cancel()
		conn.subscribersMu.Lock()
		defer conn.subscribersMu.Unlock()
		channels := conn.subscribers[frameType]
		for i := range channels {
			if channels[i] == internalChan {
				conn.subscribers[frameType] = append(channels[:i], channels[i+1:]...)
				close(internalChan)
				break
			}
		}
	}

	return unsub
}
