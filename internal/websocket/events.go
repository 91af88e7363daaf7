// internal/websocket/events.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	wstypes "invoicely-service/internal/domain/websocket"
	xerrors "invoicely-service/internal/pkg/errors"
)

// Handshake failures. All of them match xerrors.ErrUnauthorized.
var (
	ErrMissingToken     = xerrors.Wrap(xerrors.ErrUnauthorized, "missing token")
	ErrInvalidToken     = xerrors.Wrap(xerrors.ErrUnauthorized, "invalid token")
	ErrTokenBlacklisted = xerrors.Wrap(xerrors.ErrUnauthorized, "token revoked")
	ErrSessionEnded     = xerrors.Wrap(xerrors.ErrUnauthorized, "session ended")
)

// MessageHandler serves the client events listed by SupportedEvents.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// eventRoutes maps event types to handlers. Handlers may be added while the hub runs.
type eventRoutes struct {
	mu       sync.RWMutex
	handlers map[wstypes.EventType]MessageHandler
}

func (r *eventRoutes) add(handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[wstypes.EventType]MessageHandler)
	}
	for _, event := range handler.SupportedEvents() {
		r.handlers[event] = handler
	}
}

func (r *eventRoutes) lookup(event wstypes.EventType) (MessageHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[event]
	return handler, ok
}

// DecodeData copies a loosely typed message payload into target.
func DecodeData(data interface{}, target interface{}) error {
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
