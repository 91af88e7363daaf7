// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"
	"time"

	"invoicely-service/internal/domain/user"
	wstypes "invoicely-service/internal/domain/websocket"
	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/pkg/metrics"
	"invoicely-service/internal/pkg/session"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	routes eventRoutes

	jwtVerifier *jwt.Verifier
	sessions    session.Store
	logger      *zap.Logger
}

// BroadcastMessage targets UserIDs, or every client when UserIDs is nil.
type BroadcastMessage struct {
	UserIDs []string
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, sessions session.Store, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		Register:    make(chan *Client),
		unregister:  make(chan *Client, 64),
		broadcast:   make(chan *BroadcastMessage, 256),
		jwtVerifier: jwtVerifier,
		sessions:    sessions,
		logger:      logger,
	}
}

// AuthenticateClient accepts only a valid access token backed by a live session.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	blacklisted, err := h.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	sd, err := h.sessions.GetSession(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, ErrSessionEnded
	}

	return &ClientAuth{
		UserID:    sd.UserID,
		SessionID: claims.ID,
		Role:      sd.Role,
		Email:     sd.Email,
		Device:    claims.Device,
	}, nil
}

func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.routes.add(handler)
}

// HandleClientMessage reports whether a registered handler consumed msg.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.routes.lookup(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.drain()
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// drain delivers broadcasts queued before Run was asked to stop.
func (h *Hub) drain() {
	for {
		select {
		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		default:
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	metrics.WebsocketClients.Inc()

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":  client.userID,
		"role":     client.role,
		"channels": client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.Close()
	metrics.WebsocketClients.Dec()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info("websocket client disconnected",
		zap.String("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	send := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			send(clients)
		}
		return
	}
	for _, userID := range msg.UserIDs {
		send(h.clients[userID])
	}
}

// enqueue never blocks the request path; a full queue drops the event.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", zap.String("type", string(msg.Message.Type)))
	}
}

func (h *Hub) GetConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// ========== Notifications ==========

func (h *Hub) NotifyPlanChanged(userID string, plan user.Plan, expiresAt *time.Time) {
	h.enqueue(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelAccount,
		Message: wstypes.NewMessage(wstypes.EventTypePlanChanged, wstypes.PlanChangedData{
			Plan:          string(plan),
			PlanExpiresAt: expiresAt,
		}),
	})
}

func (h *Hub) ForceLogout(userID, reason string) {
	h.enqueue(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelAccount,
		Message: wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
			Reason:  reason,
			Message: "You have been signed out",
		}),
	})
}

// StatsInvalidated tells admin dashboards that their aggregates are out of date.
func (h *Hub) StatsInvalidated(reason, userID string) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelAdmin,
		Message: wstypes.NewMessage(wstypes.EventTypeStatsInvalidated, wstypes.StatsInvalidatedData{
			Reason: reason,
			UserID: userID,
		}),
	})
}

func (h *Hub) BroadcastSystemAlert(alert *wstypes.SystemAlertData) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelSystem,
		Message: wstypes.NewMessage(wstypes.EventTypeSystemAlert, alert),
	})
}

func (h *Hub) IsUserConnected(userID string) bool {
	return h.GetConnectedClients(userID) > 0
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
			metrics.WebsocketClients.Dec()
		}
		delete(h.clients, userID)
	}
}
