// internal/websocket/handler/stats.go
package handler

import (
	"context"

	"invoicely-service/internal/domain/admin"
	wstypes "invoicely-service/internal/domain/websocket"
	ws "invoicely-service/internal/websocket"
)

// OverviewSource computes the admin overview.
type OverviewSource interface {
	GetOverview(ctx context.Context, query string) (*admin.Overview, error)
}

// StatsHandler answers stats:request from admin sockets with a fresh snapshot.
type StatsHandler struct {
	overview OverviewSource
}

func NewStatsHandler(overview OverviewSource) *StatsHandler {
	return &StatsHandler{overview: overview}
}

func (h *StatsHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeStatsRequest}
}

func (h *StatsHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if !client.IsAdmin() {
		client.SendError("forbidden", "Admin role required", "")
		return nil
	}

	var req struct {
		Search string `json:"search"`
	}
	if msg.Data != nil {
		if err := ws.DecodeData(msg.Data, &req); err != nil {
			client.SendError("invalid_request", "Invalid stats request", err.Error())
			return nil
		}
	}

	overview, err := h.overview.GetOverview(ctx, req.Search)
	if err != nil {
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeStatsSnapshot, map[string]interface{}{
		"stats":    overview.Stats,
		"warnings": overview.Warnings,
	}))
	return nil
}
