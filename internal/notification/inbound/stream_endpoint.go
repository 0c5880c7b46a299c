package inbound

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
)

// StreamNotifications pushes realtime frames to the client using SSE.
// @Summary Stream notifications
// @Description Streams notification, unread count and broadcast frames using Server-Sent Events.
// @Description Browsers may pass the token as access_token.
// @Tags Notification
// @Security BearerAuth
// @Produce text/event-stream
// @Param access_token query string false "Access token for EventSource clients"
// @Success 200 {string} string "SSE stream"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "streaming unsupported"
// @Router /api/v1/notification/stream [get]
func (h *HTTPEndpoint) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sink, err := realtime.NewSSESink(w)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	defer sink.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	userID, err := h.uc.SubscribeRealtime(ctx, sink)
	if err != nil {
		slog.WarnContext(ctx, "failed to open notification stream", "error", err)
		return
	}
	defer h.uc.UnsubscribeRealtime(userID, sink)

	select {
	case <-ctx.Done():
	case <-sink.Done():
	}
}

// WebSocketNotifications pushes realtime frames to the client over a websocket.
// @Summary Notification websocket
// @Description Upgrades to a websocket carrying the same frames as the SSE stream.
// @Tags Notification
// @Security BearerAuth
// @Param access_token query string false "Access token for browser clients"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {string} string "Unauthorized"
// @Router /api/v1/notification/ws [get]
func (h *HTTPEndpoint) WebSocketNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "failed to upgrade websocket", "error", err)
		return
	}

	sink := realtime.NewWebSocketSink(conn, h.wsWrite)

	userID, err := h.uc.SubscribeRealtime(ctx, sink)
	if err != nil {
		slog.WarnContext(ctx, "failed to open notification websocket", "error", err)
		_ = sink.Close()
		return
	}
	defer h.uc.UnsubscribeRealtime(userID, sink)

	if err := sink.ReadLoop(); err != nil {
		slog.DebugContext(ctx, "notification websocket closed", "user_id", userID, "error", err)
	}
}

// newUpgrader allows same-origin requests and, when configured, the listed origins.
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
				return true
			}

			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}
