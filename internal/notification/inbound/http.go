package inbound

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandysiswandi/emunotify/internal/pkg/router"
)

type StreamConfig struct {
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cfg StreamConfig) {
	end := &HTTPEndpoint{
		uc:       uc,
		upgrader: newUpgrader(cfg.AllowedOrigins),
		wsWrite:  cfg.WriteTimeout,
	}

	r.GET("/api/v1/notification/inbox", end.ListInbox)
	r.GET("/api/v1/notification/inbox/unread-count", end.UnreadCount)
	r.PATCH("/api/v1/notification/inbox/:id/read", end.MarkInboxRead)
	r.PUT("/api/v1/notification/inbox/read-all", end.MarkAllInboxRead)
	r.DELETE("/api/v1/notification/inbox/:id", end.DeleteInbox)

	r.GET("/api/v1/notification/settings", end.ListSettings)
	r.PUT("/api/v1/notification/settings", end.UpdateSettings)
	r.POST("/api/v1/notification/mutes", end.Mute)
	r.DELETE("/api/v1/notification/mutes", end.Unmute)
	r.Public(http.MethodGet, "/api/v1/notification/unsubscribe")
	r.Public(http.MethodPost, "/api/v1/notification/unsubscribe")
	r.GET("/api/v1/notification/unsubscribe", end.Unsubscribe)
	r.POST("/api/v1/notification/unsubscribe", end.Unsubscribe)
	r.POST("/api/v1/notification/digest", end.ScheduleDigest)

	r.POST("/api/v1/notification/device", end.DeviceRegister)
	r.DELETE("/api/v1/notification/device", end.DeviceRemove)

	r.GETRaw("/api/v1/notification/stream", http.HandlerFunc(end.StreamNotifications))
	r.GETRaw("/api/v1/notification/ws", http.HandlerFunc(end.WebSocketNotifications))

	r.POST("/api/v1/notification/admin/send", end.AdminSend)
	r.POST("/api/v1/notification/admin/broadcast", end.AdminBroadcast)
	r.POST("/api/v1/notification/admin/events", end.AdminEmit)
	r.GET("/api/v1/notification/admin/rate-limits/:user_id", end.RateLimitStatus)
	r.DELETE("/api/v1/notification/admin/rate-limits/:user_id", end.ResetRateLimits)
	r.GET("/api/v1/notification/admin/rate-limit-rules", end.ListRateLimitRules)
	r.PUT("/api/v1/notification/admin/rate-limit-rules", end.PutRateLimitRule)
	r.DELETE("/api/v1/notification/admin/rate-limit-rules/:scope", end.DeleteRateLimitRule)
	r.GET("/api/v1/notification/admin/scheduler", end.SchedulerStatus)
	r.GET("/api/v1/notification/admin/realtime", end.RealtimeStatus)
	r.GET("/api/v1/notification/admin/analytics", end.Analytics)
}

type HTTPEndpoint struct {
	uc       uc
	upgrader websocket.Upgrader
	wsWrite  time.Duration
}
