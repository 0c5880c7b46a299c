package inbound

import (
	"strconv"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/ratelimit"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

type NotificationResponse struct {
	ID              string              `json:"id"`
	Type            string              `json:"type"`
	Category        string              `json:"category"`
	Title           string              `json:"title"`
	Message         string              `json:"message"`
	ActionURL       string              `json:"action_url,omitempty"`
	Metadata        valueobject.JSONMap `json:"metadata" swaggertype:"object"`
	DeliveryChannel string              `json:"delivery_channel"`
	DeliveryStatus  string              `json:"delivery_status"`
	IsRead          bool                `json:"is_read"`
	CreatedAt       time.Time           `json:"created_at"`
}

func newNotificationResponse(r entity.NotificationRecord) NotificationResponse {
	return NotificationResponse{
		ID:              strconv.FormatInt(r.ID, 10),
		Type:            r.Type.String(),
		Category:        r.Category.String(),
		Title:           r.Title,
		Message:         r.Message,
		ActionURL:       r.ActionURL,
		Metadata:        r.Metadata,
		DeliveryChannel: r.DeliveryChannel.String(),
		DeliveryStatus:  r.DeliveryStatus.String(),
		IsRead:          r.IsRead,
		CreatedAt:       r.CreatedAt,
	}
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type NotificationSettingResponse struct {
	Type         string `json:"type"`
	Category     string `json:"category"`
	InAppEnabled bool   `json:"in_app_enabled"`
	EmailEnabled bool   `json:"email_enabled"`
	IsDefault    bool   `json:"is_default"`
}

type NotificationSettingsResponse struct {
	Settings []NotificationSettingResponse `json:"settings"`
}

type NotificationSettingRequest struct {
	Type         string `json:"type"`
	InAppEnabled bool   `json:"in_app_enabled"`
	EmailEnabled bool   `json:"email_enabled"`
}

type NotificationSettingsUpdateRequest struct {
	Settings []NotificationSettingRequest `json:"settings"`
}

type MuteRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type UnsubscribeResponse struct {
	Type         string `json:"type"`
	EmailEnabled bool   `json:"email_enabled"`
}

type DigestResponse struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token"`
	Platform    string `json:"platform"`
}

type RemoveDeviceRequest struct {
	DeviceToken string `json:"device_token"`
}

type AdminSendRequest struct {
	UserID    int64               `json:"user_id,string"`
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	ActionURL string              `json:"action_url"`
	Channel   string              `json:"channel"`
	Metadata  valueobject.JSONMap `json:"metadata" swaggertype:"object"`
}

type AdminBroadcastRequest struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"action_url"`
	Channel   string `json:"channel"`
}

type AdminEmitRequest struct {
	EventType  string              `json:"event_type"`
	EntityType string              `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Payload    valueobject.JSONMap `json:"payload" swaggertype:"object"`
}

type RateLimitStatusResponse struct {
	UserID  string                  `json:"user_id"`
	Entries []ratelimit.EntryStatus `json:"entries"`
}

type RateLimitResetResponse struct {
	Cleared int `json:"cleared"`
}

type RateLimitRuleRequest struct {
	Scope         string `json:"scope"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int64  `json:"window_seconds"`
	UserSpecific  bool   `json:"user_specific"`
}

type RateLimitRuleResponse struct {
	Scope         string `json:"scope"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int64  `json:"window_seconds"`
	UserSpecific  bool   `json:"user_specific"`
}

type RateLimitRulesResponse struct {
	Rules []RateLimitRuleResponse `json:"rules"`
}
