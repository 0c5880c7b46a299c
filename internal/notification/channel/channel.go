// Package channel delivers one rendered notification over one transport.
//
// Channels never return errors to their caller. Every failure, including transport
// panics surfaced as errors by the provider, is folded into a Result.
package channel

import (
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

type Result struct {
	Channel entity.DeliveryChannel
	Success bool
	Err     error
}

func failed(ch entity.DeliveryChannel, err error) Result {
	return Result{Channel: ch, Success: false, Err: err}
}

// PushPayload is the notification body sent over realtime connections.
type PushPayload struct {
	ID        int64               `json:"id,string"`
	Type      string              `json:"type"`
	Category  string              `json:"category"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	ActionURL string              `json:"action_url,omitempty"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	IsRead    bool                `json:"is_read"`
	CreatedAt time.Time           `json:"created_at"`
}

func NewPushPayload(r entity.NotificationRecord) PushPayload {
	return PushPayload{
		ID:        r.ID,
		Type:      r.Type.String(),
		Category:  r.Category.String(),
		Title:     r.Title,
		Message:   r.Message,
		ActionURL: r.ActionURL,
		Metadata:  r.Metadata,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

// UnreadCountPayload is pushed whenever the user's unread count may have changed.
type UnreadCountPayload struct {
	Count int64 `json:"count"`
}
