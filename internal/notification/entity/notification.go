package entity

import (
	"time"

	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

// RenderedNotification is the template output bound to one recipient.
type RenderedNotification struct {
	UserID          int64
	Type            NotificationType
	Category        Category
	Title           string
	Message         string
	ActionURL       string
	Metadata        valueobject.JSONMap
	DeliveryChannel DeliveryChannel
}

type NotificationRecord struct {
	ID              int64
	UserID          int64
	Type            NotificationType
	Category        Category
	Title           string
	Message         string
	ActionURL       string
	Metadata        valueobject.JSONMap
	DeliveryChannel DeliveryChannel
	DeliveryStatus  DeliveryStatus
	IsRead          bool
	CreatedAt       time.Time
}

// PendingNotification lives only in the batch queue.
type PendingNotification struct {
	ID             string
	NotificationID int64
	UserID         int64
	Data           RenderedNotification
	ScheduledFor   time.Time
	Attempts       int
	MaxAttempts    int
}

type Preference struct {
	UserID       int64
	Type         NotificationType
	InAppEnabled bool
	EmailEnabled bool
}

// Channel returns the delivery channel the preference allows.
func (p Preference) Channel() DeliveryChannel {
	return DeliveryChannelFromFlags(p.InAppEnabled, p.EmailEnabled)
}

type BanStatus struct {
	UserID    int64
	ExpiresAt *time.Time
}

// ActiveAt reports whether the ban is in force at now. A ban without expiry never lapses.
func (b BanStatus) ActiveAt(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

type UserProfile struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

type ListingDetail struct {
	ID           string
	AuthorID     int64
	GameTitle    string
	DeviceName   string
	EmulatorName string
	SocName      string
}

type EntityMute struct {
	UserID     int64
	EntityType string
	EntityID   string
}

type Device struct {
	UserID   int64
	Token    string
	Platform string
}

type NotificationStats struct {
	Since     time.Time                  `json:"since"`
	Total     int64                      `json:"total"`
	Unread    int64                      `json:"unread"`
	ByStatus  map[string]int64           `json:"by_status"`
	ByChannel map[string]int64           `json:"by_channel"`
	ByType    map[NotificationType]int64 `json:"by_type"`
}
