package event

const NotificationDeliveredDestination string = "notification.delivered"

// NotificationDeliveredMessage lets the mobile push gateway fan a delivered
// notification out to the user's registered devices.
type NotificationDeliveredMessage struct {
	NotificationID int64    `json:"notification_id,string"`
	UserID         int64    `json:"user_id"`
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	ActionURL      string   `json:"action_url,omitempty"`
	DeviceTokens   []string `json:"device_tokens"`
}
