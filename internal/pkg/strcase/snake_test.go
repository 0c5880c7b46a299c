package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	for in, want := range map[string]string{
		"":                 "",
		"UserID":           "user_id",
		"NotificationType": "notification_type",
		"HTTPServer":       "http_server",
		"DeliveryChannel":  "delivery_channel",
		"Limit":            "limit",
		"Socs2Enabled":     "socs2_enabled",
		"already_snake":    "already_snake",
	} {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
