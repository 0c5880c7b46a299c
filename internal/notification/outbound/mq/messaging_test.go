package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/messaging"
	"github.com/shandysiswandi/emunotify/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	destination string
	msg         messaging.OutgoingMessage
	err         error
}

func (p *capturePublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	p.destination = destination
	p.msg = msg
	return messaging.PublishResult{}, p.err
}

func TestMessaging_PublishDelivered(t *testing.T) {
	pub := &capturePublisher{}
	m := NewMessaging(pub, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "cid-9")

	rec := entity.NotificationRecord{ID: 42, UserID: 7, Type: entity.TypeCommentReply, Title: "New reply", Message: "hi", ActionURL: "/listings/L"}
	require.NoError(t, m.PublishDelivered(ctx, rec, []string{"a", "b"}))

	assert.Equal(t, event.NotificationDeliveredDestination, pub.destination)
	assert.Equal(t, "notification-delivered:42", pub.msg.ID)
	require.Len(t, pub.msg.Headers, 1)
	assert.Equal(t, "cid-9", string(pub.msg.Headers[0].Value))

	var body event.NotificationDeliveredMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
	assert.Equal(t, int64(42), body.NotificationID)
	assert.Equal(t, "COMMENT_REPLY", body.Type)
	assert.Equal(t, []string{"a", "b"}, body.DeviceTokens)
	assert.Contains(t, string(pub.msg.Body), `"notification_id":"42"`)

	pub.err = errors.New("broker down")
	assert.Error(t, m.PublishDelivered(ctx, rec, []string{"a"}))
}
