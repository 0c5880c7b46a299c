package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/messaging"
	"github.com/shandysiswandi/emunotify/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishDelivered hands a delivered notification to the mobile push gateway.
func (m *Messaging) PublishDelivered(ctx context.Context, r entity.NotificationRecord, deviceTokens []string) error {
	ctx, span := m.ins.Tracer("notification.outbound.mq").Start(ctx, "PublishDelivered")
	defer span.End()

	span.SetAttributes(attribute.Int64("notification_id", r.ID), attribute.Int("device_tokens", len(deviceTokens)))

	body, err := json.Marshal(event.NotificationDeliveredMessage{
		NotificationID: r.ID,
		UserID:         r.UserID,
		Type:           r.Type.String(),
		Title:          r.Title,
		Message:        r.Message,
		ActionURL:      r.ActionURL,
		DeviceTokens:   deviceTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.NotificationDeliveredDestination, messaging.OutgoingMessage{
		ID:      "notification-delivered:" + strconv.FormatInt(r.ID, 10),
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
