package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/usecase"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/messaging"
	"github.com/shandysiswandi/emunotify/internal/pkg/uid"
	"github.com/shandysiswandi/emunotify/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc    ucConsumer
	uuid  uid.StringID
	idemp idempotency.Idempotency
	ins   instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// DomainEventNotification emits one published domain event onto the local bus.
// Redeliveries of a message ID that already went through are dropped.
func (h *MQHandler) DomainEventNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "DomainEventNotification")
	defer span.End()

	body := msg.Body()
	slog.DebugContext(ctx, "consume: domain event", "msg_body", string(body))

	var payload event.DomainEventMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of domain event", "msg_body", string(body), "attempts", msg.Attempts(), "error", err)
		return nil
	}

	key := payload.MessageID
	if key == "" {
		key = msg.ID()
	}

	consume := func(ctx context.Context) error {
		return h.uc.ConsumeDomainEvent(ctx, usecase.ConsumeDomainEventInput{
			EventType:   payload.EventType,
			EntityType:  payload.EntityType,
			EntityID:    payload.EntityID,
			TriggeredBy: payload.TriggeredBy,
			Payload:     payload.Payload,
		})
	}

	var err error
	if key == "" || h.idemp == nil {
		err = consume(ctx)
	} else {
		err = h.idemp.Exec(ctx, "domain_event:"+key, consume)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "domain event already consumed", "message_id", key, "event_type", payload.EventType)
		return nil
	}

	if goerror.HasType(err, goerror.TypeValidation) {
		slog.WarnContext(ctx, "dropping invalid domain event", "msg_body", string(body), "error", err)
		return nil
	}

	slog.ErrorContext(ctx, "failed to consume domain event", "msg_body", string(body), "attempts", msg.Attempts(), "error", err)
	return err
}
