package channel

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/realtime"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type inAppRepo interface {
	GetNotification(ctx context.Context, id int64) (*entity.NotificationRecord, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int64, error)
}

type pusher interface {
	Push(ctx context.Context, userID int64, f realtime.Frame) bool
}

// InApp treats a persisted record as delivered; the realtime push is best effort.
type InApp struct {
	repo inAppRepo
	push pusher
	ins  instrument.Instrumentation
}

func NewInApp(repo inAppRepo, push pusher, ins instrument.Instrumentation) *InApp {
	return &InApp{repo: repo, push: push, ins: ins}
}

func (c *InApp) Deliver(ctx context.Context, notificationID int64, _ entity.RenderedNotification) Result {
	ctx, span := c.ins.Tracer("notification.channel").Start(ctx, "InApp.Deliver",
		trace.WithAttributes(attribute.Int64("notification_id", notificationID)))
	defer span.End()

	record, err := c.repo.GetNotification(ctx, notificationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get notification for in-app delivery", "notification_id", notificationID, "error", err)
		return failed(entity.DeliveryChannelInApp, err)
	}

	if !c.push.Push(ctx, record.UserID, realtime.Frame{Type: realtime.FrameNotification, Data: NewPushPayload(*record)}) {
		slog.DebugContext(ctx, "user not reachable in realtime, notification stays in inbox", "user_id", record.UserID, "notification_id", notificationID)
	}

	c.PushUnreadCount(ctx, record.UserID)

	return Result{Channel: entity.DeliveryChannelInApp, Success: true}
}

// PushUnreadCount recomputes the unread count of userID and pushes it.
func (c *InApp) PushUnreadCount(ctx context.Context, userID int64) {
	count, err := c.repo.CountUnreadNotifications(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "failed to repo count unread notifications", "user_id", userID, "error", err)
		return
	}

	c.push.Push(ctx, userID, realtime.Frame{Type: realtime.FrameUnreadCount, Data: UnreadCountPayload{Count: count}})
}
