package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/channel"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/scheduler"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
)

type CreateOptions struct {
	// Immediate persists and attempts delivery once, synchronously.
	Immediate bool
	// ScheduledFor delays a batched notification. Ignored when Immediate is set.
	ScheduledFor time.Time
}

// CreateNotification persists and delivers data now, or hands it to the batch
// scheduler. The record is returned only on the immediate path.
func (s *Usecase) CreateNotification(ctx context.Context, data entity.RenderedNotification, opts CreateOptions) (_ *entity.NotificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	if !opts.Immediate {
		var schedOpts []scheduler.Option
		if !opts.ScheduledFor.IsZero() {
			schedOpts = append(schedOpts, scheduler.WithScheduledFor(opts.ScheduledFor))
		}
		s.scheduler.Schedule(ctx, data, schedOpts...)
		return nil, nil
	}

	record := s.newRecord(s.uid.Generate(), data)
	if err := s.repoDB.CreateNotification(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "user_id", data.UserID, "notification_type", data.Type, "error", err)
		return nil, err
	}

	record.DeliveryStatus, err = s.deliver(ctx, record.ID, data)
	return &record, err
}

// ProcessNotification delivers one batched item. The first attempt inserts the
// record; retries reset the same record to PENDING.
func (s *Usecase) ProcessNotification(ctx context.Context, p *entity.PendingNotification) (err error) {
	ctx, span := s.startSpan(ctx, "ProcessNotification")
	defer func() { s.endSpan(span, err) }()

	span.SetAttributes(attribute.Int64("notification_id", p.NotificationID), attribute.Int("attempts", p.Attempts))

	if err := s.repoDB.CreateNotification(ctx, s.newRecord(p.NotificationID, p.Data)); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "notification_id", p.NotificationID, "user_id", p.UserID, "error", err)
		return err
	}

	_, err = s.deliver(ctx, p.NotificationID, p.Data)
	return err
}

func (s *Usecase) newRecord(id int64, data entity.RenderedNotification) entity.NotificationRecord {
	metadata := data.Metadata
	if metadata == nil {
		metadata = valueobject.JSONMap{}
	}

	return entity.NotificationRecord{
		ID:              id,
		UserID:          data.UserID,
		Type:            data.Type,
		Category:        data.Category,
		Title:           data.Title,
		Message:         data.Message,
		ActionURL:       data.ActionURL,
		Metadata:        metadata,
		DeliveryChannel: data.DeliveryChannel,
		DeliveryStatus:  entity.DeliveryStatusPending,
		CreatedAt:       s.clock.Now(),
	}
}

// deliver fans out to the enabled channels and settles the record as SENT when at
// least one succeeded, FAILED otherwise.
func (s *Usecase) deliver(ctx context.Context, id int64, data entity.RenderedNotification) (entity.DeliveryStatus, error) {
	var results []channel.Result
	if data.DeliveryChannel.InApp() {
		results = append(results, s.inApp.Deliver(ctx, id, data))
	}
	if data.DeliveryChannel.Email() {
		results = append(results, s.email.Deliver(ctx, data))
	}

	status := entity.DeliveryStatusFailed
	var errs []error
	for _, r := range results {
		if r.Success {
			status = entity.DeliveryStatusSent
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Channel, r.Err))
	}
	if len(results) == 0 {
		errs = append(errs, entity.ErrNoDeliveryChannel)
	}

	if err := s.repoDB.UpdateDeliveryStatus(ctx, id, status); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery status", "notification_id", id, "status", status.String(), "error", err)
		return status, err
	}

	if status == entity.DeliveryStatusFailed {
		return status, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, errors.Join(errs...))
	}

	for _, err := range errs {
		slog.WarnContext(ctx, "notification channel failed, delivered on another channel", "notification_id", id, "error", err)
	}

	s.afterDelivered(ctx, id, data)

	return status, nil
}

func (s *Usecase) afterDelivered(ctx context.Context, id int64, data entity.RenderedNotification) {
	if err := s.repoCache.InvalidateStats(ctx); err != nil {
		slog.WarnContext(ctx, "failed to cache invalidate notification stats", "error", err)
	}

	if s.repoMQ == nil {
		return
	}

	tokens, err := s.repoDB.ListUserDeviceTokens(ctx, data.UserID)
	if err != nil {
		slog.WarnContext(ctx, "failed to repo list device tokens", "user_id", data.UserID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	record := s.newRecord(id, data)
	record.DeliveryStatus = entity.DeliveryStatusSent
	if err := s.repoMQ.PublishDelivered(ctx, record, tokens); err != nil {
		slog.WarnContext(ctx, "failed to publish notification delivered", "notification_id", id, "error", err)
	}
}
