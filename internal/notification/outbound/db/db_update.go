package db

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

func (s *DB) UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `update notifications set delivery_status = $2 where id = $1`, id, int16(status))
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// MarkNotificationRead reports false when the notification is missing or owned by someone else.
func (s *DB) MarkNotificationRead(ctx context.Context, userID, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`update notifications set is_read = true, read_at = coalesce(read_at, now()) where id = $1 and user_id = $2`,
		id, userID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) MarkNotificationsReadAll(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationsReadAll")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`update notifications set is_read = true, read_at = now() where user_id = $1 and not is_read`,
		userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
