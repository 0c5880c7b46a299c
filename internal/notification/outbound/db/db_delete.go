package db

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

func (s *DB) DeleteNotification(ctx context.Context, userID, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteNotification")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `delete from notifications where id = $1 and user_id = $2`, id, userID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) UnmuteEntity(ctx context.Context, m entity.EntityMute) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UnmuteEntity")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`delete from notification_entity_mutes where user_id = $1 and entity_type = $2 and entity_id = $3`,
		m.UserID, m.EntityType, m.EntityID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) RemoveUserDevice(ctx context.Context, userID int64, token string) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveUserDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `delete from notification_devices where user_id = $1 and token = $2`, userID, token)
	return s.mapError(err)
}
