package db

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

// A retried batch item reuses its id, so the conflict branch only resets the status.
const createNotification = `insert into notifications
	(id, user_id, type, category, title, message, action_url, metadata, delivery_channel, delivery_status, is_read, created_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11)
on conflict (id) do update set delivery_status = excluded.delivery_status`

func (s *DB) CreateNotification(ctx context.Context, r entity.NotificationRecord) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	metadata := r.Metadata
	if metadata == nil {
		metadata = valueobject.JSONMap{}
	}

	_, err = s.conn.Exec(ctx, createNotification,
		r.ID,
		r.UserID,
		r.Type.String(),
		r.Category.String(),
		r.Title,
		r.Message,
		r.ActionURL,
		metadata,
		int16(r.DeliveryChannel),
		int16(r.DeliveryStatus),
		r.CreatedAt,
	)
	return s.mapError(err)
}

const registerUserDevice = `insert into notification_devices (token, user_id, platform)
values ($1, $2, $3)
on conflict (token) do update set user_id = excluded.user_id, platform = excluded.platform, updated_at = now()`

// RegisterUserDevice moves a token to the latest user that registered it.
func (s *DB) RegisterUserDevice(ctx context.Context, d entity.Device) (err error) {
	ctx, span := s.startSpan(ctx, "RegisterUserDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, registerUserDevice, d.Token, d.UserID, d.Platform)
	return s.mapError(err)
}

const muteEntity = `insert into notification_entity_mutes (user_id, entity_type, entity_id)
values ($1, $2, $3)
on conflict do nothing`

func (s *DB) MuteEntity(ctx context.Context, m entity.EntityMute) (err error) {
	ctx, span := s.startSpan(ctx, "MuteEntity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, muteEntity, m.UserID, m.EntityType, m.EntityID)
	return s.mapError(err)
}
