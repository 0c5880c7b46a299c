package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

const upsertPreference = `insert into notification_preferences (user_id, type, in_app_enabled, email_enabled, updated_at)
values ($1, $2, $3, $4, now())
on conflict (user_id, type) do update
set in_app_enabled = excluded.in_app_enabled, email_enabled = excluded.email_enabled, updated_at = now()`

// UpsertPreferences writes all rows or none.
func (s *DB) UpsertPreferences(ctx context.Context, prefs []entity.Preference) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPreferences")
	defer func() { s.endSpan(span, err) }()

	if len(prefs) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, p := range prefs {
		batch.Queue(upsertPreference, p.UserID, p.Type.String(), p.InAppEnabled, p.EmailEnabled)
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
