package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

const notificationColumns = `id, user_id, type, category, title, message, action_url, metadata,
	delivery_channel, delivery_status, is_read, created_at`

func scanRecord(row pgx.Row) (entity.NotificationRecord, error) {
	var (
		r                 entity.NotificationRecord
		typ, category     string
		channel, delivery int16
	)

	err := row.Scan(&r.ID, &r.UserID, &typ, &category, &r.Title, &r.Message, &r.ActionURL, &r.Metadata,
		&channel, &delivery, &r.IsRead, &r.CreatedAt)
	if err != nil {
		return r, err
	}

	r.Type = entity.NotificationType(typ)
	r.Category = entity.Category(category)
	r.DeliveryChannel = entity.DeliveryChannel(channel)
	r.DeliveryStatus = entity.DeliveryStatus(delivery)

	return r, nil
}

func (s *DB) GetNotification(ctx context.Context, id int64) (_ *entity.NotificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetNotification")
	defer func() { s.endSpan(span, err) }()

	r, err := scanRecord(s.conn.QueryRow(ctx, `select `+notificationColumns+` from notifications where id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &r, nil
}

func (s *DB) ExistsNotificationSince(ctx context.Context, userID int64, t entity.NotificationType, since time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExistsNotificationSince")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx,
		`select exists (select 1 from notifications where user_id = $1 and type = $2 and created_at >= $3)`,
		userID, t.String(), since).Scan(&exists)

	return exists, s.mapError(err)
}

func (s *DB) ListNotifications(ctx context.Context, userID int64, filter entity.InboxFilter, limit, offset int32) (_ []entity.NotificationRecord, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	query := `select ` + notificationColumns + ` from notifications where user_id = $1`
	switch filter {
	case entity.InboxFilterUnread:
		query += ` and not is_read`
	case entity.InboxFilterRead:
		query += ` and is_read`
	}
	query += ` order by created_at desc, id desc limit $2 offset $3`

	rows, err := s.conn.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.NotificationRecord, error) {
		return scanRecord(row)
	})

	return items, s.mapError(err)
}

func (s *DB) CountUnreadNotifications(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnreadNotifications")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, `select count(*) from notifications where user_id = $1 and not is_read`, userID).Scan(&n)

	return n, s.mapError(err)
}

func (s *DB) GetNotificationStats(ctx context.Context, since time.Time) (_ *entity.NotificationStats, err error) {
	ctx, span := s.startSpan(ctx, "GetNotificationStats")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`select type, delivery_channel, delivery_status, count(*), count(*) filter (where not is_read)
		from notifications where created_at >= $1
		group by type, delivery_channel, delivery_status`, since)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	stats := &entity.NotificationStats{
		Since:     since,
		ByStatus:  map[string]int64{},
		ByChannel: map[string]int64{},
		ByType:    map[entity.NotificationType]int64{},
	}

	for rows.Next() {
		var (
			typ             string
			channel, status int16
			total, unread   int64
		)
		if err := rows.Scan(&typ, &channel, &status, &total, &unread); err != nil {
			return nil, s.mapError(err)
		}

		stats.Total += total
		stats.Unread += unread
		stats.ByType[entity.NotificationType(typ)] += total
		stats.ByChannel[entity.DeliveryChannel(channel).String()] += total
		stats.ByStatus[entity.DeliveryStatus(status).String()] += total
	}

	return stats, s.mapError(rows.Err())
}

func (s *DB) GetPreference(ctx context.Context, userID int64, t entity.NotificationType) (_ *entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "GetPreference")
	defer func() { s.endSpan(span, err) }()

	p := entity.Preference{UserID: userID, Type: t}
	err = s.conn.QueryRow(ctx,
		`select in_app_enabled, email_enabled from notification_preferences where user_id = $1 and type = $2`,
		userID, t.String()).Scan(&p.InAppEnabled, &p.EmailEnabled)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

func (s *DB) ListPreferences(ctx context.Context, userID int64) (_ []entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "ListPreferences")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`select type, in_app_enabled, email_enabled from notification_preferences where user_id = $1 order by type`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Preference, error) {
		p := entity.Preference{UserID: userID}
		var typ string
		err := row.Scan(&typ, &p.InAppEnabled, &p.EmailEnabled)
		p.Type = entity.NotificationType(typ)
		return p, err
	})

	return items, s.mapError(err)
}

// ChannelsDisabled reports true only for an explicit row with both channels off.
func (s *DB) ChannelsDisabled(ctx context.Context, userID int64, t entity.NotificationType) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ChannelsDisabled")
	defer func() { s.endSpan(span, err) }()

	var disabled bool
	err = s.conn.QueryRow(ctx,
		`select exists (select 1 from notification_preferences
		where user_id = $1 and type = $2 and not in_app_enabled and not email_enabled)`,
		userID, t.String()).Scan(&disabled)

	return disabled, s.mapError(err)
}

func (s *DB) IsEntityMuted(ctx context.Context, userID int64, entityType, entityID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IsEntityMuted")
	defer func() { s.endSpan(span, err) }()

	var muted bool
	err = s.conn.QueryRow(ctx,
		`select exists (select 1 from notification_entity_mutes where user_id = $1 and entity_type = $2 and entity_id = $3)`,
		userID, entityType, entityID).Scan(&muted)

	return muted, s.mapError(err)
}

func (s *DB) GetUserProfile(ctx context.Context, userID int64) (_ *entity.UserProfile, err error) {
	ctx, span := s.startSpan(ctx, "GetUserProfile")
	defer func() { s.endSpan(span, err) }()

	u := entity.UserProfile{ID: userID}
	err = s.conn.QueryRow(ctx,
		`select name, email, role from users where id = $1 and deleted_at is null`, userID).
		Scan(&u.Name, &u.Email, &u.Role)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// ListBanStatuses returns the active ban rows; expiry is judged by the caller.
func (s *DB) ListBanStatuses(ctx context.Context, userIDs []int64) (_ []entity.BanStatus, err error) {
	ctx, span := s.startSpan(ctx, "ListBanStatuses")
	defer func() { s.endSpan(span, err) }()

	if len(userIDs) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx,
		`select user_id, expires_at from user_bans where is_active and user_id = any($1)`, userIDs)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BanStatus, error) {
		var b entity.BanStatus
		err := row.Scan(&b.UserID, &b.ExpiresAt)
		return b, err
	})

	return items, s.mapError(err)
}

func (s *DB) ListUserIDsByRoles(ctx context.Context, roles []string) (_ []int64, err error) {
	ctx, span := s.startSpan(ctx, "ListUserIDsByRoles")
	defer func() { s.endSpan(span, err) }()

	if len(roles) == 0 {
		return nil, nil
	}

	return s.collectIDs(ctx, s.conn,
		`select id from users where role = any($1) and deleted_at is null order by id`, roles)
}

func (s *DB) ListActiveUserIDs(ctx context.Context) (_ []int64, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveUserIDs")
	defer func() { s.endSpan(span, err) }()

	return s.collectIDs(ctx, s.conn, `select id from users where deleted_at is null order by id`)
}

func (s *DB) ListUserIDsByDevicePreference(ctx context.Context, deviceID, socID string) (_ []int64, err error) {
	ctx, span := s.startSpan(ctx, "ListUserIDsByDevicePreference")
	defer func() { s.endSpan(span, err) }()

	if deviceID == "" && socID == "" {
		return nil, nil
	}

	return s.collectIDs(ctx, s.conn,
		`select user_id from user_device_preferences where device_id = $1
		union
		select user_id from user_soc_preferences where soc_id = $2`, deviceID, socID)
}

func (s *DB) ListUserIDsWithTypeEnabled(ctx context.Context, t entity.NotificationType) (_ []int64, err error) {
	ctx, span := s.startSpan(ctx, "ListUserIDsWithTypeEnabled")
	defer func() { s.endSpan(span, err) }()

	return s.collectIDs(ctx, s.conn,
		`select p.user_id from notification_preferences p
		join users u on u.id = p.user_id and u.deleted_at is null
		where p.type = $1 and (p.in_app_enabled or p.email_enabled)
		order by p.user_id`, t.String())
}

func (s *DB) collectIDs(ctx context.Context, q querier, sql string, args ...any) ([]int64, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.mapError(err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, s.mapError(err)
}

func (s *DB) GetListingDetail(ctx context.Context, listingID string) (_ *entity.ListingDetail, err error) {
	ctx, span := s.startSpan(ctx, "GetListingDetail")
	defer func() { s.endSpan(span, err) }()

	l := entity.ListingDetail{ID: listingID}
	err = s.conn.QueryRow(ctx,
		`select l.author_id, g.title, trim(d.brand || ' ' || d.model_name), e.name, coalesce(sc.name, '')
		from listings l
		join games g on g.id = l.game_id
		join devices d on d.id = l.device_id
		join emulators e on e.id = l.emulator_id
		left join socs sc on sc.id = d.soc_id
		where l.id = $1`, listingID).
		Scan(&l.AuthorID, &l.GameTitle, &l.DeviceName, &l.EmulatorName, &l.SocName)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &l, nil
}

func (s *DB) GetCommentAuthorID(ctx context.Context, commentID string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetCommentAuthorID")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, `select author_id from comments where id = $1`, commentID).Scan(&id)

	return id, s.mapError(err)
}

func (s *DB) GetGameTitle(ctx context.Context, gameID string) (_ string, err error) {
	ctx, span := s.startSpan(ctx, "GetGameTitle")
	defer func() { s.endSpan(span, err) }()

	return s.lookupName(ctx, `select title from games where id = $1`, gameID)
}

func (s *DB) GetEmulatorName(ctx context.Context, emulatorID string) (_ string, err error) {
	ctx, span := s.startSpan(ctx, "GetEmulatorName")
	defer func() { s.endSpan(span, err) }()

	return s.lookupName(ctx, `select name from emulators where id = $1`, emulatorID)
}

func (s *DB) lookupName(ctx context.Context, sql, id string) (string, error) {
	if id == "" {
		return "", goerror.ErrNotFound
	}

	var name string
	err := s.conn.QueryRow(ctx, sql, id).Scan(&name)

	return name, s.mapError(err)
}

func (s *DB) ListUserDeviceTokens(ctx context.Context, userID int64) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "ListUserDeviceTokens")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `select token from notification_devices where user_id = $1 order by created_at`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return tokens, s.mapError(err)
}
