package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const seed = `
insert into users (id, name, email, role) values
	(1, 'alice', 'alice@example.com', 'USER'),
	(2, 'mod', 'mod@example.com', 'MODERATOR'),
	(3, 'admin', 'admin@example.com', 'ADMIN');
insert into users (id, name, email, role, deleted_at) values (4, 'gone', 'gone@example.com', 'MODERATOR', now());
insert into user_bans (user_id, expires_at) values (1, now() + interval '1 day');
insert into games (id, title) values ('g1', 'Zelda');
insert into socs (id, name) values ('s1', 'Tensor G3');
insert into devices (id, brand, model_name, soc_id) values ('d1', 'Google', 'Pixel 8', 's1');
insert into emulators (id, name) values ('e1', 'Yuzu');
insert into listings (id, author_id, game_id, device_id, emulator_id) values ('L', 1, 'g1', 'd1', 'e1');
insert into comments (id, listing_id, author_id) values ('c1', 'L', 2);
insert into user_device_preferences (user_id, device_id) values (1, 'd1');
insert into user_soc_preferences (user_id, soc_id) values (1, 's1'), (2, 's1');
`

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("emunotify"),
		postgres.WithUsername("emunotify"),
		postgres.WithPassword("emunotify"),
		postgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "migrations", "0001_notification.sql")),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, seed)
	require.NoError(t, err)

	return NewDB(pool, instrument.NewNoop())
}

func TestDB(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec := entity.NotificationRecord{
		ID:              100,
		UserID:          1,
		Type:            entity.TypeListingApproved,
		Category:        entity.CategoryModeration,
		Title:           "Listing approved",
		Message:         "Your listing for Zelda on Pixel 8 was approved",
		ActionURL:       "/listings/L",
		Metadata:        valueobject.JSONMap{"listing_id": "L"},
		DeliveryChannel: entity.DeliveryChannelBoth,
		DeliveryStatus:  entity.DeliveryStatusPending,
		CreatedAt:       now,
	}

	t.Run("notification lifecycle", func(t *testing.T) {
		require.NoError(t, s.CreateNotification(ctx, rec))
		require.NoError(t, s.UpdateDeliveryStatus(ctx, rec.ID, entity.DeliveryStatusFailed))

		// a retry resets the existing row
		require.NoError(t, s.CreateNotification(ctx, rec))

		got, err := s.GetNotification(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.DeliveryStatusPending, got.DeliveryStatus)
		assert.Equal(t, entity.TypeListingApproved, got.Type)
		assert.Equal(t, entity.DeliveryChannelBoth, got.DeliveryChannel)
		assert.Equal(t, "L", got.Metadata.GetString("listing_id"))
		assert.True(t, got.CreatedAt.Equal(now))

		exists, err := s.ExistsNotificationSince(ctx, 1, entity.TypeListingApproved, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.ExistsNotificationSince(ctx, 1, entity.TypeListingApproved, now.Add(time.Second))
		require.NoError(t, err)
		assert.False(t, exists)

		assert.ErrorIs(t, s.UpdateDeliveryStatus(ctx, 999, entity.DeliveryStatusSent), goerror.ErrNotFound)

		_, err = s.GetNotification(ctx, 999)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("inbox", func(t *testing.T) {
		second := rec
		second.ID = 101
		second.CreatedAt = now.Add(time.Minute)
		require.NoError(t, s.CreateNotification(ctx, second))

		items, err := s.ListNotifications(ctx, 1, entity.InboxFilterAll, 10, 0)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(101), items[0].ID)

		n, err := s.CountUnreadNotifications(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		ok, err := s.MarkNotificationRead(ctx, 2, 101)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.MarkNotificationRead(ctx, 1, 101)
		require.NoError(t, err)
		assert.True(t, ok)

		unread, err := s.ListNotifications(ctx, 1, entity.InboxFilterUnread, 10, 0)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, int64(100), unread[0].ID)

		all, err := s.MarkNotificationsReadAll(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), all)

		stats, err := s.GetNotificationStats(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Total)
		assert.Zero(t, stats.Unread)
		assert.Equal(t, int64(2), stats.ByType[entity.TypeListingApproved])
		assert.Equal(t, int64(2), stats.ByChannel["BOTH"])

		deleted, err := s.DeleteNotification(ctx, 1, 101)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.DeleteNotification(ctx, 1, 101)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("preferences", func(t *testing.T) {
		_, err := s.GetPreference(ctx, 1, entity.TypeGameAdded)
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		require.NoError(t, s.UpsertPreferences(ctx, []entity.Preference{
			{UserID: 1, Type: entity.TypeGameAdded, InAppEnabled: true},
			{UserID: 2, Type: entity.TypeGameAdded, EmailEnabled: true},
			{UserID: 1, Type: entity.TypeListingVote},
		}))

		p, err := s.GetPreference(ctx, 1, entity.TypeGameAdded)
		require.NoError(t, err)
		assert.Equal(t, entity.DeliveryChannelInApp, p.Channel())

		prefs, err := s.ListPreferences(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, prefs, 2)

		ids, err := s.ListUserIDsWithTypeEnabled(ctx, entity.TypeGameAdded)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)

		disabled, err := s.ChannelsDisabled(ctx, 1, entity.TypeListingVote)
		require.NoError(t, err)
		assert.True(t, disabled)

		disabled, err = s.ChannelsDisabled(ctx, 1, entity.TypeUserMention)
		require.NoError(t, err)
		assert.False(t, disabled)
	})

	t.Run("mutes and devices", func(t *testing.T) {
		m := entity.EntityMute{UserID: 1, EntityType: "listing", EntityID: "L"}
		require.NoError(t, s.MuteEntity(ctx, m))
		require.NoError(t, s.MuteEntity(ctx, m))

		muted, err := s.IsEntityMuted(ctx, 1, "listing", "L")
		require.NoError(t, err)
		assert.True(t, muted)

		ok, err := s.UnmuteEntity(ctx, m)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.RegisterUserDevice(ctx, entity.Device{UserID: 1, Token: "tok", Platform: "ios"}))
		require.NoError(t, s.RegisterUserDevice(ctx, entity.Device{UserID: 2, Token: "tok", Platform: "ios"}))

		tokens, err := s.ListUserDeviceTokens(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, tokens)

		tokens, err = s.ListUserDeviceTokens(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"tok"}, tokens)

		require.NoError(t, s.RemoveUserDevice(ctx, 2, "tok"))
		tokens, err = s.ListUserDeviceTokens(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	})

	t.Run("users and lookups", func(t *testing.T) {
		u, err := s.GetUserProfile(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, entity.RoleModerator, u.Role)

		_, err = s.GetUserProfile(ctx, 4)
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		ids, err := s.ListUserIDsByRoles(ctx, []string{entity.RoleModerator, entity.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3}, ids)

		ids, err = s.ListActiveUserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)

		bans, err := s.ListBanStatuses(ctx, []int64{1, 2})
		require.NoError(t, err)
		require.Len(t, bans, 1)
		assert.True(t, bans[0].ActiveAt(time.Now()))

		ids, err = s.ListUserIDsByDevicePreference(ctx, "d1", "s1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, ids)

		l, err := s.GetListingDetail(ctx, "L")
		require.NoError(t, err)
		assert.Equal(t, int64(1), l.AuthorID)
		assert.Equal(t, "Google Pixel 8", l.DeviceName)
		assert.Equal(t, "Tensor G3", l.SocName)

		author, err := s.GetCommentAuthorID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), author)

		title, err := s.GetGameTitle(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "Zelda", title)

		_, err = s.GetEmulatorName(ctx, "missing")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}
