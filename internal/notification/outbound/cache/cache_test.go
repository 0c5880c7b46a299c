package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestCache_Stats(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container test")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	c := New(client, time.Minute, instrument.NewNoop())
	since := time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC)

	_, err = c.GetStats(ctx, since)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	stats := &entity.NotificationStats{
		Since:     since,
		Total:     3,
		Unread:    1,
		ByStatus:  map[string]int64{"SENT": 3},
		ByChannel: map[string]int64{"IN_APP": 3},
		ByType:    map[entity.NotificationType]int64{entity.TypeListingVote: 3},
	}
	require.NoError(t, c.SetStats(ctx, stats))

	got, err := c.GetStats(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Total)
	assert.Equal(t, int64(3), got.ByType[entity.TypeListingVote])
	assert.True(t, got.Since.Equal(since))

	_, err = c.GetStats(ctx, since.Add(time.Hour))
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, c.InvalidateStats(ctx))
	_, err = c.GetStats(ctx, since)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
