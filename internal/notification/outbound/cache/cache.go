package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyStatsGeneration = "notification:stats:gen"
	keyStatsPrefix     = "notification:stats:"
)

// Cache keeps analytics snapshots in redis. Snapshots are keyed by a
// generation counter so InvalidateStats is a single INCR.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	ins    instrument.Instrumentation
}

func New(client redis.Cmdable, ttl time.Duration, ins instrument.Instrumentation) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{client: client, ttl: ttl, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("notification.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) statsKey(ctx context.Context, since time.Time) (string, error) {
	gen, err := c.client.Get(ctx, keyStatsGeneration).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}

	return keyStatsPrefix + strconv.FormatInt(gen, 10) + ":" + strconv.FormatInt(since.Unix(), 10), nil
}

// GetStats returns goerror.ErrNotFound on a miss.
func (c *Cache) GetStats(ctx context.Context, since time.Time) (_ *entity.NotificationStats, err error) {
	ctx, span := c.startSpan(ctx, "GetStats")
	defer func() { c.endSpan(span, err) }()

	key, err := c.statsKey(ctx, since)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var stats entity.NotificationStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (c *Cache) SetStats(ctx context.Context, stats *entity.NotificationStats) (err error) {
	ctx, span := c.startSpan(ctx, "SetStats")
	defer func() { c.endSpan(span, err) }()

	key, err := c.statsKey(ctx, stats.Since)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Cache) InvalidateStats(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "InvalidateStats")
	defer func() { c.endSpan(span, err) }()

	return c.client.Incr(ctx, keyStatsGeneration).Err()
}
