// Package scheduler holds notifications waiting for delivery in memory and drains
// them on a timer, retrying failed deliveries with a fixed delay.
//
// The queue is not durable. Pending items are lost when the process exits.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/uid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
)

const (
	DefaultBatchSize   = 50
	DefaultInterval    = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Minute
)

// Processor delivers one pending notification. A nil error removes it from the queue.
type Processor interface {
	ProcessNotification(ctx context.Context, p *entity.PendingNotification) error
}

type Config struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

type Dependency struct {
	Clock     clock.Clocker
	UID       uid.NumberID
	Processor Processor
	Ins       instrument.Instrumentation
}

type Status struct {
	QueueLength      int        `json:"queue_length"`
	Processing       bool       `json:"processing"`
	NextScheduledFor *time.Time `json:"next_scheduled_for"`
}

type Option func(*entity.PendingNotification)

// WithScheduledFor delays the first attempt until t.
func WithScheduledFor(t time.Time) Option {
	return func(p *entity.PendingNotification) { p.ScheduledFor = t }
}

func WithMaxAttempts(n int) Option {
	return func(p *entity.PendingNotification) {
		if n > 0 {
			p.MaxAttempts = n
		}
	}
}

type Scheduler struct {
	cfg  Config
	clk  clock.Clocker
	uid  uid.NumberID
	proc Processor

	mu    sync.Mutex
	queue map[string]*entity.PendingNotification

	processing *atomic.Bool
	kick       chan struct{}

	delivered metric.Int64Counter
	dropped   metric.Int64Counter
}

func New(cfg Config, dep Dependency) *Scheduler {
	if dep.Ins == nil {
		dep.Ins = instrument.NewNoop()
	}
	if dep.Clock == nil {
		dep.Clock = clock.New()
	}

	s := &Scheduler{
		cfg:        cfg.withDefaults(),
		clk:        dep.Clock,
		uid:        dep.UID,
		proc:       dep.Processor,
		queue:      make(map[string]*entity.PendingNotification),
		processing: atomic.NewBool(false),
		kick:       make(chan struct{}, 1),
	}

	meter := dep.Ins.Meter("notification.scheduler")
	s.delivered, _ = meter.Int64Counter("notification.batch.delivered",
		metric.WithDescription("Pending notifications delivered by the batch drain"))
	s.dropped, _ = meter.Int64Counter("notification.batch.dropped",
		metric.WithDescription("Pending notifications dropped after exhausting their attempts"))
	_, _ = meter.Int64ObservableGauge("notification.batch.queue_length",
		metric.WithDescription("Pending notifications waiting in the batch queue"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.Len()))
			return nil
		}))

	return s
}

// Schedule queues data for the batch drain and returns a copy of the queued item.
// The notification id is allocated here so retries reuse the same record.
func (s *Scheduler) Schedule(ctx context.Context, data entity.RenderedNotification, opts ...Option) entity.PendingNotification {
	nid := s.uid.Generate()
	p := &entity.PendingNotification{
		ID:             strconv.FormatInt(nid, 10),
		NotificationID: nid,
		UserID:         data.UserID,
		Data:           data,
		ScheduledFor:   s.clk.Now(),
		MaxAttempts:    s.cfg.MaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}

	s.mu.Lock()
	s.queue[p.ID] = p
	full := len(s.queue) >= s.cfg.BatchSize
	out := *p
	s.mu.Unlock()

	slog.DebugContext(ctx, "notification scheduled", "pending_id", p.ID, "user_id", p.UserID,
		"notification_type", data.Type, "scheduled_for", p.ScheduledFor)

	if full {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}

	return out
}

type outcome struct {
	id  string
	err error
}

// ProcessBatch delivers up to BatchSize due items concurrently and waits for all of
// them. It returns the number delivered; an overlapping call returns 0 immediately.
func (s *Scheduler) ProcessBatch(ctx context.Context) int {
	if !s.processing.CompareAndSwap(false, true) {
		return 0
	}
	defer s.processing.Store(false)

	due := s.due(s.clk.Now())
	if len(due) == 0 {
		return 0
	}

	results := make([]outcome, len(due))
	var wg sync.WaitGroup
	for i, p := range due {
		wg.Go(func() {
			results[i] = outcome{id: p.ID, err: s.proc.ProcessNotification(ctx, p)}
		})
	}
	wg.Wait()

	return s.settle(ctx, results)
}

// due returns copies so the processor never races with Schedule.
func (s *Scheduler) due(now time.Time) []*entity.PendingNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.PendingNotification, 0, min(len(s.queue), s.cfg.BatchSize))
	for _, p := range s.queue {
		if p.ScheduledFor.After(now) {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if len(out) == s.cfg.BatchSize {
			break
		}
	}

	return out
}

func (s *Scheduler) settle(ctx context.Context, results []outcome) int {
	now := s.clk.Now()
	delivered := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		p, ok := s.queue[r.id]
		if !ok {
			continue
		}

		if r.err == nil {
			delete(s.queue, r.id)
			delivered++
			continue
		}

		p.Attempts++
		if p.Attempts >= p.MaxAttempts {
			delete(s.queue, r.id)
			s.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("notification_type", p.Data.Type.String())))
			slog.ErrorContext(ctx, "notification dropped after exhausting attempts",
				"pending_id", p.ID, "notification_id", p.NotificationID, "user_id", p.UserID,
				"notification_type", p.Data.Type, "attempts", p.Attempts, "error", fmt.Errorf("%w: %w", entity.ErrRetryExhausted, r.err))
			continue
		}

		p.ScheduledFor = now.Add(s.cfg.RetryDelay)
		slog.WarnContext(ctx, "notification delivery failed, rescheduled",
			"pending_id", p.ID, "user_id", p.UserID, "attempts", p.Attempts,
			"scheduled_for", p.ScheduledFor, "error", r.err)
	}

	if delivered > 0 {
		s.delivered.Add(ctx, int64(delivered))
	}

	return delivered
}

// Run drains on every tick and whenever the queue fills a batch, until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := s.Len(); n > 0 {
				slog.WarnContext(context.WithoutCancel(ctx), "batch scheduler stopped with pending notifications", "pending", n)
			}
			return nil
		case <-ticker.C:
			s.ProcessBatch(ctx)
		case <-s.kick:
			s.ProcessBatch(ctx)
		}
	}
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{QueueLength: len(s.queue), Processing: s.processing.Load()}
	for _, p := range s.queue {
		if st.NextScheduledFor == nil || p.ScheduledFor.Before(*st.NextScheduledFor) {
			t := p.ScheduledFor
			st.NextScheduledFor = &t
		}
	}

	return st
}

// Pending returns a snapshot of the queue.
func (s *Scheduler) Pending() []entity.PendingNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.PendingNotification, 0, len(s.queue))
	for _, p := range s.queue {
		out = append(out, *p)
	}

	return out
}
