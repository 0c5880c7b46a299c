// Package realtime keeps one live push connection per user.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/emunotify/internal/pkg/clock"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/metric"
)

// Frame types written to sinks.
const (
	FrameConnected    = "connected"
	FrameNotification = "notification"
	FrameUnreadCount  = "unread_count"
	FrameBroadcast    = "broadcast"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultStaleTimeout      = 60 * time.Second

	// a connection is pruned once this many heartbeats in a row failed
	maxMissedPings = 2
)

type Frame struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink is a server-push transport bound to one client.
type Sink interface {
	Send(ctx context.Context, f Frame) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	HeartbeatInterval time.Duration
	StaleTimeout      time.Duration
}

type connection struct {
	userID   int64
	sink     Sink
	lastPing time.Time
	missed   int
}

type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*connection

	clock    clock.Clocker
	interval time.Duration
	stale    time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

func NewRegistry(cfg Config, clk clock.Clocker, ins instrument.Instrumentation) *Registry {
	r := &Registry{
		conns:    make(map[int64]*connection),
		clock:    clk,
		interval: cfg.HeartbeatInterval,
		stale:    cfg.StaleTimeout,
		stop:     make(chan struct{}),
	}
	if r.interval <= 0 {
		r.interval = defaultHeartbeatInterval
	}
	if r.stale <= 0 {
		r.stale = defaultStaleTimeout
	}

	if ins != nil {
		_, err := ins.Meter("notification.realtime").Int64ObservableGauge(
			"notification.realtime.connections",
			metric.WithDescription("Open realtime connections"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(r.Count()))
				return nil
			}),
		)
		if err != nil {
			slog.Warn("failed to register realtime connections gauge", "error", err)
		}
	}

	return r
}

// Subscribe makes sink the only connection of userID, closing any previous one,
// and sends the connected acknowledgment.
func (r *Registry) Subscribe(ctx context.Context, userID int64, sink Sink) error {
	conn := &connection{userID: userID, sink: sink, lastPing: r.clock.Now()}

	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if prev != nil && prev.sink != sink {
		if err := prev.sink.Close(); err != nil {
			slog.DebugContext(ctx, "failed to close replaced realtime sink", "user_id", userID, "error", err)
		}
	}

	if err := sink.Send(ctx, Frame{Type: FrameConnected, Timestamp: r.clock.Now()}); err != nil {
		r.remove(userID, conn)
		return err
	}

	slog.InfoContext(ctx, "realtime connection opened", "user_id", userID)
	return nil
}

// Unsubscribe drops the user's connection only if it still belongs to sink.
func (r *Registry) Unsubscribe(userID int64, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn := r.conns[userID]; conn != nil && conn.sink == sink {
		delete(r.conns, userID)
	}
}

// Push writes f to the user's sink. It returns false when the user is not connected
// or the write fails; a failed connection is pruned.
func (r *Registry) Push(ctx context.Context, userID int64, f Frame) bool {
	r.mu.RLock()
	conn := r.conns[userID]
	r.mu.RUnlock()

	if conn == nil {
		return false
	}

	if f.Timestamp.IsZero() {
		f.Timestamp = r.clock.Now()
	}

	if err := conn.sink.Send(ctx, f); err != nil {
		slog.WarnContext(ctx, "failed to push realtime frame", "user_id", userID, "frame_type", f.Type, "error", err)
		r.prune(ctx, userID, conn)
		return false
	}

	r.mu.Lock()
	conn.lastPing = r.clock.Now()
	conn.missed = 0
	r.mu.Unlock()

	return true
}

// Broadcast pushes f to every connection and returns how many writes succeeded.
func (r *Registry) Broadcast(ctx context.Context, f Frame) int {
	r.mu.RLock()
	users := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		users = append(users, id)
	}
	r.mu.RUnlock()

	sent := 0
	for _, id := range users {
		if r.Push(ctx, id, f) {
			sent++
		}
	}

	return sent
}

// Heartbeat runs one liveness pass: stale connections are pruned, the rest pinged.
// It returns the number of pruned connections.
func (r *Registry) Heartbeat(ctx context.Context) int {
	now := r.clock.Now()

	r.mu.RLock()
	conns := make([]*connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	pruned := 0
	for _, c := range conns {
		r.mu.RLock()
		last := c.lastPing
		r.mu.RUnlock()

		if now.Sub(last) > r.stale {
			r.prune(ctx, c.userID, c)
			pruned++
			continue
		}

		if err := c.sink.Ping(ctx); err != nil {
			r.mu.Lock()
			c.missed++
			missed := c.missed
			r.mu.Unlock()

			if missed >= maxMissedPings {
				r.prune(ctx, c.userID, c)
				pruned++
			}
			continue
		}

		r.mu.Lock()
		c.lastPing = now
		c.missed = 0
		r.mu.Unlock()
	}

	return pruned
}

// Run ticks the heartbeat until ctx is done or the registry is closed.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.stop:
			return nil
		case <-ticker.C:
			if n := r.Heartbeat(ctx); n > 0 {
				slog.InfoContext(ctx, "realtime connections pruned", "count", n)
			}
		}
	}
}

// Close stops the heartbeat and force-closes every sink.
func (r *Registry) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[int64]*connection)
	r.mu.Unlock()

	for id, c := range conns {
		if err := c.sink.Close(); err != nil {
			slog.Debug("failed to close realtime sink", "user_id", id, "error", err)
		}
	}

	return nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) IsConnected(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

func (r *Registry) prune(ctx context.Context, userID int64, conn *connection) {
	if !r.remove(userID, conn) {
		return
	}
	if err := conn.sink.Close(); err != nil {
		slog.DebugContext(ctx, "failed to close pruned realtime sink", "user_id", userID, "error", err)
	}
	slog.InfoContext(ctx, "realtime connection pruned", "user_id", userID)
}

func (r *Registry) remove(userID int64, conn *connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] != conn {
		return false
	}
	delete(r.conns, userID)
	return true
}
