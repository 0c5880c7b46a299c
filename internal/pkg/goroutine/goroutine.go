// Package goroutine runs the service's long-lived background loops (batch
// scheduler, rate-limit sweeper, realtime heartbeats, MQ consumers) under one
// bounded, panic-safe manager that shutdown can wait on.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/emunotify/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager gets a
// non-positive limit.
const DefaultMaxGoroutine int = 100

var (
	ErrClosed = errors.New("goroutine manager is closed")
	ErrFull   = errors.New("goroutine limit reached")
)

type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f in a new goroutine. It returns ErrClosed after Wait has been
// called and ErrFull when every slot is taken; f does not run in either case.
// A panic in f is logged and recorded as an error of the named task.
// context.Canceled from f counts as a clean stop.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, task not started", "task", name)
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task not started", "task", name, "limit", cap(g.sema))
		return ErrFull
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()
		if err := run(ctx, name, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})

	return nil
}

func run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
			slog.ErrorContext(ctx, "panic in background task", "task", name, "because", rvr, "stack", frames)
		} else {
			slog.ErrorContext(ctx, "panic in background task", "task", name, "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("%s: panic: %v", name, rvr)
	}()

	if ctx.Err() != nil {
		slog.WarnContext(ctx, "background task canceled before start", "task", name, "because", ctx.Err())
		return nil
	}

	if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "background task stopped with error", "task", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	slog.InfoContext(ctx, "background task stopped", "task", name)
	return nil
}

// Wait refuses new tasks, blocks until running ones return and joins their
// errors.
func (g *Manager) Wait() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
