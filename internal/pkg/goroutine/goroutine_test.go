package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	g := NewManager(2)
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	require.NoError(t, g.Go(ctx, "batch", func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}))
	require.NoError(t, g.Go(ctx, "sweeper", func(context.Context) error {
		started <- struct{}{}
		<-release
		return errors.New("redis gone")
	}))
	<-started
	<-started

	assert.ErrorIs(t, g.Go(ctx, "extra", func(context.Context) error { return nil }), ErrFull)

	close(release)
	cancel()

	err := g.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweeper: redis gone")
	assert.NotContains(t, err.Error(), "batch")

	assert.ErrorIs(t, g.Go(context.Background(), "late", func(context.Context) error { return nil }), ErrClosed)
}

func TestManagerRecoversPanic(t *testing.T) {
	g := NewManager(0)
	require.NoError(t, g.Go(context.Background(), "listener", func(context.Context) error {
		panic("nil template")
	}))

	err := g.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener: panic: nil template")
}
