package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNATS_PublishConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	ctr, err := testcontainers.Run(ctx, "nats:2.10-alpine",
		testcontainers.WithExposedPorts("4222/tcp"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("4222/tcp")),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)

	client, err := NewNATS(NATSConfig{URL: url, Options: []nats.Option{nats.Name("emunotify-test")}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- client.Consume(consumeCtx, "emuready.domain_event", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithQueueGroup("notification"), WithConcurrency(2), WithAutoAck(true))
	}()

	require.Eventually(t, func() bool {
		_, err := client.Publish(ctx, "emuready.domain_event", OutgoingMessage{
			ID:      "evt-42",
			Body:    []byte(`{"event_type":"game.added"}`),
			Headers: []Header{{Key: "cID", Value: []byte("cid-42")}},
		})
		if err != nil {
			return false
		}
		select {
		case msg := <-got:
			assert.Equal(t, "evt-42", msg.ID())
			assert.Equal(t, "cid-42", HeaderValue(msg.Headers(), "cID"))
			assert.Equal(t, "emuready.domain_event", msg.Source())
			assert.JSONEq(t, `{"event_type":"game.added"}`, string(msg.Body()))
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
