package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

type natsMessage struct {
	msg        *nats.Msg
	receivedAt time.Time
	responded  atomic.Bool
}

func newNATSMessage(msg *nats.Msg, receivedAt time.Time) *natsMessage {
	return &natsMessage{msg: msg, receivedAt: receivedAt}
}

func (m *natsMessage) ID() string {
	if id := m.msg.Header.Get(HeaderMessageID); id != "" {
		return id
	}
	return m.msg.Header.Get(natsMsgIDHeader)
}

func (m *natsMessage) Body() []byte   { return m.msg.Data }
func (m *natsMessage) Source() string { return m.msg.Subject }

func (m *natsMessage) Headers() []Header {
	var headers []Header
	for k, values := range m.msg.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: k, Value: []byte(v)})
		}
	}
	return headers
}

// Timestamp is the broker time for JetStream deliveries, receive time otherwise.
func (m *natsMessage) Timestamp() time.Time {
	if md, err := m.msg.Metadata(); err == nil && md != nil {
		return md.Timestamp
	}
	return m.receivedAt
}

func (m *natsMessage) Attempts() int {
	if md, err := m.msg.Metadata(); err == nil && md != nil {
		return int(md.NumDelivered)
	}
	return 1
}

// Ack and Nack are no-ops for core NATS deliveries, which carry no reply subject.
func (m *natsMessage) Ack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Ack)
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Nak)
}

func (m *natsMessage) respond(ctx context.Context, fn func(...nats.AckOpt) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	if err := fn(); err != nil && !errors.Is(err, nats.ErrMsgNoReply) && !errors.Is(err, nats.ErrMsgNotBound) {
		return err
	}
	return nil
}
