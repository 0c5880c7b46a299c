package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// HeaderMessageID carries the producer-assigned message id. Consumers use it as
// the redelivery key.
const HeaderMessageID = "Msg-Id"

// ErrClosed is returned when publishing or consuming on a closed client.
var ErrClosed = errors.New("messaging: client closed")

type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer blocks in Consume until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one delivery. With auto-ack a nil error acks and a non-nil
// error asks the broker for redelivery.
type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	// ID is optional; when set it travels as the HeaderMessageID header.
	ID      string
	Body    []byte
	Headers []Header
}

type Header struct {
	Key   string
	Value []byte
}

type PublishResult struct {
	MessageID   string
	Destination string
	Timestamp   time.Time
}

// Message is a received delivery.
type Message interface {
	ID() string
	Body() []byte
	Headers() []Header
	// Source is the topic or subject the message arrived on.
	Source() string
	Timestamp() time.Time
	// Attempts is the delivery count, 1 on first delivery.
	Attempts() int

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value for key, or "".
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func outgoingHeaders(msg OutgoingMessage) []Header {
	if msg.ID == "" || HeaderValue(msg.Headers, HeaderMessageID) != "" {
		return msg.Headers
	}
	return append(append([]Header{}, msg.Headers...), Header{Key: HeaderMessageID, Value: []byte(msg.ID)})
}
