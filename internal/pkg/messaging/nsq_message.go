package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// envelopeVersion marks bodies written by encodeEnvelope. Bodies without it
// are treated as raw payloads from producers outside this package.
const envelopeVersion = 1

type envelope struct {
	V       int               `json:"v"`
	Headers map[string]string `json:"headers,omitempty"`
	// Body holds JSON payloads as-is; anything else goes to Text.
	Body json.RawMessage `json:"body,omitempty"`
	Text string          `json:"text,omitempty"`
}

func encodeEnvelope(msg OutgoingMessage) ([]byte, error) {
	env := envelope{V: envelopeVersion}
	if json.Valid(msg.Body) {
		env.Body = msg.Body
	} else {
		env.Text = string(msg.Body)
	}

	headers := outgoingHeaders(msg)
	if len(headers) > 0 {
		env.Headers = make(map[string]string, len(headers))
		for _, h := range headers {
			if h.Key != "" {
				env.Headers[h.Key] = string(h.Value)
			}
		}
	}

	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("messaging: encode envelope: %w", err)
	}
	return b, nil
}

// decodeEnvelope returns the payload and headers; a non-envelope body comes
// back unchanged with no headers.
func decodeEnvelope(raw []byte) ([]byte, []Header) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.V != envelopeVersion {
		return raw, nil
	}

	body := []byte(env.Body)
	if env.Body == nil {
		body = []byte(env.Text)
	}

	headers := make([]Header, 0, len(env.Headers))
	for k, v := range env.Headers {
		headers = append(headers, Header{Key: k, Value: []byte(v)})
	}
	return body, headers
}

type nsqMessage struct {
	topic     string
	msg       *nsq.Message
	body      []byte
	headers   []Header
	responded atomic.Bool
}

func newNSQMessage(topic string, msg *nsq.Message) *nsqMessage {
	body, headers := decodeEnvelope(msg.Body)
	return &nsqMessage{topic: topic, msg: msg, body: body, headers: headers}
}

// ID prefers the producer id so redeliveries and republishes share a key.
func (m *nsqMessage) ID() string {
	if id := HeaderValue(m.headers, HeaderMessageID); id != "" {
		return id
	}
	return string(m.msg.ID[:])
}

func (m *nsqMessage) Body() []byte         { return m.body }
func (m *nsqMessage) Headers() []Header    { return m.headers }
func (m *nsqMessage) Source() string       { return m.topic }
func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }
func (m *nsqMessage) Attempts() int        { return int(m.msg.Attempts) }

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.responded.Swap(true) {
		m.msg.Finish()
	}
	return nil
}

// Nack requeues with the consumer's attempt-based backoff.
func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.responded.Swap(true) {
		m.msg.Requeue(-1)
	}
	return nil
}
