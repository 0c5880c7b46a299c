package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMail struct {
	sent   int
	closed bool
}

func (c *countingMail) Send(context.Context, Message) error {
	c.sent++
	return nil
}

func (c *countingMail) Close() error {
	c.closed = true
	return nil
}

func TestNewFromProvider(t *testing.T) {
	t.Run("smtp requires host", func(t *testing.T) {
		_, err := NewFromProvider("smtp", FactoryOptions{})
		assert.ErrorIs(t, err, ErrSMTPHostPortRequired)
	})

	t.Run("postmark requires token", func(t *testing.T) {
		_, err := NewFromProvider("postmark", FactoryOptions{})
		assert.ErrorIs(t, err, ErrPostmarkTokenRequired)
	})

	t.Run("resend requires key", func(t *testing.T) {
		_, err := NewFromProvider("resend", FactoryOptions{})
		assert.ErrorIs(t, err, ErrResendAPIKeyRequired)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewFromProvider("pigeon", FactoryOptions{})
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("throttle wraps provider", func(t *testing.T) {
		m, err := NewFromProvider("postmark", FactoryOptions{
			Postmark:      PostmarkConfig{ServerToken: "token", From: "noreply@emuready.com"},
			RatePerSecond: 5,
		})
		require.NoError(t, err)
		assert.IsType(t, &Throttled{}, m)
	})

	t.Run("no throttle without rate", func(t *testing.T) {
		m, err := NewFromProvider("resend", FactoryOptions{Resend: ResendConfig{APIKey: "re_x"}})
		require.NoError(t, err)
		assert.IsType(t, &Resend{}, m)
	})
}

func TestThrottled(t *testing.T) {
	next := &countingMail{}
	m := NewThrottled(next, 1, 1)

	require.NoError(t, m.Send(context.Background(), Message{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Send(ctx, Message{}))
	assert.Equal(t, 1, next.sent)

	require.NoError(t, m.Close())
	assert.True(t, next.closed)
}

func TestPostmark_Send_Validation(t *testing.T) {
	p, err := NewPostmark(PostmarkConfig{ServerToken: "token"})
	require.NoError(t, err)

	assert.ErrorIs(t, p.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorIs(t, p.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrNoSender)
}

func TestBuildMIME(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	raw := string(buildMIME("EmuReady <noreply@emuready.com>", Message{
		To:       []string{"ada@example.com"},
		Subject:  "New comment on Zelda – Switch",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
		Headers: map[string]string{
			"List-Unsubscribe":      "<https://emuready.com/u>",
			"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
		},
	}, now))

	assert.Contains(t, raw, "From: EmuReady <noreply@emuready.com>\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Date: Mon, 02 Mar 2026 09:00:00 +0000\r\n")
	assert.Contains(t, raw, "List-Unsubscribe: <https://emuready.com/u>\r\nList-Unsubscribe-Post: List-Unsubscribe=One-Click\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/alternative; boundary=emunotify-")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8\r\n\r\nplain\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>html</p>\r\n")

	raw = string(buildMIME("a@b.c", Message{To: []string{"x@y.z"}, Subject: "hi", TextBody: "only text"}, now))
	assert.Contains(t, raw, "Subject: hi\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\nonly text"))
}

func TestSender(t *testing.T) {
	_, err := sender(Message{}, "d@x.y")
	assert.ErrorIs(t, err, ErrNoRecipients)

	from, err := sender(Message{Bcc: []string{"a@x.y"}}, "d@x.y")
	require.NoError(t, err)
	assert.Equal(t, "d@x.y", from)

	from, err = sender(Message{To: []string{"a@x.y"}, From: "f@x.y"}, "d@x.y")
	require.NoError(t, err)
	assert.Equal(t, "f@x.y", from)
}
