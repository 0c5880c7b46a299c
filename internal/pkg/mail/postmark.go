package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

var (
	// ErrPostmarkTokenRequired is returned when the server token is missing.
	ErrPostmarkTokenRequired = errors.New("postmark server token is required")
	// ErrProviderRejected wraps a non-zero provider error code.
	ErrProviderRejected = errors.New("mail provider rejected message")
)

// PostmarkConfig configures the Postmark implementation.
type PostmarkConfig struct {
	// ServerToken authenticates transactional sends.
	ServerToken string
	// AccountToken is optional; only account-level APIs need it.
	AccountToken string
	// From is the default sender when Message.From is empty.
	From string
	// MessageStream selects the Postmark stream, "outbound" when empty.
	MessageStream string
}

// Postmark is a Mail implementation backed by the Postmark HTTP API.
type Postmark struct {
	client      *postmark.Client
	defaultFrom string
	stream      string
}

// NewPostmark constructs a Postmark mail sender.
func NewPostmark(cfg PostmarkConfig) (*Postmark, error) {
	if cfg.ServerToken == "" {
		return nil, ErrPostmarkTokenRequired
	}

	stream := cfg.MessageStream
	if stream == "" {
		stream = "outbound"
	}

	return &Postmark{
		client:      postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		defaultFrom: cfg.From,
		stream:      stream,
	}, nil
}

// Send delivers a message through Postmark.
func (p *Postmark) Send(ctx context.Context, msg Message) error {
	from, err := sender(msg, p.defaultFrom)
	if err != nil {
		return err
	}

	headers := make([]postmark.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, postmark.Header{Name: k, Value: v})
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:          from,
		To:            strings.Join(msg.To, ","),
		Cc:            strings.Join(msg.Cc, ","),
		Bcc:           strings.Join(msg.Bcc, ","),
		Subject:       msg.Subject,
		HTMLBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		Tag:           msg.Tag,
		Headers:       headers,
		MessageStream: p.stream,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("%w: postmark %d %s", ErrProviderRejected, resp.ErrorCode, resp.Message)
	}

	return nil
}

// Close implements io.Closer for interface compatibility.
func (p *Postmark) Close() error {
	return nil
}
