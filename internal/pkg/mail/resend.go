package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ErrResendAPIKeyRequired is returned when the API key is missing.
var ErrResendAPIKeyRequired = errors.New("resend api key is required")

// ResendConfig configures the Resend implementation.
type ResendConfig struct {
	// APIKey authenticates requests.
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
}

// Resend is a Mail implementation backed by the Resend HTTP API.
type Resend struct {
	client      *resend.Client
	defaultFrom string
}

// NewResend constructs a Resend mail sender.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrResendAPIKeyRequired
	}

	return &Resend{client: resend.NewClient(cfg.APIKey), defaultFrom: cfg.From}, nil
}

// Send delivers a message through Resend.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	from, err := sender(msg, r.defaultFrom)
	if err != nil {
		return err
	}

	var tags []resend.Tag
	if msg.Tag != "" {
		tags = []resend.Tag{{Name: "notification_type", Value: msg.Tag}}
	}

	if _, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
		Headers: msg.Headers,
		Tags:    tags,
	}); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}

	return nil
}

// Close implements io.Closer for interface compatibility.
func (r *Resend) Close() error {
	return nil
}
