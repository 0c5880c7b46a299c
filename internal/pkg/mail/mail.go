package mail

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNoRecipients = errors.New("mail: no recipients provided")
	ErrNoSender     = errors.New("mail: no sender provided")
)

// Message is provider-agnostic. Headers carry extras such as List-Unsubscribe;
// Tag groups messages in provider dashboards (the notification type).
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
	Tag      string
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// sender validates recipients and resolves the From address.
func sender(msg Message, defaultFrom string) (string, error) {
	if len(msg.To)+len(msg.Cc)+len(msg.Bcc) == 0 {
		return "", ErrNoRecipients
	}
	if msg.From != "" {
		return msg.From, nil
	}
	if defaultFrom != "" {
		return defaultFrom, nil
	}
	return "", ErrNoSender
}
