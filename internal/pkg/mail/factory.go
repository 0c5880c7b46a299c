package mail

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ProviderSMTP selects net/smtp.
	ProviderSMTP = "smtp"
	// ProviderPostmark selects the Postmark API.
	ProviderPostmark = "postmark"
	// ProviderResend selects the Resend API.
	ProviderResend = "resend"
)

// ErrUnknownProvider indicates an unsupported mail provider.
var ErrUnknownProvider = errors.New("mail: unknown provider")

// FactoryOptions groups config for every supported provider plus the shared throttle.
type FactoryOptions struct {
	SMTP     SMTPConfig
	Postmark PostmarkConfig
	Resend   ResendConfig

	// RatePerSecond throttles sends when positive.
	RatePerSecond float64
	// Burst is the throttle bucket size.
	Burst int
}

// NewFromProvider constructs a Mail implementation by provider name.
func NewFromProvider(provider string, opts FactoryOptions) (Mail, error) {
	var (
		m   Mail
		err error
	)

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderSMTP, "":
		m, err = NewSMTP(opts.SMTP)
	case ProviderPostmark:
		m, err = NewPostmark(opts.Postmark)
	case ProviderResend:
		m, err = NewResend(opts.Resend)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if err != nil {
		return nil, err
	}

	return NewThrottled(m, opts.RatePerSecond, opts.Burst), nil
}
