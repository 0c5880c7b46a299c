package mail

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled caps the send rate of the wrapped provider. Send blocks until a
// token is available or ctx is done.
type Throttled struct {
	next    Mail
	limiter *rate.Limiter
}

// NewThrottled wraps next with a perSecond limit. A non-positive rate returns next unchanged.
func NewThrottled(next Mail, perSecond float64, burst int) Mail {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}

	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	return t.next.Send(ctx, msg)
}

func (t *Throttled) Close() error {
	return t.next.Close()
}
