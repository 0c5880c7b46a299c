package email

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Mail traces every provider call made by the email channel.
type Mail struct {
	client   mail.Mail
	provider string
	ins      instrument.Instrumentation
}

func New(client mail.Mail, provider string, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, provider: provider, ins: ins}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send",
		trace.WithAttributes(attribute.String("mail.provider", m.provider), attribute.Int("mail.recipients", len(msg.To))))
	defer span.End()

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Mail) Close() error {
	return m.client.Close()
}
