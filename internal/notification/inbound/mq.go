package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/emunotify/internal/pkg/config"
	"github.com/shandysiswandi/emunotify/internal/pkg/goroutine"
	"github.com/shandysiswandi/emunotify/internal/pkg/idempotency"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/messaging"
	"github.com/shandysiswandi/emunotify/internal/pkg/uid"
	"github.com/shandysiswandi/emunotify/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	idemp idempotency.Idempotency,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, idemp: idemp, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	if concurrency <= 0 {
		concurrency = 10
	}

	var consumers = []struct {
		name             string
		topic            string // destination where publisher sent message
		nsqConsumerName  string // for nsq
		natsConsumerName string // for nats
		handler          messaging.Handler
	}{
		{
			name:             event.DomainEventConsumerNotification,
			topic:            event.DomainEventDestination,
			nsqConsumerName:  event.DomainEventConsumerNotification,
			natsConsumerName: event.DomainEventConsumerNotification,
			handler:          mqHandler.DomainEventNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			_ = routine.Go(ctx, "consumer:"+consumer.name, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.nsqConsumerName),
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(concurrency),
					messaging.WithMaxInFlight(concurrency),
				)
			})
		}
	}
}
