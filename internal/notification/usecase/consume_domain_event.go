package usecase

import (
	"context"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

type ConsumeDomainEventInput struct {
	EventType   string `validate:"required,event_type"`
	EntityType  string `validate:"required"`
	EntityID    string `validate:"required"`
	TriggeredBy int64  `validate:"gte=0"`
	Payload     valueobject.JSONMap
}

// ConsumeDomainEvent accepts an event published by another service and emits it
// on the local bus.
func (s *Usecase) ConsumeDomainEvent(ctx context.Context, in ConsumeDomainEventInput) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeDomainEvent")
	defer func() { s.endSpan(span, err) }()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	s.emitter.Emit(ctx, entity.DomainEvent{
		EventType:   entity.EventType(in.EventType),
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		TriggeredBy: in.TriggeredBy,
		Payload:     in.Payload,
	})

	return nil
}
