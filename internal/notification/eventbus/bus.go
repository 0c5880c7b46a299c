// Package eventbus is the in-process entry point other subsystems use to hand
// domain events to the notification pipeline.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/stacktrace"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxListeners is only a leak alarm; registration above it still succeeds.
const DefaultMaxListeners = 100

type Handler func(ctx context.Context, evt entity.DomainEvent) error

type eventValidator interface {
	Validate(data any) error
}

type Bus struct {
	mu           sync.RWMutex
	handlers     map[string]Handler
	maxListeners int
	validator    eventValidator
	ins          instrument.Instrumentation
}

func New(maxListeners int, v eventValidator, ins instrument.Instrumentation) *Bus {
	if maxListeners <= 0 {
		maxListeners = DefaultMaxListeners
	}
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Bus{handlers: make(map[string]Handler), maxListeners: maxListeners, validator: v, ins: ins}
}

// Register adds h under name. A second registration under the same name is a
// no-op and returns false, so a handler is never invoked twice per event.
func (b *Bus) Register(name string, h Handler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[name]; ok {
		return false
	}

	b.handlers[name] = h
	if len(b.handlers) > b.maxListeners {
		slog.Warn("event bus listener count exceeds ceiling, possible leak", "listeners", len(b.handlers), "max", b.maxListeners)
	}

	return true
}

func (b *Bus) Unregister(name string) {
	b.mu.Lock()
	delete(b.handlers, name)
	b.mu.Unlock()
}

func (b *Bus) Listeners() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Emit runs every handler synchronously. Nothing escapes: invalid events, handler
// errors and handler panics are logged.
func (b *Bus) Emit(ctx context.Context, evt entity.DomainEvent) {
	ctx, span := b.ins.Tracer("notification.eventbus").Start(ctx, "EventBus.Emit", trace.WithAttributes(
		attribute.String("event_type", evt.EventType.String()),
		attribute.String("entity_type", evt.EntityType),
		attribute.String("entity_id", evt.EntityID),
	))
	defer span.End()

	if b.validator != nil {
		if err := b.validator.Validate(evt); err != nil {
			span.SetStatus(codes.Error, "invalid event")
			slog.WarnContext(ctx, "dropping invalid domain event", "event_type", evt.EventType, "error", err)
			return
		}
	}

	if evt.Payload == nil {
		evt.Payload = valueobject.JSONMap{}
	}

	b.mu.RLock()
	names := make([]string, 0, len(b.handlers))
	handlers := make([]Handler, 0, len(b.handlers))
	for name, h := range b.handlers {
		names = append(names, name)
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		slog.DebugContext(ctx, "domain event emitted with no listeners", "event_type", evt.EventType)
		return
	}

	for i, h := range handlers {
		if err := b.call(ctx, h, evt); err != nil {
			span.RecordError(err)
			slog.ErrorContext(ctx, "event handler failed", "listener", names[i], "event_type", evt.EventType,
				"entity_id", evt.EntityID, "error", err)
		}
	}
}

// EmitEvent is the flat form of Emit used by callers that do not build a DomainEvent.
func (b *Bus) EmitEvent(ctx context.Context, eventType entity.EventType, entityType, entityID string, triggeredBy int64, payload valueobject.JSONMap) {
	b.Emit(ctx, entity.DomainEvent{
		EventType:   eventType,
		EntityType:  entityType,
		EntityID:    entityID,
		TriggeredBy: triggeredBy,
		Payload:     payload,
	})
}

func (b *Bus) call(ctx context.Context, h Handler, evt entity.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "event handler panic", "event_type", evt.EventType,
				"panic", r, "stack", stacktrace.InternalPaths(debug.Stack()))
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()

	return h(ctx, evt)
}
