package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/validator"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approved() entity.DomainEvent {
	return entity.DomainEvent{EventType: entity.EventListingApproved, EntityType: "listing", EntityID: "L", TriggeredBy: 2}
}

func TestBus_RegisterIsIdempotent(t *testing.T) {
	b := New(0, nil, nil)
	calls := 0
	h := func(context.Context, entity.DomainEvent) error { calls++; return nil }

	assert.True(t, b.Register("dispatcher", h))
	assert.False(t, b.Register("dispatcher", h))

	b.Emit(context.Background(), approved())
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"dispatcher"}, b.Listeners())
}

func TestBus_EmitSwallowsErrorsAndPanics(t *testing.T) {
	b := New(0, nil, nil)
	var seen []string

	b.Register("boom", func(context.Context, entity.DomainEvent) error { panic("nil map") })
	b.Register("fails", func(context.Context, entity.DomainEvent) error { return errors.New("db down") })
	b.Register("ok", func(_ context.Context, evt entity.DomainEvent) error {
		seen = append(seen, evt.EntityID)
		return nil
	})

	assert.NotPanics(t, func() { b.Emit(context.Background(), approved()) })
	assert.Equal(t, []string{"L"}, seen)
}

func TestBus_EmitDropsInvalidEvents(t *testing.T) {
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	b := New(0, v, nil)
	calls := 0
	b.Register("dispatcher", func(context.Context, entity.DomainEvent) error { calls++; return nil })

	b.Emit(context.Background(), entity.DomainEvent{EventType: "Listing Approved", EntityType: "listing", EntityID: "L"})
	b.Emit(context.Background(), entity.DomainEvent{EventType: entity.EventListingApproved, EntityType: "listing"})
	assert.Zero(t, calls)

	b.Emit(context.Background(), approved())
	assert.Equal(t, 1, calls)
}

func TestBus_EmitEventDefaultsPayload(t *testing.T) {
	b := New(0, nil, nil)
	var got entity.DomainEvent
	b.Register("dispatcher", func(_ context.Context, evt entity.DomainEvent) error { got = evt; return nil })

	b.EmitEvent(context.Background(), entity.EventUserRoleChanged, "user", "9", 1, nil)

	assert.Equal(t, entity.EventUserRoleChanged, got.EventType)
	assert.Equal(t, "9", got.EntityID)
	assert.Equal(t, valueobject.JSONMap{}, got.Payload)
}

func TestBus_ListenerCeilingOnlyWarns(t *testing.T) {
	b := New(1, nil, nil)
	nop := func(context.Context, entity.DomainEvent) error { return nil }

	assert.True(t, b.Register("a", nop))
	assert.True(t, b.Register("b", nop))
	assert.Len(t, b.Listeners(), 2)

	b.Unregister("a")
	assert.Equal(t, []string{"b"}, b.Listeners())
}
