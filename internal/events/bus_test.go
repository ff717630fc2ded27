package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversToAllListeners(t *testing.T) {
	bus := NewBus(nil)

	var got []Payload
	bus.On(EventSubscribe, func(ctx context.Context, p Payload) error {
		got = append(got, p)
		return nil
	})
	bus.On(EventSubscribe, func(ctx context.Context, p Payload) error {
		got = append(got, p)
		return nil
	})

	bus.Emit(context.Background(), EventSubscribe, Payload{UserID: 1, MovementID: 2})

	assert.Len(t, got, 2)
	assert.Equal(t, Payload{UserID: 1, MovementID: 2}, got[0])
}

func TestEmitOnlyMatchingEvent(t *testing.T) {
	bus := NewBus(nil)

	fired := false
	bus.On(EventUnsubscribe, func(ctx context.Context, p Payload) error {
		fired = true
		return nil
	})

	bus.Emit(context.Background(), EventSubscribe, Payload{UserID: 1, MovementID: 2})

	assert.False(t, fired)
}

func TestListenerFailureDoesNotAbortPeers(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	bus.On(EventSubscribe, func(ctx context.Context, p Payload) error {
		calls++
		return errors.New("boom")
	})
	bus.On(EventSubscribe, func(ctx context.Context, p Payload) error {
		calls++
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), EventSubscribe, Payload{UserID: 1, MovementID: 1})
	})
	assert.Equal(t, 2, calls)
}

func TestListenerPanicIsContained(t *testing.T) {
	bus := NewBus(nil)

	survived := false
	bus.On(EventCreation, func(ctx context.Context, p Payload) error {
		panic("listener bug")
	})
	bus.On(EventCreation, func(ctx context.Context, p Payload) error {
		survived = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), EventCreation, Payload{UserID: 3, MovementID: 4})
	})
	assert.True(t, survived)
}

func TestEmitWithNoListeners(t *testing.T) {
	bus := NewBus(nil)

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), EventRemoveCreation, Payload{})
	})
}
