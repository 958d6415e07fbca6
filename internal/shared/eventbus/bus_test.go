package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"bus-tracker/internal/shared/logger"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var got Event
	bus.Subscribe(EventTypeBusCreated, func(ctx context.Context, event Event) error {
		got = event
		return nil
	})

	ev := NewEvent(EventTypeBusCreated, "driver-1", "bus-1")
	assert.NoError(t, bus.Publish(context.Background(), ev))
	assert.Equal(t, "driver-1", got.ActorID)
	assert.Equal(t, "bus-1", got.SubjectID)
}

func TestEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(logger.NewNopLogger())
	assert.NoError(t, bus.Publish(context.Background(), NewEvent("nobody.listens", "", "")))
}

func TestEventBus_RetriesThenFails(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	calls := 0
	boom := errors.New("boom")
	bus.Subscribe(EventTypeBusDeleted, func(ctx context.Context, event Event) error {
		calls++
		return boom
	})

	err := bus.Publish(context.Background(), NewEvent(EventTypeBusDeleted, "d", "b"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestEventBus_RetrySucceeds(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	calls := 0
	bus.Subscribe(EventTypeBusUpdated, func(ctx context.Context, event Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, bus.Publish(context.Background(), NewEvent(EventTypeBusUpdated, "d", "b")))
	assert.Equal(t, 2, calls)
}

func TestEventBus_SubscribeAllAndUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	bus.SubscribeAll(AuditHandler(logger.NewNopLogger()), EventTypeBusCreated, EventTypeUserLoggedOut)
	assert.Equal(t, 1, bus.GetSubscriberCount(EventTypeBusCreated))
	assert.Equal(t, 1, bus.GetSubscriberCount(EventTypeUserLoggedOut))

	bus.Unsubscribe(EventTypeBusCreated)
	assert.Equal(t, 0, bus.GetSubscriberCount(EventTypeBusCreated))
}
