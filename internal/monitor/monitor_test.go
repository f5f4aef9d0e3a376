package monitor

import (
	"testing"
	"time"

	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(eventlog.Event{Type: "task_submit", Category: eventlog.CategoryInteraction})

	select {
	case ev := <-events:
		assert.Equal(t, "task_submit", ev.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	_, cancel := bus.Subscribe()
	defer cancel()

	// Publish far more than the buffer holds; must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Publish(eventlog.Event{Type: "tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	events, cancel := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed after cancel
	_, open := <-events
	assert.False(t, open)

	// Cancelling twice is safe
	cancel()
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bus.Publish(eventlog.Event{Type: "consent_given"})

	for _, ch := range []<-chan eventlog.Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, "consent_given", ev.Type)
		case <-time.After(time.Second):
			t.Fatal("event not delivered to all subscribers")
		}
	}
}
