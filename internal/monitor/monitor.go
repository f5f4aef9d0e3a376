// Package monitor provides a live feed of study events for researchers
// watching data collection in real time.
//
// The bus fans events out to websocket subscribers. Delivery is best
// effort: a slow subscriber drops events rather than backpressuring the
// participant flow.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const subscriberBuffer = 64

// Bus fans study events out to live subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan eventlog.Event]struct{}
	log         zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[chan eventlog.Event]struct{}),
		log:         logger.With().Str("component", "monitor").Logger(),
	}
}

// Publish delivers an event to every subscriber. Never blocks; a full
// subscriber channel drops the event.
func (b *Bus) Publish(event eventlog.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Slow consumer, drop
		}
	}
}

// Subscribe registers a new subscriber channel. The returned cancel
// function unregisters and closes it.
func (b *Bus) Subscribe() (<-chan eventlog.Event, func()) {
	ch := make(chan eventlog.Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// StreamHandler upgrades the request to a websocket and streams events
// until the client disconnects.
func (b *Bus) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same-origin dashboard only; cross-origin embedding is not a use case
		InsecureSkipVerify: false,
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	events, cancel := b.Subscribe()
	defer cancel()

	b.log.Info().Int("subscribers", b.SubscriberCount()).Msg("Monitor subscriber connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "bus closed")
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				continue
			}

			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
