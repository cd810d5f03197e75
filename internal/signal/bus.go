package signal

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/strategy"
)

type EventType string

const (
	EventNewSignal        EventType = "new_signal"
	EventRefreshCompleted EventType = "refresh_completed"
	EventTradeExecuted    EventType = "trade_executed"
	EventError            EventType = "error"
)

// Error taxonomy codes carried on EventError events.
const (
	CodeDataInsufficient    = "data_insufficient"
	CodeInvalidOperation    = "invalid_operation"
	CodePersistenceFailure  = "persistence_failure"
	CodeUpstreamUnavailable = "upstream_unavailable"
)

type Event struct {
	Type      EventType
	Timestamp time.Time

	// EventNewSignal / EventTradeExecuted
	Recommendation *strategy.Recommendation
	Message        string

	// EventRefreshCompleted
	Succeeded int
	Total     int

	// EventError
	Code string
	Err  error
}

type Handler func(Event)

// Bus dispatches events to subscribers synchronously, in registration
// order. Publish returns only after every handler has run; a panicking
// handler is recovered so it cannot starve the others.
type Bus struct {
	mu       sync.Mutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		dispatch(h, ev)
	}
}

func dispatch(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", string(ev.Type)).
				Msg("event handler panicked")
		}
	}()
	h(ev)
}
