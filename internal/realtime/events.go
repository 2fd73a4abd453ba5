package realtime

import (
	"sync"
	"time"
)

type EventType string

const (
	EventPollingStarted   EventType = "polling_started"
	EventPollingSucceeded EventType = "polling_succeeded"
	EventPollingFailed    EventType = "polling_failed"
)

// Event is a change notification emitted by the controller.
type Event struct {
	Type           EventType      `json:"type"`
	CycleID        string         `json:"cycleId"`
	Time           time.Time      `json:"time"`
	Message        string         `json:"message,omitempty"`
	Classification Classification `json:"classification,omitempty"`
	Changes        *Changes       `json:"changes,omitempty"`
}

const defaultSubscriberBuffer = 16

// eventHub fans events out to subscribers without ever blocking the sender.
type eventHub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

func newEventHub(buffer int) *eventHub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &eventHub{subs: map[int]chan Event{}, buffer: buffer}
}

func (h *eventHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// publish delivers e to every subscriber with room in its buffer and
// returns how many subscribers missed it.
func (h *eventHub) publish(e Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	missed := 0
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			missed++
		}
	}
	return missed
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
