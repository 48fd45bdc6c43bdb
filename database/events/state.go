package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription receives the latest change id for the tables it watches.
// Pending notifications are coalesced, so a slow reader only ever sees the
// most recent id.
type Subscription struct {
	ID     uuid.UUID
	tables map[string]struct{}
	ch     chan int
}

// C returns the notification channel. It is closed by Unsubscribe.
func (s *Subscription) C() <-chan int {
	return s.ch
}

func (s *Subscription) notify(eventId int) {
	select {
	case s.ch <- eventId:
		return
	default:
	}
	// Replace the stale pending id with the newer one
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- eventId:
	default:
	}
}

type EventState struct {
	mutex sync.RWMutex

	// The current change id
	currentEventId int
	lastChange     ChangeEvent

	// Subscribers who want to know when a watched table changed
	subscribers map[uuid.UUID]*Subscription
	// Closed and replaced on every publish, for WaitForEventId
	changed chan struct{}
}

func NewEventState(initialEventId int) *EventState {
	return &EventState{
		currentEventId: initialEventId,
		subscribers:    make(map[uuid.UUID]*Subscription),
		changed:        make(chan struct{}),
	}
}

// Subscribe registers interest in the given tables. With no tables the
// subscription fires on every change.
func (state *EventState) Subscribe(tables ...string) *Subscription {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	sub := &Subscription{
		ID:     uuid.New(),
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan int, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}
	state.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Calling it
// more than once is harmless.
func (state *EventState) Unsubscribe(sub *Subscription) {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	if _, ok := state.subscribers[sub.ID]; !ok {
		return
	}
	delete(state.subscribers, sub.ID)
	close(sub.ch)
}

// Publish records a committed write to the given tables and notifies the
// matching subscribers. It never blocks on a subscriber.
func (state *EventState) Publish(tables ...string) ChangeEvent {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	state.currentEventId++
	event := ChangeEvent{
		Id:        state.currentEventId,
		Tables:    append([]string(nil), tables...),
		Timestamp: time.Now(),
	}
	state.lastChange = event
	for _, sub := range state.subscribers {
		if event.Touches(sub.tables) {
			sub.notify(event.Id)
		}
	}
	close(state.changed)
	state.changed = make(chan struct{})
	return event
}

func (state *EventState) CurrentEventId() int {
	state.mutex.RLock()
	defer state.mutex.RUnlock()
	return state.currentEventId
}

// LastChange returns the most recently published change, or the zero value
// when nothing has been written yet.
func (state *EventState) LastChange() ChangeEvent {
	state.mutex.RLock()
	defer state.mutex.RUnlock()
	return state.lastChange
}

// WaitForEventId blocks until the change counter reaches eventId or the
// context ends. It returns false on timeout or cancellation.
func (state *EventState) WaitForEventId(ctx context.Context, eventId int) bool {
	for {
		state.mutex.RLock()
		current := state.currentEventId
		changed := state.changed
		state.mutex.RUnlock()

		if current >= eventId {
			return true
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}

func (state *EventState) SubscriberCount() int {
	state.mutex.RLock()
	defer state.mutex.RUnlock()
	return len(state.subscribers)
}
