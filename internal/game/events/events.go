// Package events provides a synchronous publish/subscribe bus for game
// lifecycle notifications.
package events

import (
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameCreated    EventType = "GAME_CREATED"
	EventActionApplied  EventType = "ACTION_APPLIED"
	EventActionRejected EventType = "ACTION_REJECTED"
	EventGameEnded      EventType = "GAME_ENDED"
)

// Event describes something that happened to a game.
type Event struct {
	Type      EventType
	GameID    string
	Player    string // colour of the acting player, empty if none
	Action    string // encoded action, if any
	Seq       int    // index of the action in the game's log
	Err       string // rejection reason
	Timestamp time.Time
	Metadata  map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle   int
	callback Listener
}

// EventBus delivers events to listeners synchronously, in the publisher's goroutine.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{handle: handle, callback: callback})
	return handle
}

// Unsubscribe removes the listener identified by handle, typed or not.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners must not subscribe or unsubscribe from within the callback.
func (bus *EventBus) Publish(event Event) {
	if bus == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}

// NewEvent creates an event for a game with the timestamp set.
func NewEvent(eventType EventType, gameID string) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}
