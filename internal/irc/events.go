package irc

import (
	"log"
	"sync"
)

// EventType names a category of event raised by the dispatcher
type EventType string

// Event categories
const (
	EventConnected      EventType = "CONNECTED"
	EventDisconnected   EventType = "DISCONNECTED"
	EventChannelMessage EventType = "CHANNEL_MESSAGE"
	EventPrivateMessage EventType = "PRIVATE_MESSAGE"
	EventChannelNotice  EventType = "CHANNEL_NOTICE"
	EventPrivateNotice  EventType = "PRIVATE_NOTICE"
	EventAction         EventType = "ACTION"
	EventChannelMode    EventType = "CHANNEL_MODE"
	EventUserMode       EventType = "USER_MODE"
	EventNumeric        EventType = "NUMERIC"
	EventInvite         EventType = "INVITE"
	EventJoin           EventType = "JOIN"
	EventKick           EventType = "KICK"
	EventNick           EventType = "NICK"
	EventPart           EventType = "PART"
	EventPing           EventType = "PING"
	EventQuit           EventType = "QUIT"
	EventTopic          EventType = "TOPIC"
	EventUnknown        EventType = "UNKNOWN"
	EventCTCPRequest    EventType = "CTCP_REQUEST"
	EventCTCPReply      EventType = "CTCP_REPLY"
	EventDCCRequest     EventType = "DCC_REQUEST"
)

// Event is delivered to callbacks. Only the fields relevant to Type are set
type Event struct {
	Type EventType

	// Message is the parsed line that raised the event. It is zero for
	// EventConnected and EventDisconnected
	Message Message

	// CTCP is set for EventCTCPRequest, EventCTCPReply and EventAction
	CTCP CTCPEnvelope

	// DCC is set for EventDCCRequest. Its Type is DCCNone when the offer
	// was malformed
	DCC DCCRequest

	// Err is the cause of an EventDisconnected, if any
	Err error
}

// Nick returns the nickname of the sender
func (e Event) Nick() string {
	return e.Message.Prefix.Nickname
}

// Source returns the sender prefix
func (e Event) Source() Prefix {
	return e.Message.Prefix
}

// Code returns the numeric code of an EventNumeric
func (e Event) Code() int {
	return e.Message.Command.Code()
}

// Callback handles an event
type Callback func(Event)

// CallbackID identifies a registered callback so it can be removed
type CallbackID struct {
	eventType EventType
	id        uint64
}

type callbackEntry struct {
	id uint64
	cb Callback
}

// Events is an ordered registry of callbacks per event type. Callbacks for
// one type run in registration order; a panicking callback is logged and
// does not prevent the others from running
type Events struct {
	mu        sync.Mutex
	nextID    uint64
	callbacks map[EventType][]callbackEntry
	logger    *log.Logger
}

// NewEvents creates an empty registry
func NewEvents(logger *log.Logger) *Events {
	if logger == nil {
		logger = log.Default()
	}
	return &Events{
		callbacks: make(map[EventType][]callbackEntry),
		logger:    logger,
	}
}

// Add registers cb for events of type t
func (r *Events) Add(t EventType, cb Callback) CallbackID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.callbacks[t] = append(r.callbacks[t], callbackEntry{id: r.nextID, cb: cb})
	return CallbackID{eventType: t, id: r.nextID}
}

// Remove unregisters a callback. It reports whether the callback was found
func (r *Events) Remove(id CallbackID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.callbacks[id.eventType]
	for i, entry := range entries {
		if entry.id == id.id {
			updated := make([]callbackEntry, 0, len(entries)-1)
			updated = append(updated, entries[:i]...)
			updated = append(updated, entries[i+1:]...)
			r.callbacks[id.eventType] = updated
			return true
		}
	}
	return false
}

// Clear removes every callback for t
func (r *Events) Clear(t EventType) {
	r.mu.Lock()
	delete(r.callbacks, t)
	r.mu.Unlock()
}

// Count returns the number of callbacks registered for t
func (r *Events) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks[t])
}

// Emit delivers e to every callback registered for its type
func (r *Events) Emit(e Event) {
	r.mu.Lock()
	entries := r.callbacks[e.Type]
	r.mu.Unlock()

	for _, entry := range entries {
		r.run(entry, e)
	}
}

func (r *Events) run(entry callbackEntry, e Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Printf("Callback for %s panicked: %v", e.Type, err)
		}
	}()
	entry.cb(e)
}
