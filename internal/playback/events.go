package playback

import "time"

// EventKind names a playback transition.
type EventKind string

const (
	EventTick   EventKind = "tick"
	EventManual EventKind = "manual"
	EventStart  EventKind = "start"
	EventStop   EventKind = "stop"
	EventReset  EventKind = "reset"
	EventSeek   EventKind = "seek"
)

// Event records the index reached by a transition.
type Event struct {
	Kind  EventKind `json:"event"`
	Index int       `json:"index"`
	At    time.Time `json:"timestamp"`
}

// DefaultLogSize is how many events a Scheduler keeps.
const DefaultLogSize = 200

// EventLog is a fixed-size ring of the most recent events.
type EventLog struct {
	buf  []Event
	next int
	full bool
}

// NewEventLog returns a log that keeps the last size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 1
	}
	return &EventLog{buf: make([]Event, size)}
}

// Add appends e, overwriting the oldest entry once full.
func (l *EventLog) Add(e Event) {
	l.buf[l.next] = e
	l.next++
	if l.next == len(l.buf) {
		l.next = 0
		l.full = true
	}
}

// Len is the number of events held.
func (l *EventLog) Len() int {
	if l.full {
		return len(l.buf)
	}
	return l.next
}

// Events returns the held events, oldest first.
func (l *EventLog) Events() []Event {
	if !l.full {
		return append([]Event(nil), l.buf[:l.next]...)
	}
	out := make([]Event, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}
