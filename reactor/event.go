package reactor

import (
	"time"

	"github.com/li-xilin/gox/container/heap"
	"github.com/li-xilin/gox/container/list"
)

// Flags is a bitmask of socket interest/result flags, or an object
// event's user-driven result-flag word.
type Flags uint32

const (
	// Read marks readability interest, or a read-ready result.
	Read Flags = 1 << iota
	// Write marks writability interest, or a write-ready result.
	Write
	// Error marks an error condition observed on a socket; never set as
	// an interest flag, only as a result.
	Error
	// Once marks a socket's interest as one-shot: the mux suppresses
	// further delivery for that fd once it fires, until the fd is
	// re-armed via Modify. Never set as a result flag.
	Once
)

// kind distinguishes the three event variants the reactor multiplexes.
type kind int

const (
	kindSocket kind = iota
	kindTimer
	kindObject
)

// Event is a caller-owned handle the reactor borrows while it is
// attached. The zero value of each constructor (NewSocketEvent,
// NewTimerEvent, NewObjectEvent) is ready to pass to Add.
type Event struct {
	kind kind

	// socket fields
	fd       int
	interest Flags
	once     bool

	// timer fields
	intervalMs int
	accurate   bool
	expiration time.Time
	heapIndex  int

	// shared
	resultFlags   Flags
	userData      any
	reacting      bool
	pendingLinked bool
	pendElem      *list.Element[*Event]
	r             *Reactor
}

// NewSocketEvent describes interest in fd for the given flags (Read and/or
// Write). If once is true, the mux arms EPOLLONESHOT: after the event
// fires, delivery is suspended until the caller re-arms it with Modify (or
// removes it with Remove). The event itself stays attached either way.
func NewSocketEvent(fd int, interest Flags, once bool, userData any) *Event {
	return &Event{kind: kindSocket, fd: fd, interest: interest, once: once, userData: userData, heapIndex: -1}
}

// NewTimerEvent describes a recurring timer firing every intervalMs
// milliseconds. If accurate, re-arming advances expiration to the next
// aligned tick rather than resetting it to now+interval (avoiding drift
// under repeated scheduling delay). If once, the timer is not re-armed
// after it first fires.
func NewTimerEvent(intervalMs int, accurate, once bool, userData any) *Event {
	return &Event{kind: kindTimer, intervalMs: intervalMs, accurate: accurate, once: once, userData: userData, heapIndex: -1}
}

// NewObjectEvent describes a kernel-object-less event: it becomes pendable
// whenever SetResultFlags has left a non-zero word on it at poll time.
func NewObjectEvent(userData any) *Event {
	return &Event{kind: kindObject, userData: userData, heapIndex: -1}
}

// FD returns the socket event's file descriptor.
func (e *Event) FD() int { return e.fd }

// muxInterest folds e's once bit into its interest flags for the mux's
// add/mod calls, so a ONCE socket is armed with EPOLLONESHOT.
func (e *Event) muxInterest() Flags {
	f := e.interest
	if e.once {
		f |= Once
	}
	return f
}

// ResultFlags returns the flags observed the last time this event became
// pending.
func (e *Event) ResultFlags() Flags { return e.resultFlags }

// SetResultFlags sets an object event's result-flag word; a non-zero word
// makes the event pendable on the reactor's next poll.
func (e *Event) SetResultFlags(f Flags) { e.resultFlags = f }

// UserData returns the opaque pointer supplied at construction.
func (e *Event) UserData() any { return e.userData }

// Reacting reports whether the event is currently attached to a reactor.
func (e *Event) Reacting() bool { return e.reacting }

// Less implements heap.Item, comparing timer events by expiration. Only
// meaningful for kindTimer events, the only ones ever pushed onto a timer
// heap.
func (e *Event) Less(other heap.Item) bool {
	return e.expiration.Before(other.(*Event).expiration)
}

// Index returns the event's last-known slot in the timer heap.
func (e *Event) Index() int { return e.heapIndex }

// SetIndex records the event's current slot in the timer heap.
func (e *Event) SetIndex(i int) { e.heapIndex = i }
