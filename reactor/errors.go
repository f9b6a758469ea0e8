package reactor

import "errors"

// Sentinel conditions returned by Add/Modify/Wait/Close, in the
// POSIX-flavoured style of errno-derived error sets.
var (
	// ErrAlready is returned by Add when the event is already attached to
	// a reactor.
	ErrAlready = errors.New("reactor: event already attached")

	// ErrExists is returned by Add when a socket event's fd is already
	// registered with this reactor.
	ErrExists = errors.New("reactor: fd already registered")

	// ErrInvalid is returned for malformed events (e.g. a negative fd, a
	// non-positive timer interval).
	ErrInvalid = errors.New("reactor: invalid event")

	// ErrNotAttached is returned by Modify when the event isn't currently
	// attached.
	ErrNotAttached = errors.New("reactor: event not attached")

	// ErrClosed is returned by Add, Modify, Wait, and Close on a torn-down
	// reactor.
	ErrClosed = errors.New("reactor: closed")
)
