package fupool

import "errors"

// ErrTimeout is returned by Wait, WaitAny, and WaitAll when the deadline
// passes before the requested condition is met.
var ErrTimeout = errors.New("fupool: wait timed out")
