package fupool

// Promise is the worker's ephemeral view of a future, obtained by
// presenting its sequence number to the pool. A promise is "live" if it
// found a future that was PENDING at StartPromise time (now transitioned
// to BUSY); otherwise it is "empty" — the future was already freed, or
// claimed by a racing StartPromise — and Commit only recycles the
// sequence.
type Promise struct {
	pool *Pool
	seq  uint16
	fut  *Future
}

// Empty reports whether this promise found no live, pending future.
func (p *Promise) Empty() bool { return p.fut == nil }

// Data returns the future's opaque payload, or nil for an empty promise.
func (p *Promise) Data() any {
	if p.fut == nil {
		return nil
	}
	return p.fut.data
}

// Commit finalises the promise. For a live promise, retcode is stored on
// the future, it transitions to READY, and status_cond waiters are woken.
// For an empty promise, the sequence is simply recycled.
func (p *Promise) Commit(retcode int) {
	pool := p.pool
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if p.fut == nil {
		pool.recycleLocked(p.seq)
		return
	}
	p.fut.retcode = retcode
	p.fut.state = StateReady
	pool.statusCond.Broadcast()
}
