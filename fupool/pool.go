// Package fupool implements an out-of-band completion registry that
// identifies in-flight work by dense 16-bit sequence numbers, with
// multi-wait semantics: a producer registers a Future, hands the sequence
// number to a worker (possibly over a wire, since it fits in 16 bits), and
// blocks on Wait / WaitAny / WaitAll. The worker opens a Promise against
// that sequence and commits a result.
package fupool

import (
	"sync"

	"github.com/li-xilin/gox/container/bitmap"
	"github.com/li-xilin/gox/reactorlog"
)

const seqSpace = 1 << 16

var log = reactorlog.Component(`fupool`)

// Pool owns the sequence bitmap, the in-flight future table, and the two
// condition variables futures and sequence allocation wait on.
type Pool struct {
	mu         sync.Mutex
	statusCond *sync.Cond
	seqCond    *sync.Cond
	used       *bitmap.Bitmap
	futures    [seqSpace]*Future
	lastID     int
	liveCount  int
}

// NewPool constructs an empty Pool. lastID starts at 0xFFFF, matching the
// original source, so the very first allocation wraps around to sequence
// 0 rather than 1.
func NewPool() *Pool {
	p := &Pool{
		used:   bitmap.New(seqSpace),
		lastID: 0xFFFF,
	}
	p.statusCond = sync.NewCond(&p.mu)
	p.seqCond = sync.NewCond(&p.mu)
	return p
}

// Close detaches every live future (state becomes NULL) and clears the
// pool's bookkeeping, matching fupool_free's contract. The pool itself
// remains usable after Close, with every sequence free again.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	detached := 0
	for seq := range p.futures {
		if f := p.futures[seq]; f != nil {
			f.state = StateNull
			p.futures[seq] = nil
			detached++
		}
	}
	p.used.ClearAll()
	p.liveCount = 0
	p.lastID = 0xFFFF
	p.seqCond.Broadcast()
	p.statusCond.Broadcast()
	if detached > 0 {
		log.Info().Int(`detached`, detached).Log(`pool closed with futures still live`)
	}
}

// allocateLocked finds the next clear bit searching forward from
// lastID+1 (wrapping), blocking on seqCond while the 65536-entry sequence
// space is fully saturated.
func (p *Pool) allocateLocked() uint16 {
	for p.liveCount == seqSpace {
		p.seqCond.Wait()
	}
	start := (p.lastID + 1) % seqSpace
	idx := p.used.Find(false, start, 0)
	if idx < 0 {
		idx = p.used.Find(false, 0, start)
	}
	p.used.Set(idx)
	p.lastID = idx
	return uint16(idx)
}

func (p *Pool) recycleLocked(seq uint16) {
	if p.used.Get(int(seq)) {
		p.used.Unset(int(seq))
		p.seqCond.Broadcast()
	}
}

// Init allocates a sequence number and registers a new future holding
// data, in state PENDING. It blocks if the 16-bit sequence space is
// entirely saturated (65536 futures in flight).
func (p *Pool) Init(data any) *Future {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq := p.allocateLocked()
	f := &Future{pool: p, seq: seq, data: data, state: StatePending}
	p.futures[seq] = f
	p.liveCount++
	return f
}

// Wait blocks until fut becomes ready or timeoutMsec elapses (-1: forever,
// 0: poll once). It returns 0 once ready, 1 if the future was already NULL
// when awaited, or a negative value with ErrTimeout on timeout.
func (p *Pool) Wait(fut *Future, timeoutMsec int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return waitFor(&p.mu, p.statusCond, timeoutMsec, func() (int, bool) {
		switch fut.state {
		case StateNull:
			return 1, true
		case StateReady:
			return 0, true
		default:
			return 0, false
		}
	})
}

// WaitAny blocks until the first of futs becomes ready, returning its
// index, or until every one of futs is observed NULL (returns len(futs)),
// or until timeoutMsec elapses (negative, ErrTimeout). All futures must
// belong to p.
func (p *Pool) WaitAny(futs []*Future, timeoutMsec int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(futs)
	return waitFor(&p.mu, p.statusCond, timeoutMsec, func() (int, bool) {
		allNull := true
		for i, f := range futs {
			if f.state != StateNull {
				allNull = false
			}
			if f.state == StateReady {
				return i, true
			}
		}
		if allNull {
			return n, true
		}
		return 0, false
	})
}

// WaitAll blocks until every one of futs is READY or NULL. It returns 0 if
// at least one future was not NULL at entry (so progress was observed); it
// returns len(futs) only if every future was already NULL when WaitAll was
// called. Negative with ErrTimeout on timeout.
func (p *Pool) WaitAll(futs []*Future, timeoutMsec int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(futs)
	allNullAtEntry := true
	for _, f := range futs {
		if f.state != StateNull {
			allNullAtEntry = false
			break
		}
	}

	remaining := append([]*Future(nil), futs...)
	return waitFor(&p.mu, p.statusCond, timeoutMsec, func() (int, bool) {
		next := remaining[:0]
		for _, f := range remaining {
			if f.state == StateNull || f.state == StateReady {
				continue
			}
			next = append(next, f)
		}
		remaining = next
		if len(remaining) != 0 {
			return 0, false
		}
		if allNullAtEntry {
			return n, true
		}
		return 0, true
	})
}

// Free blocks while fut is BUSY, then removes it from the pool, recycles
// its sequence, wakes every waiter, and transitions it to NULL. Freeing an
// already-NULL future is a no-op.
func (p *Pool) Free(fut *Future) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for fut.state == StateBusy {
		p.statusCond.Wait()
	}
	if fut.state == StateNull {
		return
	}
	seq := fut.seq
	p.futures[seq] = nil
	p.used.Unset(int(seq))
	p.liveCount--
	fut.state = StateNull

	p.seqCond.Broadcast()
	p.statusCond.Broadcast()
}

// StartPromise finds the future registered under seq. If it is PENDING,
// the future transitions to BUSY and the returned promise is live,
// carrying the future's data. Otherwise (freed, or raced to BUSY/READY by
// another StartPromise) the returned promise is empty.
func (p *Pool) StartPromise(seq uint16) *Promise {
	p.mu.Lock()
	defer p.mu.Unlock()

	f := p.futures[seq]
	if f != nil && f.state == StatePending {
		f.state = StateBusy
		return &Promise{pool: p, seq: seq, fut: f}
	}
	return &Promise{pool: p, seq: seq, fut: nil}
}
