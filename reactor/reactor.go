// Package reactor implements an epoll-style multiplexer over sockets,
// timers, and user-driven object events: attach events, block in Wait
// until at least one becomes pendable, then drain them one at a time with
// PopEvent. A self-pipe lets any thread interrupt a blocked Wait via
// Signal or Break without the caller needing direct access to the mux.
package reactor

import (
	"sync"
	"time"

	"github.com/li-xilin/gox/container/hashmap"
	"github.com/li-xilin/gox/container/heap"
	"github.com/li-xilin/gox/container/list"
	"github.com/li-xilin/gox/reactorlog"
)

// clockSkewGuard bounds how far a timer's computed wait may exceed its own
// interval before the reactor concludes the system clock jumped backward
// and rearms every timer relative to now.
const clockSkewGuard = 5 * time.Second

var log = reactorlog.Component(`reactor`)

// Reactor multiplexes sockets, timers, and object events under a single
// mutex. The zero value is not valid; construct with New.
type Reactor struct {
	mu      sync.Mutex
	mux     mux
	pending *list.List[*Event]
	sockets *hashmap.Map[int, *Event]
	timers  *heap.Heap
	objects []*Event

	wakeRead, wakeWrite int
	breaking            bool
	closed              bool

	timerCapacityHint int
	metrics           *Metrics
}

// New constructs a Reactor: a mux handle and wake self-pipe are created
// immediately.
func New(opts ...Option) (*Reactor, error) {
	r := &Reactor{
		pending: &list.List[*Event]{},
		sockets: hashmap.New[int, *Event](
			func(k int) uint64 { return uint64(k) },
			func(a, b int) bool { return a == b },
		),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	r.timers = heap.New(r.timerCapacityHint)

	m, err := newMux()
	if err != nil {
		log.Err().Err(err).Log(`mux construction failed`)
		return nil, err
	}
	r.mux = m

	rf, wf, err := createWake()
	if err != nil {
		log.Err().Err(err).Log(`wake pipe construction failed`)
		_ = m.close()
		return nil, err
	}
	r.wakeRead, r.wakeWrite = rf, wf
	if err := r.mux.add(rf, Read); err != nil {
		closeWake(rf)
		_ = m.close()
		return nil, err
	}
	return r, nil
}

// Close tears down the reactor: the mux and wake pipe are released. Not
// safe to call concurrently with Wait.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	err := r.mux.close()
	closeWake(r.wakeRead)
	return err
}

func (r *Reactor) wakeLocked() {
	signalWake(r.wakeWrite)
}

func (r *Reactor) linkPendingLocked(e *Event) int {
	if e.pendingLinked {
		return 0
	}
	e.pendingLinked = true
	e.pendElem = r.pending.PushBack(e)
	return 1
}

func (r *Reactor) unlinkPendingLocked(e *Event) {
	if !e.pendingLinked {
		return
	}
	r.pending.Remove(e.pendElem)
	e.pendingLinked = false
	e.pendElem = nil
}

// Add attaches e to the reactor. For a timer event, expiration is set to
// now+interval.
func (r *Reactor) Add(e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if e.reacting {
		return ErrAlready
	}

	switch e.kind {
	case kindSocket:
		if e.fd < 0 {
			return ErrInvalid
		}
		if _, found := r.sockets.Find(e.fd); found {
			return ErrExists
		}
		if err := r.mux.add(e.fd, e.muxInterest()); err != nil {
			return err
		}
		r.sockets.InsertOrReplace(e.fd, e)
	case kindTimer:
		if e.intervalMs <= 0 {
			return ErrInvalid
		}
		e.expiration = time.Now().Add(time.Duration(e.intervalMs) * time.Millisecond)
		r.timers.Push(e)
	case kindObject:
		r.objects = append(r.objects, e)
	default:
		return ErrInvalid
	}

	e.reacting = true
	e.r = r
	r.wakeLocked()
	return nil
}

// Modify re-registers a socket's interest flags, or re-positions a timer
// whose interval changed.
func (r *Reactor) Modify(e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if !e.reacting {
		return ErrNotAttached
	}

	switch e.kind {
	case kindSocket:
		if err := r.mux.mod(e.fd, e.muxInterest()); err != nil {
			return err
		}
	case kindTimer:
		r.timers.Remove(e)
		e.expiration = time.Now().Add(time.Duration(e.intervalMs) * time.Millisecond)
		r.timers.Push(e)
	case kindObject:
		// object events carry no kernel registration; SetResultFlags is
		// the only thing that changes.
	}
	r.wakeLocked()
	return nil
}

// detachLocked unregisters e from whichever substructure owns it, leaving
// its pending-list linkage (if any) untouched.
func (r *Reactor) detachLocked(e *Event) {
	switch e.kind {
	case kindSocket:
		_ = r.mux.del(e.fd)
		r.sockets.Remove(e.fd)
	case kindTimer:
		r.timers.Remove(e)
	case kindObject:
		for i, obj := range r.objects {
			if obj == e {
				r.objects = append(r.objects[:i], r.objects[i+1:]...)
				break
			}
		}
	}
	e.reacting = false
	e.r = nil
}

// Remove detaches e. Idempotent if e isn't currently attached.
func (r *Reactor) Remove(e *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !e.reacting {
		return
	}
	r.detachLocked(e)
	r.unlinkPendingLocked(e)
	r.wakeLocked()
}

// Signal wakes a blocked Wait without marking anything ready, so another
// thread may safely mutate reactor state while Wait is quiescent.
func (r *Reactor) Signal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakeLocked()
}

// Break causes the current or next Wait to return 0, exactly once.
func (r *Reactor) Break() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breaking = true
	r.wakeLocked()
}

// Pend inserts e into the pending list directly, with the given result
// flags, without going through the mux. Used to requeue an event.
func (r *Reactor) Pend(e *Event, flags Flags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.resultFlags = flags
	r.linkPendingLocked(e)
	r.wakeLocked()
}

// PopEvent dequeues one pended event, or returns nil if none is pending. A
// ONCE socket event stays attached after it fires (mirroring EPOLLONESHOT:
// the mux suspends further delivery for that fd, but the fd itself remains
// registered) — call Modify to re-arm it or Remove to detach it.
func (r *Reactor) PopEvent() *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	elem := r.pending.Front()
	if elem == nil {
		return nil
	}
	ev := elem.Value
	r.pending.Remove(elem)
	ev.pendingLinked = false
	ev.pendElem = nil
	return ev
}

// computeTimeoutLocked returns the millisecond timeout for the next mux
// poll: -1 for infinite (no timers registered), else the time until the
// nearest timer's expiration. If that delta implies the clock has jumped
// backward (exceeds the timer's own interval plus a guard band), every
// timer is rearmed relative to now and a zero-length poll is used.
func (r *Reactor) computeTimeoutLocked() int {
	if r.timers.Len() == 0 {
		return -1
	}
	top := r.timers.Top().(*Event)
	now := time.Now()
	delta := top.expiration.Sub(now)
	interval := time.Duration(top.intervalMs) * time.Millisecond

	if delta > interval+clockSkewGuard {
		r.rearmAllTimersLocked(now)
		return 0
	}
	if delta < 0 {
		delta = 0
	}
	return int(delta.Milliseconds())
}

func (r *Reactor) rearmAllTimersLocked(now time.Time) {
	var all []*Event
	for r.timers.Len() > 0 {
		all = append(all, r.timers.Pop().(*Event))
	}
	for _, t := range all {
		t.expiration = now.Add(time.Duration(t.intervalMs) * time.Millisecond)
		r.timers.Push(t)
	}
}

// drainReadyTimersLocked unlinks every expired timer from the heap,
// re-arms or drops it, and links it into the pending list. Returns the
// count newly linked.
func (r *Reactor) drainReadyTimersLocked(now time.Time) int {
	added := 0
	for r.timers.Len() > 0 {
		top := r.timers.Top().(*Event)
		if top.expiration.After(now) {
			break
		}
		r.timers.Pop()
		added += r.linkPendingLocked(top)

		if top.once {
			top.reacting = false
			top.r = nil
			continue
		}
		if top.accurate {
			interval := time.Duration(top.intervalMs) * time.Millisecond
			behind := now.Sub(top.expiration)
			n := int64(behind/interval) + 1
			if n < 1 {
				n = 1
			}
			top.expiration = top.expiration.Add(time.Duration(n) * interval)
		} else {
			top.expiration = now.Add(time.Duration(top.intervalMs) * time.Millisecond)
		}
		r.timers.Push(top)
	}
	return added
}

func (r *Reactor) drainReadySocketsLocked() int {
	added := 0
	for {
		fd, flags, ok := r.mux.next()
		if !ok {
			break
		}
		if fd == r.wakeRead {
			drainWake(r.wakeRead)
			continue
		}
		ev, found := r.sockets.Find(fd)
		if !found {
			continue
		}
		ev.resultFlags = flags
		added += r.linkPendingLocked(ev)
	}
	return added
}

func (r *Reactor) drainReadyObjectsLocked() int {
	added := 0
	for _, obj := range r.objects {
		if obj.resultFlags != 0 {
			added += r.linkPendingLocked(obj)
		}
	}
	return added
}

// Wait blocks until at least one event is pendable or Break was called.
// Returns the number of newly pending events, 0 if broken out, -1 on
// error.
func (r *Reactor) Wait() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return -1, ErrClosed
	}

	start := time.Now()
	for {
		if r.breaking {
			r.breaking = false
			r.metrics.recordWait(time.Since(start), 0)
			return 0, nil
		}

		timeoutMs := r.computeTimeoutLocked()

		r.mu.Unlock()
		err := r.mux.poll(timeoutMs)
		r.mu.Lock()
		if err != nil {
			log.Err().Err(err).Log(`mux poll failed`)
			return -1, err
		}

		now := time.Now()
		added := r.drainReadyTimersLocked(now)
		added += r.drainReadySocketsLocked()
		added += r.drainReadyObjectsLocked()

		if added > 0 {
			r.metrics.recordWait(time.Since(start), added)
			return added, nil
		}
	}
}
