// Package hashmap implements an open-chained hash map over prime-sized
// bucket tables, resized by load factor. Unlike Go's builtin map, the
// caller supplies the hash and equality functions, so keys need not satisfy
// comparable — the reactor uses this to index events by raw file
// descriptor without boxing.
package hashmap

// primes is the static table of bucket counts a Map grows through. Picking
// primes (rather than powers of two) spreads poorly-distributed hashes
// (e.g. small sequential fds) across buckets instead of colliding on a
// shared low-bit pattern.
var primes = []int{
	11, 23, 47, 97, 197, 397, 797, 1597, 3203, 6421,
	12853, 25717, 51437, 102877, 205759, 411527, 823117,
	1646237, 3292489, 6584983, 13169977, 26339969, 52679969,
}

const maxLoadFactor = 0.75

type node[K, V any] struct {
	key  K
	val  V
	next *node[K, V]
}

// Map is a chained hash map keyed by a caller-supplied hash/equal pair.
type Map[K, V any] struct {
	buckets  []*node[K, V]
	hash     func(K) uint64
	equal    func(a, b K) bool
	count    int
	primeIdx int
}

// New constructs a Map using hash to bucket keys and equal to compare them
// within a bucket's chain.
func New[K, V any](hash func(K) uint64, equal func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{
		buckets: make([]*node[K, V], primes[0]),
		hash:    hash,
		equal:   equal,
	}
}

// Len returns the number of entries stored.
func (m *Map[K, V]) Len() int { return m.count }

func (m *Map[K, V]) bucketIndex(k K) int {
	return int(m.hash(k) % uint64(len(m.buckets)))
}

// Find returns the value stored for k, and whether it was present.
func (m *Map[K, V]) Find(k K) (V, bool) {
	for n := m.buckets[m.bucketIndex(k)]; n != nil; n = n.next {
		if m.equal(n.key, k) {
			return n.val, true
		}
	}
	var zero V
	return zero, false
}

// FindOrInsert returns the existing value for k if present; otherwise it
// inserts zero and returns that, with inserted=true.
func (m *Map[K, V]) FindOrInsert(k K, zero V) (V, bool) {
	idx := m.bucketIndex(k)
	for n := m.buckets[idx]; n != nil; n = n.next {
		if m.equal(n.key, k) {
			return n.val, false
		}
	}
	m.buckets[idx] = &node[K, V]{key: k, val: zero, next: m.buckets[idx]}
	m.count++
	m.maybeGrow()
	return zero, true
}

// InsertOrReplace sets the value for k, overwriting any existing entry.
func (m *Map[K, V]) InsertOrReplace(k K, v V) {
	idx := m.bucketIndex(k)
	for n := m.buckets[idx]; n != nil; n = n.next {
		if m.equal(n.key, k) {
			n.val = v
			return
		}
	}
	m.buckets[idx] = &node[K, V]{key: k, val: v, next: m.buckets[idx]}
	m.count++
	m.maybeGrow()
}

// Remove deletes the entry for k, if present, returning whether it was.
func (m *Map[K, V]) Remove(k K) bool {
	idx := m.bucketIndex(k)
	var prev *node[K, V]
	for n := m.buckets[idx]; n != nil; n = n.next {
		if m.equal(n.key, k) {
			if prev == nil {
				m.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			m.count--
			return true
		}
		prev = n
	}
	return false
}

// Each calls fn for every stored key/value pair, in unspecified order.
func (m *Map[K, V]) Each(fn func(K, V)) {
	for _, head := range m.buckets {
		for n := head; n != nil; n = n.next {
			fn(n.key, n.val)
		}
	}
}

func (m *Map[K, V]) maybeGrow() {
	if float64(m.count) <= maxLoadFactor*float64(len(m.buckets)) {
		return
	}
	if m.primeIdx+1 >= len(primes) {
		return
	}
	m.primeIdx++
	next := make([]*node[K, V], primes[m.primeIdx])
	for _, head := range m.buckets {
		for n := head; n != nil; {
			nn := n.next
			idx := int(m.hash(n.key) % uint64(len(next)))
			n.next = next[idx]
			next[idx] = n
			n = nn
		}
	}
	m.buckets = next
}
