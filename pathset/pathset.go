// Package pathset implements a hierarchical mask set: a collection of
// (path, bitmask, is_leaf) marks where a mark set at a directory applies,
// by default, to everything beneath it — "descendant dominance" — until a
// deeper mark overrides specific bits at a specific subpath. Leaf marks
// stand alone; they carry no descendants and never propagate.
//
// A PathSet answers two questions cheaply: "what's the effective mask at
// this path" (Mask) and "what's the minimal set of paths that together
// cover everything marked" (FindTop). Both insert and remove run in time
// proportional to the number of marks currently stored, not the depth of
// any one path — the source trades that for simplicity over a real
// prefix-tree, and this port keeps the trade.
package pathset

import (
	"sync"

	"github.com/li-xilin/gox/container/arena"
	"github.com/li-xilin/gox/container/list"
	"github.com/li-xilin/gox/reactorlog"
)

var log = reactorlog.Component(`pathset`)

// PathSet is safe for concurrent use; all operations take the set's lock.
type PathSet struct {
	mu sync.RWMutex

	maxDepth  int
	maxLength int
	chunkSize int

	arena *arena.Arena[Mark]
	marks *list.List[*Mark]

	unitaryMask uint32
}

// New constructs an empty PathSet.
func New(opts ...Option) *PathSet {
	p := &PathSet{
		maxDepth:  defaultMaxDepth,
		maxLength: defaultMaxLength,
		chunkSize: 64,
		marks:     &list.List[*Mark]{},
	}
	for _, opt := range opts {
		opt.apply(p)
	}
	p.arena = arena.New[Mark](p.chunkSize)
	return p
}

func (p *PathSet) allMarks() []*Mark {
	out := make([]*Mark, 0, p.marks.Len())
	p.marks.Each(func(e *list.Element[*Mark]) {
		out = append(out, e.Value)
	})
	return out
}

// nearestAncestorAmong returns the deepest mark with the given IsLeaf flag
// (excluding exclude) whose path is an ancestor of, or equal to, path. It
// returns nil if no such mark exists.
func nearestAncestorAmong(marks []*Mark, path string, isLeaf bool, exclude *Mark) *Mark {
	var best *Mark
	for _, m := range marks {
		if m == exclude || m.IsLeaf != isLeaf {
			continue
		}
		if !isAncestorOrEqual(m.Path, path) {
			continue
		}
		if best == nil || m.Depth > best.Depth {
			best = m
		}
	}
	return best
}

func (p *PathSet) newMark(path string, depth int, hashChain uint64, isLeaf bool, startMask uint32) *Mark {
	m := p.arena.Alloc()
	m.Path = path
	m.Depth = depth
	m.HashChain = hashChain
	m.IsLeaf = isLeaf
	m.Mask = startMask
	m.elem = p.marks.PushBack(m)
	return m
}

func (p *PathSet) deleteMark(m *Mark) {
	p.marks.Remove(m.elem)
}

func (p *PathSet) recomputeUnitaryMask() {
	var u uint32
	p.marks.Each(func(e *list.Element[*Mark]) {
		u |= e.Value.Mask
	})
	p.unitaryMask = u
}

// transmit applies an insert (OR) or remove (AND-NOT) of maskBits to
// updated's subtree and keeps unitary_mask consistent, per the dominance
// invariant: a non-leaf mark's bit change propagates to every strict
// descendant sharing its is_leaf flag, and any descendant whose mask
// becomes identical to its nearest remaining ancestor is redundant and is
// dropped.
func (p *PathSet) transmit(updated *Mark, maskBits uint32, isInsert bool) {
	if updated.IsLeaf {
		if isInsert {
			p.unitaryMask |= maskBits
		} else {
			p.recomputeUnitaryMask()
		}
		return
	}

	for _, m2 := range p.allMarks() {
		if m2 == updated || m2.IsLeaf {
			continue
		}
		if !isStrictDescendant(m2.Path, updated.Path) {
			continue
		}
		if isInsert {
			m2.Mask |= maskBits
		} else {
			m2.Mask &^= maskBits
		}
	}

	for _, m2 := range p.allMarks() {
		if m2.IsLeaf {
			continue
		}
		anc := nearestAncestorAmong(p.allMarks(), m2.Path, false, m2)
		if anc != nil && anc.Mask == m2.Mask {
			p.deleteMark(m2)
		}
	}

	p.recomputeUnitaryMask()
}

// Insert applies maskBits at path for the given leaf/non-leaf chain and
// returns the bits that were newly set at that specific mark (bits already
// implied by an ancestor are not counted twice).
func (p *PathSet) Insert(maskBits uint32, path string, isLeaf bool) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	npath, depth, hashChain, err := canonicalize(path, p.maxDepth, p.maxLength)
	if err != nil {
		log.Debug().Str(`path`, path).Err(err).Log(`rejected invalid path on insert`)
		return 0, err
	}

	m := nearestAncestorAmong(p.allMarks(), npath, isLeaf, nil)
	var mark *Mark
	var bitsAdded uint32
	switch {
	case m != nil && m.Path == npath:
		mark = m
		bitsAdded = maskBits &^ mark.Mask
		mark.Mask |= maskBits
	case m != nil:
		mark = p.newMark(npath, depth, hashChain, isLeaf, m.Mask)
		bitsAdded = maskBits &^ mark.Mask
		mark.Mask |= maskBits
	default:
		mark = p.newMark(npath, depth, hashChain, isLeaf, 0)
		bitsAdded = maskBits
		mark.Mask = maskBits
	}

	p.transmit(mark, maskBits, true)
	return bitsAdded, nil
}

// Remove clears maskBits at path for the given leaf/non-leaf chain and
// returns the bits that were actually cleared at that specific mark.
func (p *PathSet) Remove(maskBits uint32, path string, isLeaf bool) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	npath, depth, hashChain, err := canonicalize(path, p.maxDepth, p.maxLength)
	if err != nil {
		return 0, err
	}

	m := nearestAncestorAmong(p.allMarks(), npath, isLeaf, nil)
	var mark *Mark
	var bitsRemoved uint32
	switch {
	case m != nil && m.Path == npath:
		mark = m
		bitsRemoved = maskBits & mark.Mask
		mark.Mask &^= maskBits
	case m != nil:
		mark = p.newMark(npath, depth, hashChain, isLeaf, m.Mask)
		bitsRemoved = maskBits & mark.Mask
		mark.Mask &^= maskBits
	default:
		mark = p.newMark(npath, depth, hashChain, isLeaf, 0)
		bitsRemoved = 0
	}

	p.transmit(mark, maskBits, false)
	return bitsRemoved, nil
}

// Mask returns the effective mask that applies at path: the mask of the
// deepest mark among the non-leaf marks at path or an ancestor of it and
// the leaf mark at exactly path (a leaf mark never applies below itself).
// Returns 0 if no mark applies.
func (p *PathSet) Mask(path string) (uint32, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	npath, _, _, err := canonicalize(path, p.maxDepth, p.maxLength)
	if err != nil {
		return 0, err
	}

	var best *Mark
	p.marks.Each(func(e *list.Element[*Mark]) {
		m := e.Value
		if m.IsLeaf {
			if m.Path != npath {
				return
			}
		} else if !isAncestorOrEqual(m.Path, npath) {
			return
		}
		if best == nil || m.Depth > best.Depth {
			best = m
		}
	})
	if best == nil {
		return 0, nil
	}
	return best.Mask, nil
}

// UnitaryMask returns the OR of every mark currently stored.
func (p *PathSet) UnitaryMask() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unitaryMask
}

// Entry is one element of a FindTop result.
type Entry struct {
	Path string
}

// FindTop returns the minimal set of paths covering every stored mark: a
// path is omitted if some other stored mark is its ancestor.
func (p *PathSet) FindTop() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	all := p.allMarks()
	var out []Entry
	for _, m := range all {
		covered := false
		for _, other := range all {
			if other == m {
				continue
			}
			if isStrictDescendant(m.Path, other.Path) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, Entry{Path: m.Path})
		}
	}
	return out
}

// Clear removes every mark and resets unitary_mask to 0.
func (p *PathSet) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks = &list.List[*Mark]{}
	p.arena.Reset()
	p.unitaryMask = 0
}
