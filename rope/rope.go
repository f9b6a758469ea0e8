// Package rope implements a splay-tree-indexed piecewise string: an
// ordered tree of byte-buffer-owning nodes whose in-order traversal yields
// the logical string, indexed positionally by cached subtree weights.
//
// Unlike a classic (immutable, leaf-text-only) rope, every node here owns
// its own slice of the string — the splay tree indexes *pieces*, and
// "balance" rearranges which pieces sit where without recopying their
// bytes. Rope is not safe for concurrent use; callers serialise access the
// same way they would for any other unshared local value.
package rope

import "fmt"

type node struct {
	left, right, parent *node
	buf                  []byte
	size                 int
	weight               int
}

func weight(n *node) int {
	if n == nil {
		return 0
	}
	return n.weight
}

func fix(n *node) {
	n.weight = n.size + weight(n.left) + weight(n.right)
}

// Rope is a mutable piecewise string. The zero value is an empty rope.
type Rope struct {
	root *node
}

// New constructs a Rope holding a copy of s.
func New(s string) *Rope {
	r := &Rope{}
	if len(s) > 0 {
		r.root = &node{buf: []byte(s), size: len(s)}
		fix(r.root)
	}
	return r
}

// NewOwned constructs a Rope taking ownership of b directly, without
// copying (the source's init_owned).
func NewOwned(b []byte) *Rope {
	r := &Rope{}
	if len(b) > 0 {
		r.root = &node{buf: b, size: len(b)}
		fix(r.root)
	}
	return r
}

// Len returns the logical length of the rope in bytes. O(1).
func (r *Rope) Len() int { return weight(r.root) }

// Empty reports whether the rope holds no bytes.
func (r *Rope) Empty() bool { return r.root == nil }

func (r *Rope) setRoot(n *node) {
	r.root = n
	if n != nil {
		n.parent = nil
	}
}

func (r *Rope) rotateLeft(x *node) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		r.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
	fix(x)
	fix(y)
}

func (r *Rope) rotateRight(x *node) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		r.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
	fix(x)
	fix(y)
}

func (r *Rope) splay(x *node) {
	for x.parent != nil {
		p := x.parent
		g := p.parent
		if g == nil {
			if x == p.left {
				r.rotateRight(p)
			} else {
				r.rotateLeft(p)
			}
			continue
		}
		switch {
		case x == p.left && p == g.left:
			r.rotateRight(g)
			r.rotateRight(p)
		case x == p.right && p == g.right:
			r.rotateLeft(g)
			r.rotateLeft(p)
		case x == p.right && p == g.left:
			r.rotateLeft(p)
			r.rotateRight(g)
		default:
			r.rotateRight(p)
			r.rotateLeft(g)
		}
	}
	r.root = x
}

// findNode descends to the node containing logical index i (0 <= i <
// Len()) and splays it to the root. It returns the node and the offset of
// i within that node's buffer.
func (r *Rope) findNode(i int) (*node, int) {
	n := r.root
	idx := i
	for {
		l := weight(n.left)
		if idx < l {
			n = n.left
		} else if idx < l+n.size {
			offset := idx - l
			r.splay(n)
			return n, offset
		} else {
			idx -= l + n.size
			n = n.right
		}
	}
}

// GetNode returns the node containing index i, splayed to the root, and
// its offset within that node — the amortisation helper behind repeated
// nearby access. Panics if i is out of [0, Len()).
func (r *Rope) GetNode(i int) (value []byte, offset int) {
	if i < 0 || i >= r.Len() {
		panic("rope: index out of range")
	}
	n, off := r.findNode(i)
	return n.buf, off
}

// At returns the byte at logical index i. Panics if out of range.
func (r *Rope) At(i int) byte {
	buf, off := r.GetNode(i)
	return buf[off]
}

// Clone returns a deep copy of r; mutating the clone never affects r.
func (r *Rope) Clone() *Rope {
	var cloneNode func(*node) *node
	cloneNode = func(n *node) *node {
		if n == nil {
			return nil
		}
		c := &node{
			buf:  append([]byte(nil), n.buf...),
			size: n.size,
		}
		c.left = cloneNode(n.left)
		if c.left != nil {
			c.left.parent = c
		}
		c.right = cloneNode(n.right)
		if c.right != nil {
			c.right.parent = c
		}
		fix(c)
		return c
	}
	return &Rope{root: cloneNode(r.root)}
}

// splayMax splays the maximum node of r's tree to the root, if non-empty.
func (r *Rope) splayMax() {
	if r.root == nil {
		return
	}
	n := r.root
	for n.right != nil {
		n = n.right
	}
	r.splay(n)
}

// Merge appends src onto the end of r, consuming src (src must not be used
// afterward).
func (r *Rope) Merge(src *Rope) {
	if src == nil || src.root == nil {
		return
	}
	if r.root == nil {
		r.setRoot(src.root)
		src.root = nil
		return
	}
	r.splayMax()
	r.root.right = src.root
	src.root.parent = r.root
	fix(r.root)
	src.root = nil
}

// Split cuts r at index i (0 <= i <= Len()); r keeps [0, i) and a new Rope
// holding [i, Len()) is returned. Splitting at 0 or at Len() is a
// boundary case handled directly.
func (r *Rope) Split(i int) *Rope {
	if i < 0 || i > r.Len() {
		panic("rope: split index out of range")
	}
	if r.root == nil || i == r.Len() {
		return &Rope{}
	}
	if i == 0 {
		tail := &Rope{root: r.root}
		r.root = nil
		return tail
	}

	n, off := r.findNode(i)
	// n is now root.
	if off == 0 {
		tail := &Rope{root: n}
		left := n.left
		n.left = nil
		fix(n)
		r.setRoot(left)
		return tail
	}

	leftPart := &node{buf: n.buf[:off], size: off}
	rightPart := &node{buf: append([]byte(nil), n.buf[off:]...), size: n.size - off}

	leftPart.left = n.left
	if leftPart.left != nil {
		leftPart.left.parent = leftPart
	}
	fix(leftPart)

	rightPart.right = n.right
	if rightPart.right != nil {
		rightPart.right.parent = rightPart
	}
	fix(rightPart)

	r.setRoot(leftPart)
	return &Rope{root: rightPart}
}

// Insert splices ins into r at index i (0 <= i <= Len()), consuming ins.
func (r *Rope) Insert(i int, ins *Rope) {
	if ins == nil || ins.root == nil {
		return
	}
	if i < 0 || i > r.Len() {
		panic("rope: insert index out of range")
	}
	if i == r.Len() {
		r.Merge(ins)
		return
	}
	if i == 0 {
		old := r.root
		r.root = nil
		r.Merge(ins)
		r.Merge(&Rope{root: old})
		return
	}
	tail := r.Split(i)
	r.Merge(ins)
	r.Merge(tail)
}

// Remove excises the range [i, i+length) from r. If out is non-nil, the
// removed range is captured into it (replacing whatever *out held).
// Removing a zero-length range is a no-op: remove(r, i, 0, _) = r.
func (r *Rope) Remove(i, length int, out **Rope) {
	if length <= 0 {
		if out != nil {
			*out = &Rope{}
		}
		return
	}
	if i < 0 || i > r.Len() || i+length > r.Len() {
		panic("rope: remove range out of bounds")
	}
	tail := r.Split(i) // r = [0,i); tail = [i, len)
	rest := tail.Split(length)
	// tail now holds exactly the removed [i, i+length) chunk.
	r.Merge(rest)
	if out != nil {
		*out = tail
	}
}

// Append wraps s as a rope and merges it onto the end of r.
func (r *Rope) Append(s string) {
	r.Merge(New(s))
}

// Printf formats according to format and args, then inserts the result at
// index i (format first, splice second, per the source's printf/vprintf
// split).
func (r *Rope) Printf(i int, format string, args ...any) {
	r.Insert(i, New(fmt.Sprintf(format, args...)))
}

// Splice materialises the rope's full logical contents into one
// contiguous string.
func (r *Rope) Splice() string {
	buf := make([]byte, 0, r.Len())
	var walk func(*node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		buf = append(buf, n.buf...)
		walk(n.right)
	}
	walk(r.root)
	return string(buf)
}

// Balance rebuilds the tree as a balanced BST by in-order divide-and-
// conquer reassembly. It reuses existing nodes and allocates no new
// buffers.
func (r *Rope) Balance() {
	if r.root == nil {
		return
	}
	var nodes []*node
	var collect func(*node)
	collect = func(n *node) {
		if n == nil {
			return
		}
		collect(n.left)
		nodes = append(nodes, n)
		collect(n.right)
	}
	collect(r.root)

	var build func(lo, hi int) *node
	build = func(lo, hi int) *node {
		if lo >= hi {
			return nil
		}
		mid := (lo + hi) / 2
		n := nodes[mid]
		n.left = build(lo, mid)
		if n.left != nil {
			n.left.parent = n
		}
		n.right = build(mid+1, hi)
		if n.right != nil {
			n.right.parent = n
		}
		fix(n)
		return n
	}
	r.root = build(0, len(nodes))
	if r.root != nil {
		r.root.parent = nil
	}
}
