// Package list implements an intrusive doubly-linked list.
//
// Go has no pointer arithmetic, so the C-style embedded link with a
// container_of projection is replaced by a node that carries its payload:
// every PushFront, PushBack, InsertBefore and InsertAfter allocates one
// Element holding the value, and the owning value stays reachable through
// Element.Value. The returned Element is the handle used for Remove.
// Removal does not allocate.
package list

// Element is one node of a List. The zero value is not a valid node;
// elements are created by List.PushFront, PushBack, InsertBefore and
// InsertAfter.
type Element[T any] struct {
	next, prev *Element[T]
	list       *List[T]

	// Value is the payload the caller embedded this Element for.
	Value T
}

// Next returns the next list element, or nil if e is the last element.
func (e *Element[T]) Next() *Element[T] {
	if n := e.next; e.list != nil && n != &e.list.root {
		return n
	}
	return nil
}

// Prev returns the previous list element, or nil if e is the first element.
func (e *Element[T]) Prev() *Element[T] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List is a doubly linked list with a sentinel root node. The zero value is
// an empty, ready-to-use list.
type List[T any] struct {
	root Element[T]
	len  int
}

// Init (re)initialises or clears the list.
func (l *List[T]) Init() *List[T] {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.Init()
	}
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int { return l.len }

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool { return l.len == 0 }

// Front returns the first element, or nil if the list is empty.
func (l *List[T]) Front() *Element[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last element, or nil if the list is empty.
func (l *List[T]) Back() *Element[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *List[T]) insert(e, at *Element[T]) *Element[T] {
	n := at.next
	at.next = e
	e.prev = at
	e.next = n
	n.prev = e
	e.list = l
	l.len++
	return e
}

// PushFront inserts a new element with value v at the front of the list.
func (l *List[T]) PushFront(v T) *Element[T] {
	l.lazyInit()
	return l.insert(&Element[T]{Value: v}, &l.root)
}

// PushBack inserts a new element with value v at the back of the list.
func (l *List[T]) PushBack(v T) *Element[T] {
	l.lazyInit()
	return l.insert(&Element[T]{Value: v}, l.root.prev)
}

// InsertBefore inserts a new element with value v immediately before mark,
// which must be an element of l, and returns it.
func (l *List[T]) InsertBefore(v T, mark *Element[T]) *Element[T] {
	return l.insert(&Element[T]{Value: v}, mark.prev)
}

// InsertAfter inserts a new element with value v immediately after mark,
// which must be an element of l, and returns it.
func (l *List[T]) InsertAfter(v T, mark *Element[T]) *Element[T] {
	return l.insert(&Element[T]{Value: v}, mark)
}

// Remove detaches e from the list. It is a no-op if e does not belong to l
// (idempotent, matching the reactor's remove-on-non-attached contract).
func (l *List[T]) Remove(e *Element[T]) {
	if e == nil || e.list != l {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

// Contains reports whether e is currently linked into l.
func (e *Element[T]) Contains(l *List[T]) bool {
	return e != nil && e.list == l
}

// Each calls fn for every element from front to back. fn may remove the
// current element (its own node) but must not remove other nodes.
func (l *List[T]) Each(fn func(*Element[T])) {
	for e, n := l.Front(), (*Element[T])(nil); e != nil; e = n {
		n = e.Next()
		fn(e)
	}
}

// EachReverse calls fn for every element from back to front, under the
// same removal contract as Each.
func (l *List[T]) EachReverse(fn func(*Element[T])) {
	for e, p := l.Back(), (*Element[T])(nil); e != nil; e = p {
		p = e.Prev()
		fn(e)
	}
}
