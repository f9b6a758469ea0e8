package list

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushBackOrder(t *testing.T) {
	var l List[int]
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)

	require.Equal(t, 3, l.Len())

	var got []int
	l.Each(func(e *Element[int]) { got = append(got, e.Value) })
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestPushFrontReversesOrder(t *testing.T) {
	var l List[int]
	l.PushFront(1)
	l.PushFront(2)
	l.PushFront(3)

	var got []int
	l.Each(func(e *Element[int]) { got = append(got, e.Value) })
	require.Equal(t, []int{3, 2, 1}, got)
}

func TestRemoveIsIdempotent(t *testing.T) {
	var l List[string]
	e := l.PushBack("a")
	l.PushBack("b")

	l.Remove(e)
	require.Equal(t, 1, l.Len())

	// Removing again must be a no-op, not a panic.
	l.Remove(e)
	require.Equal(t, 1, l.Len())

	require.False(t, e.Contains(&l))
}

func TestEachAllowsSelfRemoval(t *testing.T) {
	var l List[int]
	for i := 0; i < 5; i++ {
		l.PushBack(i)
	}

	var popped []int
	l.Each(func(e *Element[int]) {
		popped = append(popped, e.Value)
		l.Remove(e)
	})

	require.Equal(t, []int{0, 1, 2, 3, 4}, popped)
	require.True(t, l.Empty())
}

func TestInsertBeforeAfter(t *testing.T) {
	var l List[int]
	b := l.PushBack(1)
	l.InsertBefore(0, b)
	l.InsertAfter(2, b)

	var got []int
	l.Each(func(e *Element[int]) { got = append(got, e.Value) })
	require.Equal(t, []int{0, 1, 2}, got)
}

func TestFrontBackEmpty(t *testing.T) {
	var l List[int]
	require.Nil(t, l.Front())
	require.Nil(t, l.Back())
	require.True(t, l.Empty())
}
