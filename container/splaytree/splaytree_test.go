package splaytree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func cmpInt(a, b int) int { return a - b }

func inOrderSlice(t *Tree[int]) []int {
	var out []int
	t.InOrder(func(n *Node[int]) { out = append(out, n.Value) })
	return out
}

func TestFindOrInsertMaintainsOrder(t *testing.T) {
	tr := New[int](cmpInt)
	vals := []int{5, 3, 8, 1, 9, 2, 7, 4, 6}
	for _, v := range vals {
		_, inserted := tr.FindOrInsert(v)
		require.True(t, inserted)
	}
	require.Equal(t, 9, tr.Size())

	want := append([]int(nil), vals...)
	sort.Ints(want)
	require.Equal(t, want, inOrderSlice(tr))
}

func TestFindOrInsertDuplicateNotInserted(t *testing.T) {
	tr := New[int](cmpInt)
	tr.FindOrInsert(1)
	_, inserted := tr.FindOrInsert(1)
	require.False(t, inserted)
	require.Equal(t, 1, tr.Size())
}

func TestFindSplaysToRoot(t *testing.T) {
	tr := New[int](cmpInt)
	for _, v := range []int{5, 3, 8, 1, 9} {
		tr.FindOrInsert(v)
	}
	n := tr.Find(1)
	require.NotNil(t, n)
	require.Equal(t, 1, n.Value)
	require.Nil(t, n.parent)
}

func TestRemoveMaintainsOrder(t *testing.T) {
	tr := New[int](cmpInt)
	vals := []int{5, 3, 8, 1, 9, 2, 7, 4, 6}
	for _, v := range vals {
		tr.FindOrInsert(v)
	}
	n := tr.Find(5)
	tr.Remove(n)
	require.Equal(t, 8, tr.Size())
	require.Nil(t, tr.Find(5))

	want := []int{1, 2, 3, 4, 6, 7, 8, 9}
	require.Equal(t, want, inOrderSlice(tr))
}

func TestFirstLastNextPrev(t *testing.T) {
	tr := New[int](cmpInt)
	for _, v := range []int{5, 3, 8, 1, 9} {
		tr.FindOrInsert(v)
	}
	first := tr.First()
	require.Equal(t, 1, first.Value)
	last := tr.Last()
	require.Equal(t, 9, last.Value)

	n := tr.Find(3)
	nx := Next(n)
	require.Equal(t, 5, nx.Value)
	pv := Prev(n)
	require.Equal(t, 1, pv.Value)
}

func TestReplaceOrInsert(t *testing.T) {
	tr := New[int](cmpInt)
	tr.ReplaceOrInsert(1)
	tr.ReplaceOrInsert(1)
	require.Equal(t, 1, tr.Size())
}

func TestRandomizedInvariant(t *testing.T) {
	tr := New[int](cmpInt)
	present := map[int]bool{}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		v := r.Intn(200)
		if r.Intn(3) == 0 && present[v] {
			n := tr.Find(v)
			require.NotNil(t, n)
			tr.Remove(n)
			delete(present, v)
		} else {
			tr.FindOrInsert(v)
			present[v] = true
		}
	}

	var want []int
	for v := range present {
		want = append(want, v)
	}
	sort.Ints(want)
	require.Equal(t, want, inOrderSlice(tr))
	require.Equal(t, len(present), tr.Size())
}
