package pathset

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskOfUnmarkedPathIsZero(t *testing.T) {
	p := New()
	m, err := p.Mask("/a/b/c")
	require.NoError(t, err)
	require.Zero(t, m)
}

func TestInvalidPathRejected(t *testing.T) {
	p := New()
	_, err := p.Insert(0x1, "relative/path", false)
	require.Error(t, err)
	var ipe *InvalidPathError
	require.ErrorAs(t, err, &ipe)
}

// TestPropagationToExistingDescendants matches the descendant-dominance
// scenario: marking a shallower path propagates its new bits down into
// marks that already exist below it.
func TestPropagationToExistingDescendants(t *testing.T) {
	p := New()
	_, err := p.Insert(0x01, "/a/b/c", false)
	require.NoError(t, err)
	_, err = p.Insert(0x02, "/a/b/d", false)
	require.NoError(t, err)
	_, err = p.Insert(0x04, "/a/b", false)
	require.NoError(t, err)

	mc, _ := p.Mask("/a/b/c")
	md, _ := p.Mask("/a/b/d")
	mb, _ := p.Mask("/a/b")
	require.Equal(t, uint32(0x04), mc&0x04)
	require.Equal(t, uint32(0x04), md&0x04)
	require.Equal(t, uint32(0x04), mb)
}

// TestRedundantDescendantIsRemoved matches the redundancy-removal scenario:
// when a descendant's mask becomes identical to its (possibly new)
// ancestor's, the descendant mark is dropped.
func TestRedundantDescendantIsRemoved(t *testing.T) {
	p := New()
	_, err := p.Insert(0x01, "/a/b/c", false)
	require.NoError(t, err)
	_, err = p.Insert(0x03, "/a/b", false)
	require.NoError(t, err)

	top := p.FindTop()
	require.Len(t, top, 1)
	require.Equal(t, "/a/b", top[0].Path)

	mc, _ := p.Mask("/a/b/c")
	require.Equal(t, uint32(0x03), mc)
}

func TestFindTopEmitsMinimalCover(t *testing.T) {
	p := New()
	for _, path := range []string{"/a", "/a/b", "/a/c", "/b/a", "/b/b"} {
		_, err := p.Insert(0x1, path, false)
		require.NoError(t, err)
	}

	top := p.FindTop()
	var paths []string
	for _, e := range top {
		paths = append(paths, e.Path)
	}
	sort.Strings(paths)
	require.Equal(t, []string{"/a", "/b/a", "/b/b"}, paths)
}

func TestInsertRemoveLeafRoundTripsUnitaryMask(t *testing.T) {
	p := New()
	before := p.UnitaryMask()

	_, err := p.Insert(0x08, "/x/y", true)
	require.NoError(t, err)
	require.NotEqual(t, before, p.UnitaryMask())

	_, err = p.Remove(0x08, "/x/y", true)
	require.NoError(t, err)
	require.Equal(t, before, p.UnitaryMask())
}

func TestMaskDoesNotPropagateBelowALeaf(t *testing.T) {
	p := New()
	_, err := p.Insert(0x08, "/x/y", true)
	require.NoError(t, err)

	mLeaf, err := p.Mask("/x/y")
	require.NoError(t, err)
	require.Equal(t, uint32(0x08), mLeaf)

	mBelow, err := p.Mask("/x/y/z")
	require.NoError(t, err)
	require.Equal(t, uint32(0), mBelow, "a leaf mark must not dominate its own descendants")
}

func TestMaskPrefersShallowerNonLeafOverDeeperLeafAncestor(t *testing.T) {
	p := New()
	_, err := p.Insert(0x01, "/x", false)
	require.NoError(t, err)
	_, err = p.Insert(0x08, "/x/y", true)
	require.NoError(t, err)

	mChild, err := p.Mask("/x/y/z")
	require.NoError(t, err)
	require.Equal(t, uint32(0x01), mChild, "a descendant of a leaf still inherits from the nearest non-leaf ancestor")
}

func TestRemoveCreatesOverrideUnderAncestor(t *testing.T) {
	p := New()
	_, err := p.Insert(0x0F, "/srv", false)
	require.NoError(t, err)

	mBefore, _ := p.Mask("/srv/app")
	require.Equal(t, uint32(0x0F), mBefore)

	_, err = p.Remove(0x01, "/srv/app", false)
	require.NoError(t, err)

	mAfter, _ := p.Mask("/srv/app")
	require.Equal(t, uint32(0x0E), mAfter)

	mSrv, _ := p.Mask("/srv")
	require.Equal(t, uint32(0x0F), mSrv)
}

func TestClearResetsState(t *testing.T) {
	p := New()
	_, _ = p.Insert(0x1, "/a", false)
	p.Clear()
	require.Zero(t, p.UnitaryMask())
	require.Empty(t, p.FindTop())
	m, _ := p.Mask("/a")
	require.Zero(t, m)
}

func TestDumpFormat(t *testing.T) {
	p := New()
	_, _ = p.Insert(0x2a, "/svc", false)
	require.Equal(t, "0x2a /svc, ", p.Dump())
}

func TestPathDepthLimitEnforced(t *testing.T) {
	p := New(WithMaxDepth(2))
	_, err := p.Insert(0x1, "/a/b/c", false)
	require.Error(t, err)
}
