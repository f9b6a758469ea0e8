package pathset

import (
	"strings"

	"github.com/li-xilin/gox/container/list"
)

// Mark is one canonical-path entry of a PathSet, carrying the bits that
// apply at (and, for non-leaf marks, below) its path.
type Mark struct {
	Path      string
	Depth     int
	HashChain uint64
	Mask      uint32
	IsLeaf    bool

	elem *list.Element[*Mark]
}

// isAncestorOrEqual reports whether a is "/", equals b, or is the path of a
// directory strictly containing b (a proper '/'-delimited prefix).
func isAncestorOrEqual(a, b string) bool {
	if a == b {
		return true
	}
	if a == "/" {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// isStrictDescendant reports whether child sits strictly under ancestor in
// the path hierarchy.
func isStrictDescendant(child, ancestor string) bool {
	return child != ancestor && isAncestorOrEqual(ancestor, child)
}
