package pathset

import (
	"fmt"
	"strings"
)

// Dump renders every stored mark as "0x%02x path, " in insertion order,
// matching the source's debug dump format exactly.
func (p *PathSet) Dump() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var b strings.Builder
	for _, m := range p.allMarks() {
		fmt.Fprintf(&b, "0x%02x %s, ", m.Mask, m.Path)
	}
	return b.String()
}
