package loop

import (
	"fmt"
	"strconv"
	"strings"
)

// CompactionReport returns the loop facts to retain as durable context when
// the host summarizes or discards conversation history. It is read-only and
// returns an empty string when no loop is active.
func (c *Controller) CompactionReport() string {
	st := c.store.Load()
	if st == nil {
		return ""
	}

	max := "unbounded"
	if st.Bounded() {
		max = strconv.Itoa(st.MaxIterations)
	}

	marker := "none"
	if p, ok := st.Promise(); ok {
		marker = fmt.Sprintf("%q", p)
	}

	var b strings.Builder
	b.WriteString("An iteration loop is active in this workspace.\n")
	fmt.Fprintf(&b, "Iteration: %d\n", st.Iteration)
	fmt.Fprintf(&b, "Max iterations: %s\n", max)
	fmt.Fprintf(&b, "Completion promise: %s\n", marker)
	return b.String()
}
