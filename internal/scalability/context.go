package scalability

import "github.com/bits-and-blooms/bitset"

// iterationContext is the scratch state of one Update call. The due bitset and
// the cursor survive between calls so amortized passes continue where they stopped.
type iterationContext struct {
	significanceIndices []int
	requiresUpdate      *bitset.BitSet // dense indices due for re-evaluation
	ranked              *bitset.BitSet // dense indices present in significanceIndices
	cursor              int            // round-robin position into requiresUpdate

	maxUpdateCount       int
	worstGlobalBudgetUse float32

	newOnly                        bool
	processAllComponents           bool
	requiresGlobalSignificancePass bool
}

func newIterationContext() iterationContext {
	return iterationContext{
		requiresUpdate: bitset.New(64),
		ranked:         bitset.New(64),
	}
}

// begin resets per-call flags; persistent scheduling state is kept.
func (c *iterationContext) begin(newOnly bool, maxUpdateCount int) {
	c.newOnly = newOnly
	c.maxUpdateCount = maxUpdateCount
	c.processAllComponents = false
	c.worstGlobalBudgetUse = 0
}

// nextDue returns the next due index at or after the cursor, wrapping once.
func (c *iterationContext) nextDue(n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	if c.cursor >= n {
		c.cursor = 0
	}

	i, ok := c.requiresUpdate.NextSet(uint(c.cursor))
	if !ok || int(i) >= n {
		i, ok = c.requiresUpdate.NextSet(0)
		if !ok || int(i) >= n {
			return 0, false
		}
	}
	c.cursor = int(i) + 1
	return int(i), true
}

// pending returns number of indices still due in the current cycle.
func (c *iterationContext) pending() int {
	return int(c.requiresUpdate.Count())
}

// moveDue carries the due bit of from into to (swap-with-last removal).
func (c *iterationContext) moveDue(from, to int) {
	c.requiresUpdate.SetTo(uint(to), c.requiresUpdate.Test(uint(from)))
	c.requiresUpdate.Clear(uint(from))
}
