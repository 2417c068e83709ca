package scalability

import "fmt"

// Handle identifies a registered instance across ticks.
// Dense indices move on swap-with-last removal; a Handle does not, and a Handle
// whose instance was unregistered never resolves again (generation check).
// The zero Handle is invalid.
type Handle struct {
	slot uint32
	gen  uint32
}

// Valid returns false for the zero Handle.
func (h Handle) Valid() bool {
	return h.gen != 0
}

// String returns slot:generation, for logs.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.slot, h.gen)
}

// pendingIndex marks a handle registered during Update, not inserted yet.
const pendingIndex = -1

type handleSlot struct {
	dense int
	gen   uint32
	live  bool
}

// handleTable maps handles to dense indices of the manager's parallel arrays.
type handleTable struct {
	slots []handleSlot
	free  []uint32
}

func (t *handleTable) alloc(dense int) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, handleSlot{})
	}

	s := &t.slots[idx]
	s.gen++
	if s.gen == 0 { // wrapped, skip the invalid generation
		s.gen = 1
	}
	s.dense = dense
	s.live = true
	return Handle{slot: idx, gen: s.gen}
}

// lookup returns the dense index of h; pendingIndex for deferred registrations.
func (t *handleTable) lookup(h Handle) (int, bool) {
	if !h.Valid() || int(h.slot) >= len(t.slots) {
		return 0, false
	}
	s := t.slots[h.slot]
	if !s.live || s.gen != h.gen {
		return 0, false
	}
	return s.dense, true
}

func (t *handleTable) set(h Handle, dense int) {
	t.slots[h.slot].dense = dense
}

func (t *handleTable) release(h Handle) {
	s := &t.slots[h.slot]
	s.live = false
	s.dense = pendingIndex
	t.free = append(t.free, h.slot)
}

// reset releases every live slot. Generations are kept so handles issued
// before the reset stay stale.
func (t *handleTable) reset() {
	t.free = t.free[:0]
	for i := range t.slots {
		t.slots[i].live = false
		t.slots[i].dense = pendingIndex
		t.free = append(t.free, uint32(i))
	}
}
