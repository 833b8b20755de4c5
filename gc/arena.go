package gc

import "fmt"

// alignment is the unit every allocation is rounded up to, mirroring
// the machine-word alignment the teacher's fixalloc/mheap enforce on
// Go's own heap.
const alignment = 8

func alignUp(z uint64) uint64 {
	return (z + alignment - 1) &^ (alignment - 1)
}

// arena is a bump-pointer accounted region: spec §4.1's Arena. It
// tracks reserved/committed/free/checkpoint byte counters; it does
// not itself hold object storage (see SPEC_FULL.md's representation
// note — objects are ordinary Go values, and an arena only owns their
// byte accounting and membership).
type Arena struct {
	name string
	gen  Generation

	reserved   uint64
	committed  uint64
	free       uint64
	checkpoint uint64

	// members, in allocation order, for per-type statistics scans and
	// for precise location_of/contains queries keyed off identity
	// rather than raw address arithmetic.
	members []Object
}

func newArena(name string, gen Generation, reserved uint64) *Arena {
	return &Arena{name: name, gen: gen, reserved: reserved}
}

// reserve grows the address-space ceiling. Idempotent upward; never
// shrinks below the current reservation.
func (a *Arena) reserve(n uint64) {
	if n > a.reserved {
		a.reserved = n
	}
}

// commit ensures the committed prefix is at least n, growing in
// powers of two up to reserved. Returns ErrHeapExhausted if n exceeds
// the reservation.
func (a *Arena) commit(n uint64) error {
	if n > a.reserved {
		return &poisonedError{gen: a.gen, op: fmt.Sprintf("commit(%d) on %s (reserved %d)", n, a.name, a.reserved)}
	}
	if n <= a.committed {
		return nil
	}
	next := a.committed
	if next == 0 {
		next = alignment
	}
	for next < n {
		next *= 2
	}
	if next > a.reserved {
		next = a.reserved
	}
	a.committed = next
	return nil
}

// alloc bumps free by z (rounded up to alignment), growing commitment
// as needed, and returns the byte offset at which the z bytes begin.
func (a *Arena) alloc(z uint64) (uint64, error) {
	z = alignUp(z)
	want := a.free + z
	if want > a.committed {
		if err := a.commit(want); err != nil {
			return 0, err
		}
		if want > a.committed {
			return 0, &poisonedError{gen: a.gen, op: fmt.Sprintf("alloc(%d) on %s", z, a.name)}
		}
	}
	off := a.free
	a.free = want
	return off, nil
}

// doCheckpoint advances the G1/G0 boundary to the current bump pointer.
func (a *Arena) doCheckpoint() {
	a.checkpoint = a.free
}

// reset clears the arena entirely (free = checkpoint = 0, membership
// dropped) and grows commitment to at least newCommitted without
// shrinking below what is already committed.
func (a *Arena) reset(newCommitted uint64) {
	a.free = 0
	a.checkpoint = 0
	a.members = a.members[:0]
	if newCommitted > a.committed {
		_ = a.commit(newCommitted)
	}
}

func (a *Arena) allocated() uint64        { return a.free }
func (a *Arena) committedZ() uint64       { return a.committed }
func (a *Arena) reservedZ() uint64        { return a.reserved }
func (a *Arena) beforeCheckpoint() uint64 { return a.checkpoint }
func (a *Arena) afterCheckpoint() uint64  { return a.free - a.checkpoint }
func (a *Arena) available() uint64        { return a.reserved - a.free }

// contains reports whether o is currently a member of this arena.
func (a *Arena) contains(o Object) bool {
	if o == nil {
		return false
	}
	return o.GcHeader().arena == a
}

// locationOf returns the byte offset an object was allocated at,
// and whether it belongs to this arena.
func (a *Arena) locationOf(o Object) (uint64, bool) {
	if !a.contains(o) {
		return 0, false
	}
	return o.GcHeader().offset, true
}

// isBeforeCheckpoint reports whether o (a member of this arena) was
// allocated before the current checkpoint, i.e. belongs to G1.
func (a *Arena) isBeforeCheckpoint(o Object) bool {
	off, ok := a.locationOf(o)
	return ok && off < a.checkpoint
}

// adopt records o as a member of this arena at the given offset,
// stamping its header accordingly.
func (a *Arena) adopt(o Object, offset uint64) {
	h := o.GcHeader()
	h.arena = a
	h.offset = offset
	h.fwd = nil
	a.members = append(a.members, o)
}
