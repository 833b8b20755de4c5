package gc

// Slotted is implemented by any Object whose pointer-typed child
// slots need to be visited by the collector: write-barrier mutation
// targets and forward_children both address a child by its position
// in Slots(), which must be stable and declaration-ordered for a
// given Go type. Types with no child pointers (e.g. a flat string)
// need not implement it.
type Slotted interface {
	Object
	Slots() []*Object
}

// mutationEntry is spec §3.1's mutation-log entry: a (parent, slot)
// pair. The child at any point is *parent.Slots()[slot], read fresh.
type mutationEntry struct {
	parent Object
	slot   int
}

func (e mutationEntry) slotPtr(parent Object) *Object {
	return parent.(Slotted).Slots()[e.slot]
}

func (e mutationEntry) child() Object {
	return *e.slotPtr(e.parent)
}

func (e mutationEntry) isParentForwarded() bool {
	return IsForwarded(e.parent)
}

func (e mutationEntry) isChildForwarded() bool {
	return IsForwarded(e.child())
}

// isDead reports whether this entry no longer needs to be tracked:
// the child slot currently reads nil.
func (e mutationEntry) isDead() bool {
	return e.child() == nil
}

// parentDestination returns where parent now lives: its forwarding
// destination if forwarded, otherwise itself.
func (e mutationEntry) parentDestination() Object {
	if IsForwarded(e.parent) {
		return Destination(e.parent)
	}
	return e.parent
}

// updateParentMoved returns the equivalent entry addressing the same
// logical slot on parentTo, the new location of a forwarded parent.
func (e mutationEntry) updateParentMoved(parentTo Object) mutationEntry {
	return mutationEntry{parent: parentTo, slot: e.slot}
}

// mutationLog is an append-only sequence of mutationEntry, spec §4.3.
type mutationLog struct {
	entries []mutationEntry
}

func (l *mutationLog) push(e mutationEntry) { l.entries = append(l.entries, e) }
func (l *mutationLog) size() int            { return len(l.entries) }
func (l *mutationLog) clear()               { l.entries = l.entries[:0] }

// drain hands the current entries to fn and empties the log; fn may
// itself append new entries (e.g. to a different log) while
// iterating the snapshot taken here.
func (l *mutationLog) drain(fn func(mutationEntry)) {
	snapshot := l.entries
	l.entries = nil
	for _, e := range snapshot {
		fn(e)
	}
}
