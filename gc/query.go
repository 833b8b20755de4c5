package gc

// Size reports the object-storage capacity currently committed for
// live data: the committed size of each generation's to-space. It
// does not count from-space, which holds only data awaiting reclaim.
func (c *Collector) Size() uint64 {
	return c.nurseryTo().committedZ() + c.tenuredTo().committedZ()
}

// Committed reports the sum of committed bytes across all four
// arenas (both roles, both generations).
func (c *Collector) Committed() uint64 {
	return c.nurseryTo().committedZ() + c.nurseryFrom().committedZ() +
		c.tenuredTo().committedZ() + c.tenuredFrom().committedZ()
}

// Allocated reports live bytes: the sum of each generation's
// to-space allocation.
func (c *Collector) Allocated() uint64 {
	return c.nurseryTo().allocated() + c.tenuredTo().allocated()
}

// Available reports the bytes left in the nursery to-space's
// reservation (reserved minus allocated). It does not stop at the
// committed size or at IncrGCThreshold.
func (c *Collector) Available() uint64 {
	return c.nurseryTo().available()
}

// Contains reports whether o currently lives in to-space storage
// (i.e. is live, from the collector's perspective right now).
func (c *Collector) Contains(o Object) bool {
	return c.nurseryTo().contains(o) || c.tenuredTo().contains(o)
}

// FromspaceContains reports whether o lives in either generation's
// from-space: storage that is stale as of the most recent cycle and
// will be reclaimed (or is mid-cycle, pending relocation).
func (c *Collector) FromspaceContains(o Object) bool {
	return c.nurseryFrom().contains(o) || c.tenuredFrom().contains(o)
}

// TospaceGenerationOf reports which generation's to-space o belongs
// to, or false.
func (c *Collector) TospaceGenerationOf(o Object) (Generation, bool) {
	switch c.tospaceGenerationOf(o) {
	case grNursery:
		return Nursery, true
	case grTenured:
		return Tenured, true
	default:
		return 0, false
	}
}

// FromspaceGenerationOf reports which generation's from-space o
// belongs to, or false.
func (c *Collector) FromspaceGenerationOf(o Object) (Generation, bool) {
	switch c.fromspaceGenerationOf(o) {
	case grNursery:
		return Nursery, true
	case grTenured:
		return Tenured, true
	default:
		return 0, false
	}
}

// LocationOf returns the byte offset o occupies within whichever
// to-space arena currently owns it.
func (c *Collector) LocationOf(o Object) (offset uint64, ok bool) {
	if off, ok := c.nurseryTo().locationOf(o); ok {
		return off, true
	}
	return c.tenuredTo().locationOf(o)
}

// NurseryToReserved, NurseryToCommitted and the rest of this group
// expose the raw per-arena counters named in spec §6.1, for tests and
// diagnostics that need to see past/across a single cycle.
func (c *Collector) NurseryToReserved() uint64    { return c.nurseryTo().reservedZ() }
func (c *Collector) NurseryToCommitted() uint64   { return c.nurseryTo().committedZ() }
func (c *Collector) NurseryToAllocated() uint64   { return c.nurseryTo().allocated() }
func (c *Collector) NurseryFromReserved() uint64  { return c.nurseryFrom().reservedZ() }
func (c *Collector) NurseryFromCommitted() uint64 { return c.nurseryFrom().committedZ() }
func (c *Collector) NurseryFromAllocated() uint64 { return c.nurseryFrom().allocated() }

func (c *Collector) TenuredToReserved() uint64    { return c.tenuredTo().reservedZ() }
func (c *Collector) TenuredToCommitted() uint64   { return c.tenuredTo().committedZ() }
func (c *Collector) TenuredToAllocated() uint64   { return c.tenuredTo().allocated() }
func (c *Collector) TenuredFromReserved() uint64  { return c.tenuredFrom().reservedZ() }
func (c *Collector) TenuredFromCommitted() uint64 { return c.tenuredFrom().committedZ() }
func (c *Collector) TenuredFromAllocated() uint64 { return c.tenuredFrom().allocated() }

// NurseryBeforeCheckpoint and NurseryAfterCheckpoint report the G1/G0
// split of the nursery to-space: bytes allocated before vs. after the
// most recent checkpoint.
func (c *Collector) NurseryBeforeCheckpoint() uint64 { return c.nurseryTo().beforeCheckpoint() }
func (c *Collector) NurseryAfterCheckpoint() uint64  { return c.nurseryTo().afterCheckpoint() }

// TenuredBeforeCheckpoint and TenuredAfterCheckpoint report the same
// G1/G0 split for the tenured to-space, checkpointed only on full
// cycles.
func (c *Collector) TenuredBeforeCheckpoint() uint64 { return c.tenuredTo().beforeCheckpoint() }
func (c *Collector) TenuredAfterCheckpoint() uint64  { return c.tenuredTo().afterCheckpoint() }

// GCInProgress reports whether a collection cycle is currently
// executing. Only true for the duration of a call to execute; a
// Collector is otherwise always idle between calls from a single
// goroutine.
func (c *Collector) GCInProgress() bool { return c.run.inProgress }

// MlogSize reports the number of entries currently queued in the
// active (to-space) mutation log.
func (c *Collector) MlogSize() int { return c.mlog[toSpace].size() }

// Poisoned reports the error that disabled this collector, if any.
func (c *Collector) Poisoned() error { return c.poisoned }

// Stats returns a snapshot of the cumulative counters maintained
// across every cycle this Collector has run.
func (c *Collector) Stats() Stats { return c.stats }

// History returns the retained per-cycle record, oldest first,
// bounded by Config.StatsHistoryZ.
func (c *Collector) History() []HistoryItem { return c.hist.Items() }

// ObjectStats returns the most recent per-kind live-object snapshot,
// keyed by the ObjectKind returned from RegisterKind. Empty unless
// Config.ObjectStatsFlag was set at construction; refreshed once per
// completed cycle.
func (c *Collector) ObjectStats() map[ObjectKind]ObjectTypeStats {
	out := make(map[ObjectKind]ObjectTypeStats, len(c.objectStats))
	for k, v := range c.objectStats {
		out[k] = v
	}
	return out
}
