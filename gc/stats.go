package gc

import "container/ring"

// perGenerationStats accumulates across every cycle that touches a
// given generation. Grounded on
// original_source/xo-alloc/include/xo/alloc/GcStatistics.hpp's
// PerGenerationStatistics.
type perGenerationStats struct {
	usedZ     uint64
	nGC       uint64
	newAllocZ uint64
	scannedZ  uint64
	surviveZ  uint64
	promoteZ  uint64
}

func (p *perGenerationStats) includeGC(allocZ, beforeZ, afterZ, promoteZ uint64) {
	p.nGC++
	p.newAllocZ += allocZ
	p.scannedZ += beforeZ
	p.surviveZ += afterZ
	p.promoteZ += promoteZ
	p.usedZ = afterZ
}

func (p *perGenerationStats) updateSnapshot(afterZ uint64) {
	p.usedZ = afterZ
}

// Stats is the cumulative counter set of spec §9/§8.1 (P5, P6):
// n_mutation, n_logged_mutation, n_xgen_mutation, n_xckp_mutation,
// total_promoted, and per-generation cycle counts.
type Stats struct {
	gen [numGenerations]perGenerationStats

	totalAllocated uint64
	totalPromoted  uint64

	nMutation       uint64
	nLoggedMutation uint64
	nXGenMutation   uint64
	nXCkpMutation   uint64
}

// NGC returns the number of completed cycles that reached at least
// generation g (Nursery counts every cycle; Tenured counts only full
// cycles).
func (s *Stats) NGC(g Generation) uint64 { return s.gen[g].nGC }

// TotalPromoted is monotonic non-decreasing (spec P6).
func (s *Stats) TotalPromoted() uint64 { return s.totalPromoted }

// TotalAllocated is the cumulative number of bytes ever handed out by
// Alloc.
func (s *Stats) TotalAllocated() uint64 { return s.totalAllocated }

func (s *Stats) NMutation() uint64       { return s.nMutation }
func (s *Stats) NLoggedMutation() uint64 { return s.nLoggedMutation }
func (s *Stats) NXGenMutation() uint64   { return s.nXGenMutation }
func (s *Stats) NXCkpMutation() uint64   { return s.nXCkpMutation }

func (s *Stats) includeGC(upto Generation, allocZ, beforeZ, afterZ, promoteZ uint64) {
	s.gen[upto].includeGC(allocZ, beforeZ, afterZ, promoteZ)
}

func (s *Stats) updateSnapshot(g Generation, afterZ uint64) {
	s.gen[g].updateSnapshot(afterZ)
}

// ObjectTypeStats is the per-kind tally `Config.ObjectStatsFlag`
// enables: how many live objects of a kind exist in to-space, and how
// many bytes they occupy, as of the most recent capture. Grounded on
// `GC.cpp`'s `ObjectStatistics`/`capture_object_statistics`.
type ObjectTypeStats struct {
	Count uint64
	Bytes uint64
}

// HistoryItem is one ring entry of the per-cycle record named in
// spec §9.
type HistoryItem struct {
	Seq               uint64
	Upto              Generation
	NewAllocZ         uint64
	SurviveZ          uint64
	PromoteZ          uint64
	PersistZ          uint64
	EffortZ           uint64
	Garbage0Z         uint64
	Garbage1Z         uint64
	GarbageNZ         uint64
	DT                int64 // nanoseconds
	CumulativeEffort  uint64
	CumulativeGarbage uint64
}

// Efficiency is garbage / (garbage + effort), computed on read per
// spec §9 ("Derived quantities ... computed on read, not on write").
func (h HistoryItem) Efficiency() float64 {
	garbage := h.Garbage0Z + h.Garbage1Z + h.GarbageNZ
	denom := garbage + h.EffortZ
	if denom == 0 {
		return 0
	}
	return float64(garbage) / float64(denom)
}

// CollectionRate is garbage / dt (bytes per nanosecond), computed on
// read.
func (h HistoryItem) CollectionRate() float64 {
	if h.DT == 0 {
		return 0
	}
	garbage := h.Garbage0Z + h.Garbage1Z + h.GarbageNZ
	return float64(garbage) / float64(h.DT)
}

// history is a fixed-capacity ring of HistoryItem, built on the
// standard library's container/ring — the teacher's own annotated
// copy of that package shows this is the idiomatic way to bound a
// circular buffer in this codebase, so this module imports the real
// package rather than hand-rolling one.
type history struct {
	r   *ring.Ring
	cap int
	len int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = 1
	}
	return &history{r: ring.New(capacity), cap: capacity}
}

func (h *history) push(item HistoryItem) {
	h.r.Value = item
	h.r = h.r.Next()
	if h.len < h.cap {
		h.len++
	}
}

// Items returns the retained history, oldest first.
func (h *history) Items() []HistoryItem {
	out := make([]HistoryItem, 0, h.len)
	cur := h.r
	// h.r always points just past the most recent entry; walk
	// forward cap-len steps to find the oldest retained slot.
	start := cur
	for i := 0; i < h.cap-h.len; i++ {
		start = start.Next()
	}
	cur = start
	for i := 0; i < h.len; i++ {
		if v, ok := cur.Value.(HistoryItem); ok {
			out = append(out, v)
		}
		cur = cur.Next()
	}
	return out
}

func (h *history) Len() int { return h.len }

func (h *history) last() (HistoryItem, bool) {
	items := h.Items()
	if len(items) == 0 {
		return HistoryItem{}, false
	}
	return items[len(items)-1], true
}
