package gc

import "time"

// cleanupPhase implements spec §4.4 step 6: checkpoint the new
// to-spaces, fold this cycle's counts into Stats, and append a
// HistoryItem. Grounded on
// original_source/xo-alloc/include/xo/alloc/GcStatistics.hpp's
// derived quantities (garbage-by-generation, effort, persist).
func (c *Collector) cleanupPhase(upto Generation, newAllocBefore, promotedAtStart uint64, dt time.Duration) HistoryItem {
	nFrom := c.nurseryFrom()
	tFrom := c.tenuredFrom()
	nTo := c.nurseryTo()
	tTo := c.tenuredTo()

	n0BeforeGC := nFrom.afterCheckpoint()
	n1BeforeGC := nFrom.beforeCheckpoint()
	tBeforeGC := tFrom.allocated()
	t0BeforeGC := tFrom.afterCheckpoint()

	nAfterGC := nTo.allocated()
	tAfterGC := tTo.allocated()

	promoteZ := c.stats.totalPromoted - promotedAtStart
	surviveZ := nAfterGC

	var effortZ, persistZ, garbageNZ uint64
	if upto == Tenured {
		effortZ = nAfterGC + tAfterGC
		persistZ = tAfterGC - promoteZ
		garbageNZ = tBeforeGC - tAfterGC + promoteZ
	} else {
		effortZ = nAfterGC + promoteZ
	}
	garbage0Z := n0BeforeGC - nAfterGC
	garbage1Z := n1BeforeGC - promoteZ

	nTo.doCheckpoint()
	if upto == Tenured {
		tTo.doCheckpoint()
	}

	c.stats.includeGC(Nursery, newAllocBefore, nFrom.allocated(), nAfterGC, promoteZ)
	if upto == Tenured {
		c.stats.includeGC(Tenured, t0BeforeGC, tBeforeGC, tAfterGC, 0)
	} else {
		c.stats.updateSnapshot(Tenured, tAfterGC)
	}

	sumEffort := effortZ
	sumGarbage := garbage0Z + garbage1Z + garbageNZ
	if last, ok := c.hist.last(); ok {
		sumEffort += last.CumulativeEffort
		sumGarbage += last.CumulativeGarbage
	}

	item := HistoryItem{
		Seq:               c.seq,
		Upto:              upto,
		NewAllocZ:         newAllocBefore,
		SurviveZ:          surviveZ,
		PromoteZ:          promoteZ,
		PersistZ:          persistZ,
		EffortZ:           effortZ,
		Garbage0Z:         garbage0Z,
		Garbage1Z:         garbage1Z,
		GarbageNZ:         garbageNZ,
		DT:                dt.Nanoseconds(),
		CumulativeEffort:  sumEffort,
		CumulativeGarbage: sumGarbage,
	}
	c.hist.push(item)
	c.captureObjectStatistics()

	return item
}
