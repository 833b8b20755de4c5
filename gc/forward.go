package gc

// forwardMutationLog drains the mutation log recorded before this
// cycle began, relocating or re-logging each entry until a fixpoint
// is reached. Grounded on GC.cpp's incremental_gc_forward_mlog and
// full_gc_forward_mlog: both loop a phase function that classifies
// each entry by whether its parent has already moved, rescuing any
// child that the root walk missed and deferring entries whose parent
// is still unreached. Entries whose parent turns out unreachable by
// the time the loop goes dry are true garbage and are dropped.
func (c *Collector) forwardMutationLog(upto Generation) error {
	phase := c.forwardIncrementalPhase
	if upto == Tenured {
		phase = c.forwardFullPhase
	}

	from := c.mlog[fromSpace]
	to := c.mlog[toSpace]
	defer_ := c.deferLog

	for {
		fromSize := from.size()
		nRescue, err := phase(from, to, defer_)
		if err != nil {
			return err
		}
		c.logMlogPass(fromSize, defer_.size(), nRescue)
		// from has been fully drained by phase; every surviving entry
		// is now either in `to` or in `defer_`.
		if defer_.size() == 0 {
			break
		}
		if nRescue == 0 {
			// Nothing moved this pass: every remaining deferred parent
			// is genuinely unreachable. Drop them and stop.
			defer_.clear()
			break
		}
		from, defer_ = defer_, from
	}

	from.clear()
	defer_.clear()
	c.mlog[fromSpace] = from
	c.deferLog = defer_
	return nil
}

// forwardIncrementalPhase handles one pass of an incremental (nursery-only)
// cycle's mutation log. Tenured objects never move during an
// incremental cycle, so an entry whose parent already lives in
// tenured-to is live and its child (if still in a from-space) needs
// rescuing directly, without waiting for a root to reach it.
func (c *Collector) forwardIncrementalPhase(from, to, defer_ *mutationLog) (int, error) {
	nRescue := 0
	var relocErr error

	from.drain(func(e mutationEntry) {
		if relocErr != nil {
			return
		}
		parent := e.parent

		if c.tospaceGenerationOf(parent) == grTenured {
			if e.isDead() {
				return
			}
			slot := e.slotPtr(parent)
			rescued, err := c.relocate(slot, Nursery)
			if err != nil {
				relocErr = err
				return
			}
			if rescued {
				nRescue++
			}
			if *slot != nil && c.tospaceGenerationOf(*slot) == grNursery {
				to.push(mutationEntry{parent: parent, slot: e.slot})
			}
			return
		}

		if e.isParentForwarded() {
			toEntry := e.updateParentMoved(e.parentDestination())
			if !toEntry.isDead() && c.tospaceGenerationOf(toEntry.child()) == grNursery {
				to.push(toEntry)
			}
			return
		}

		// Parent not yet reached by this cycle's root walk. It may
		// still be reached by a later root, or it may be garbage;
		// defer the decision to the next pass.
		if !e.isDead() {
			defer_.push(e)
		}
	})

	return nRescue, relocErr
}

// forwardFullPhase handles one pass of a full cycle's mutation log.
// Every live object has already been (or will be) reached directly by
// the root walk's recursive ForwardChildren, so this phase never
// rescues anything on its own: it only reclassifies entries whose
// parent has moved and defers the rest. Because nothing is ever
// rescued here, the driving loop in forwardMutationLog always
// terminates after one pass for a full cycle.
func (c *Collector) forwardFullPhase(from, to, defer_ *mutationLog) (int, error) {
	from.drain(func(e mutationEntry) {
		if !e.isParentForwarded() {
			if !e.isDead() {
				defer_.push(e)
			}
			return
		}

		toEntry := e.updateParentMoved(e.parentDestination())
		if c.tospaceGenerationOf(toEntry.parent) != grTenured {
			// Parent moved somewhere other than tenured-to during a
			// full cycle: impossible under the promotion rule, but
			// don't propagate a stale entry if it somehow happens.
			return
		}
		if toEntry.isDead() {
			return
		}
		if c.tospaceGenerationOf(toEntry.child()) == grNursery {
			to.push(toEntry)
		}
	})

	return 0, nil
}
