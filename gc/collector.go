package gc

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Collector is a generational, semi-space copying heap: one nursery
// generation and one tenured generation, each backed by a pair of
// arenas that swap the from-space/to-space roles on every collection
// of that generation. See spec §4.4 for the cycle this type drives.
//
// A Collector is not safe for concurrent use; callers serialize
// access the same way the teacher's runtime serializes a single P's
// allocation fast path, with an explicit lock at a higher level if
// more than one goroutine touches the same Collector.
type Collector struct {
	config Config

	nursery [numRoles]*Arena
	tenured [numRoles]*Arena

	mlog     [numRoles]*mutationLog
	deferLog *mutationLog

	run   runstate
	roots rootSet

	callbacks *callbackSet
	stats     Stats
	hist      *history

	incrPending bool
	fullPending bool
	gcDisabled  int // >0 means disabled; EnableGC/DisableGC adjust it

	poisoned error

	log logrus.FieldLogger

	seq uint64 // cycles run so far, counting both generations

	objectStats map[ObjectKind]ObjectTypeStats
}

// New constructs a Collector from cfg, validating sizing invariants
// (spec §7's config_invalid) and committing each arena's initial
// capacity. The nursery arenas commit up to IncrGCThreshold and the
// tenured arenas commit up to FullGCThreshold; InitialNurseryZ and
// InitialTenuredZ are reservations the collector may grow into later,
// not the initial commit.
func New(cfg Config, opts ...Option) (*Collector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Collector{
		config:      cfg,
		callbacks:   newCallbackSet(),
		hist:        newHistory(cfg.StatsHistoryZ),
		objectStats: make(map[ObjectKind]ObjectTypeStats),
	}
	c.log = defaultLogger()

	c.nursery[fromSpace] = newArena("nursery-from", Nursery, cfg.InitialNurseryZ)
	c.nursery[toSpace] = newArena("nursery-to", Nursery, cfg.InitialNurseryZ)
	c.tenured[fromSpace] = newArena("tenured-from", Tenured, cfg.InitialTenuredZ)
	c.tenured[toSpace] = newArena("tenured-to", Tenured, cfg.InitialTenuredZ)

	for _, a := range []*Arena{c.nursery[fromSpace], c.nursery[toSpace]} {
		if err := a.commit(cfg.IncrGCThreshold); err != nil {
			return nil, err
		}
	}
	for _, a := range []*Arena{c.tenured[fromSpace], c.tenured[toSpace]} {
		if err := a.commit(cfg.FullGCThreshold); err != nil {
			return nil, err
		}
	}

	c.mlog[fromSpace] = &mutationLog{}
	c.mlog[toSpace] = &mutationLog{}
	c.deferLog = &mutationLog{}

	for _, opt := range opts {
		opt(c)
	}

	c.nurseryTo().doCheckpoint()
	c.tenuredTo().doCheckpoint()

	return c, nil
}

func (c *Collector) nurseryTo() *Arena   { return c.nursery[toSpace] }
func (c *Collector) nurseryFrom() *Arena { return c.nursery[fromSpace] }
func (c *Collector) tenuredTo() *Arena   { return c.tenured[toSpace] }
func (c *Collector) tenuredFrom() *Arena { return c.tenured[fromSpace] }

func (c *Collector) swapNursery()     { c.nursery[fromSpace], c.nursery[toSpace] = c.nursery[toSpace], c.nursery[fromSpace] }
func (c *Collector) swapTenured()     { c.tenured[fromSpace], c.tenured[toSpace] = c.tenured[toSpace], c.tenured[fromSpace] }
func (c *Collector) swapMutationLog() { c.mlog[fromSpace], c.mlog[toSpace] = c.mlog[toSpace], c.mlog[fromSpace] }

// --- allocation and the write barrier -------------------------------------

// Alloc places o — a freshly constructed, not-yet-adopted value whose
// Header.Kind has already been set via NewHeader/RegisterKind — into
// the nursery's to-space. It may trigger an incremental collection
// first if the nursery's G0 region has grown past IncrGCThreshold.
func (c *Collector) Alloc(o Object) error {
	if c.poisoned != nil {
		return c.poisoned
	}
	if !c.incrPending && c.nurseryTo().afterCheckpoint() > c.config.IncrGCThreshold {
		if err := c.RequestGC(Nursery); err != nil {
			return err
		}
		if c.poisoned != nil {
			return c.poisoned
		}
	}

	ops := opsFor(o)
	z := ops.ShallowSize(o)
	off, err := c.nurseryTo().alloc(z)
	if err != nil {
		c.poison(err)
		return err
	}
	c.nurseryTo().adopt(o, off)
	c.stats.totalAllocated += z
	return nil
}

// AssignMember implements the write barrier of spec §4.3: it performs
// *parent.Slots()[slot] = rhs and, if the assignment creates a
// pointer a future incremental cycle could miss (tenured-to-nursery,
// or nursery-G1-to-nursery-G0), logs a mutation-log entry recording
// it.
func (c *Collector) AssignMember(parent Slotted, slot int, rhs Object) error {
	c.stats.nMutation++
	*parent.Slots()[slot] = rhs

	if c.run.inProgress || !c.config.AllowIncrementalGC {
		return nil
	}

	switch c.tospaceGenerationOf(rhs) {
	case grTenured:
		// rhs already lives in tenured: no forwarding work could ever
		// be missed.
		return nil
	case grNursery:
		switch c.tospaceGenerationOf(parent) {
		case grNursery:
			if c.nurseryTo().isBeforeCheckpoint(parent) {
				c.mlog[toSpace].push(mutationEntry{parent: parent, slot: slot})
				c.stats.nLoggedMutation++
				c.stats.nXCkpMutation++
			}
		case grTenured:
			c.mlog[toSpace].push(mutationEntry{parent: parent, slot: slot})
			c.stats.nLoggedMutation++
			c.stats.nXGenMutation++
		case grNotFound:
			// parent is outside the heap (e.g. a C-level root struct
			// not itself GC-managed); nothing to log against.
		}
	case grNotFound:
		// rhs is nil or external; no future relocation could miss it.
	}
	return nil
}

// --- roots -----------------------------------------------------------------

// AddRoot registers slot as a GC root. May only be called while no
// cycle is in progress.
func (c *Collector) AddRoot(slot *Object) error {
	if c.run.inProgress {
		return ErrReentrantGC
	}
	c.roots.add(slot)
	return nil
}

// RemoveRoot unregisters slot. May only be called while no cycle is
// in progress; returns ErrInvalidRoot if slot was never registered.
func (c *Collector) RemoveRoot(slot *Object) error {
	if c.run.inProgress {
		return ErrReentrantGC
	}
	return c.roots.remove(slot)
}

// --- callbacks ---------------------------------------------------------------

// AddGCCopyCallback registers fn to be invoked once per object
// relocation for every subsequent cycle, in registration order.
func (c *Collector) AddGCCopyCallback(fn CopyCallback) CallbackID {
	return c.callbacks.add(fn)
}

// RemoveGCCopyCallback unregisters a callback previously returned by
// AddGCCopyCallback. Removing an unknown id is a silent no-op.
func (c *Collector) RemoveGCCopyCallback(id CallbackID) {
	c.callbacks.remove(id)
}

// --- enable/disable ----------------------------------------------------------

// DisableGC suppresses automatic collection: RequestGC calls while
// disabled are recorded but deferred until a matching EnableGC call.
// Calls nest.
func (c *Collector) DisableGC() {
	c.gcDisabled++
}

// EnableGC removes one layer of DisableGC suppression. If this is the
// outermost EnableGC and a collection was deferred while disabled, it
// now runs; the bool return reports whether a cycle actually ran.
func (c *Collector) EnableGC() (bool, error) {
	if c.gcDisabled > 0 {
		c.gcDisabled--
	}
	if c.gcDisabled == 0 && c.incrPending {
		target := Nursery
		if c.fullPending {
			target = Tenured
		}
		if err := c.RequestGC(target); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// EnableGCOnce is a convenience for running exactly one deferred
// collection, if any, without leaving GC enabled afterward: it is
// EnableGC immediately followed by DisableGC.
func (c *Collector) EnableGCOnce() (bool, error) {
	ran, err := c.EnableGC()
	c.DisableGC()
	return ran, err
}

// IsGCEnabled reports whether automatic collection is currently
// permitted (no outstanding DisableGC calls).
func (c *Collector) IsGCEnabled() bool { return c.gcDisabled == 0 }

// --- triggering a cycle ------------------------------------------------------

// RequestGC asks for a collection of at least target. A request for
// Tenured, or one that observes the tenured generation already past
// FullGCThreshold, or one made while incremental collection is
// disabled by Config, is promoted to a full collection. If GC is
// currently disabled (DisableGC) or a cycle is already running, the
// request is recorded and honored by the next EnableGC/execute.
func (c *Collector) RequestGC(target Generation) error {
	needFull := target == Tenured ||
		c.tenuredTo().afterCheckpoint() > c.config.FullGCThreshold ||
		!c.config.AllowIncrementalGC
	if needFull {
		target = Tenured
	}

	if c.run.inProgress || c.gcDisabled > 0 {
		c.incrPending = true
		if needFull {
			c.fullPending = true
		}
		return nil
	}

	return c.execute(target)
}

func (c *Collector) poison(err error) {
	if c.poisoned == nil {
		c.poisoned = err
		c.logPoisoned(err)
	}
	c.run = runstate{}
}

// --- the cycle itself --------------------------------------------------------

func (c *Collector) execute(upto Generation) error {
	if c.poisoned != nil {
		return c.poisoned
	}
	if c.run.inProgress {
		return ErrReentrantGC
	}

	t0 := time.Now()
	fullMove := upto == Tenured
	c.run = runstate{inProgress: true, fullMove: fullMove}
	c.seq++
	c.logCycleStart(upto)

	// "Pending" means requested-but-not-yet-executed: clear it now, at
	// the start of the cycle that honors the request, not at the end.
	c.incrPending = false
	if fullMove {
		c.fullPending = false
	}

	newAlloc := c.nurseryTo().afterCheckpoint()
	promotedAtStart := c.stats.totalPromoted

	if err := c.swapSpaces(upto); err != nil {
		c.poison(err)
		return err
	}

	for _, slot := range c.roots.slots {
		if _, err := c.relocate(slot, upto); err != nil {
			c.poison(err)
			return err
		}
	}

	if err := c.forwardMutationLog(upto); err != nil {
		c.poison(err)
		return err
	}

	dt := time.Since(t0)
	item := c.cleanupPhase(upto, newAlloc, promotedAtStart, dt)
	c.logCycleEnd(upto, item)

	c.run = runstate{}
	return nil
}

// swapSpaces implements spec §4.4 step 2-3: plan capacity, clear the
// space that is about to become the new (empty) to-space, and swap
// from/to roles for whichever generations upto touches.
func (c *Collector) swapSpaces(upto Generation) error {
	maxPromote := c.nurseryTo().beforeCheckpoint()

	needTenured := c.tenuredTo().allocated() + maxPromote + c.config.FullGCThreshold
	if err := c.tenuredTo().commit(needTenured); err != nil {
		return err
	}

	if upto == Tenured {
		c.tenuredFrom().reset(0)
		c.swapTenured()
	}

	needNursery := c.nurseryTo().allocated() - maxPromote + c.config.IncrGCThreshold
	c.nurseryFrom().reset(needNursery)
	c.swapNursery()
	c.swapMutationLog()

	return nil
}

// tospaceGenerationOf classifies o by which generation's to-space
// (the collector's current, authoritative storage) it belongs to.
func (c *Collector) tospaceGenerationOf(o Object) genResult {
	if o == nil {
		return grNotFound
	}
	if c.tenuredTo().contains(o) {
		return grTenured
	}
	if c.nurseryTo().contains(o) {
		return grNursery
	}
	return grNotFound
}

// fromspaceGenerationOf classifies o by which generation's from-space
// (this cycle's stale, about-to-be-reclaimed storage) it belongs to.
func (c *Collector) fromspaceGenerationOf(o Object) genResult {
	if o == nil {
		return grNotFound
	}
	if c.tenuredFrom().contains(o) {
		return grTenured
	}
	if c.nurseryFrom().contains(o) {
		return grNursery
	}
	return grNotFound
}

// Relocate rewrites *slot to point at o's (possibly freshly made)
// to-space copy, recursively forwarding its children on first visit.
// It is idempotent: visiting the same slot, or two different slots
// that alias the same object, twice never double-copies. ObjectOps
// implementations call this (usually via ForwardSlots) from
// ForwardChildren.
func (c *Collector) Relocate(slot *Object) error {
	upto := Nursery
	if c.run.fullMove {
		upto = Tenured
	}
	_, err := c.relocate(slot, upto)
	return err
}

// relocate is Relocate's implementation, additionally reporting
// whether a fresh copy was made (used by the mutation-log fixpoint to
// decide whether a pass accomplished anything).
func (c *Collector) relocate(slot *Object, upto Generation) (rescued bool, err error) {
	o := *slot
	if o == nil {
		return false, nil
	}
	if c.nurseryTo().contains(o) {
		return false, nil
	}
	if c.tenuredTo().contains(o) {
		// Already in its final place, whether because this is a full
		// cycle and it was copied via another path, or because this is
		// an incremental cycle and tenured objects are never touched.
		return false, nil
	}
	if IsForwarded(o) {
		*slot = Destination(o)
		return false, nil
	}

	promote := c.nurseryFrom().contains(o) && c.nurseryFrom().isBeforeCheckpoint(o)
	tenuredSrc := c.tenuredFrom().contains(o)

	var dest *Arena
	srcGen := Nursery
	if tenuredSrc || promote {
		dest = c.tenuredTo()
	} else {
		dest = c.nurseryTo()
	}
	if tenuredSrc {
		srcGen = Tenured
	}

	ops := opsFor(o)
	size := ops.ShallowSize(o)

	cp, err := ops.ShallowCopy(o, dest)
	if err != nil {
		return false, err
	}
	setForwarded(o, cp)
	*slot = cp

	if promote {
		c.stats.totalPromoted += size
	}

	destGen := Nursery
	if dest == c.tenuredTo() {
		destGen = Tenured
	}
	c.callbacks.invoke(CopyEvent{Size: size, Src: o, Dest: cp, SrcGen: srcGen, DestGen: destGen})

	if _, err := ops.ForwardChildren(cp, c); err != nil {
		return true, err
	}
	return true, nil
}

// captureObjectStatistics rescans both to-space arenas by kind,
// replacing the previous snapshot. A no-op unless Config.ObjectStatsFlag
// is set. Grounded on GC.cpp's capture_object_statistics; unlike the
// original's separate sab ("start after begin")/sae (after-end)
// captures bracketing a cycle, this module captures once, after
// cleanup, since nothing here consumes a mid-cycle snapshot.
func (c *Collector) captureObjectStatistics() {
	if !c.config.ObjectStatsFlag {
		return
	}
	for k := range c.objectStats {
		delete(c.objectStats, k)
	}
	for _, a := range []*Arena{c.nurseryTo(), c.tenuredTo()} {
		for _, o := range a.members {
			k := o.GcHeader().kind
			entry := c.objectStats[k]
			entry.Count++
			entry.Bytes += opsFor(o).ShallowSize(o)
			c.objectStats[k] = entry
		}
	}
}
