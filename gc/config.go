package gc

import "fmt"

// Config configures a Collector at construction time. See spec §6.1.
type Config struct {
	// InitialNurseryZ is the reserved size, in bytes, of each of the
	// two nursery arenas: the most either can ever commit. It is not
	// the initial commit; New commits IncrGCThreshold bytes up front.
	InitialNurseryZ uint64
	// InitialTenuredZ is the reserved size, in bytes, of each of the
	// two tenured arenas. It is not the initial commit; New commits
	// FullGCThreshold bytes up front.
	InitialTenuredZ uint64

	// IncrGCThreshold is the nursery-G0 byte count that triggers an
	// incremental collection.
	IncrGCThreshold uint64
	// FullGCThreshold is the tenured-G0 byte count that triggers a
	// full collection, and also the headroom reserved in tenured
	// to-space capacity planning.
	FullGCThreshold uint64

	// AllowIncrementalGC, when false, upgrades every request to a
	// full collection.
	AllowIncrementalGC bool

	// StatsHistoryZ is the ring capacity for per-cycle statistics.
	StatsHistoryZ int

	// ObjectStatsFlag enables a per-type scan of the to-spaces after
	// each cycle (see Collector.ObjectStats).
	ObjectStatsFlag bool

	// DebugFlag turns on verbose per-cycle trace logging.
	DebugFlag bool
}

// DefaultConfig returns reasonable defaults; callers override fields
// as needed before passing to New.
func DefaultConfig() Config {
	return Config{
		InitialNurseryZ:     1 << 20,
		InitialTenuredZ:     4 << 20,
		IncrGCThreshold:     256 << 10,
		FullGCThreshold:     512 << 10,
		AllowIncrementalGC:  true,
		StatsHistoryZ:       64,
		ObjectStatsFlag:     false,
		DebugFlag:           false,
	}
}

// validate checks the sizing invariants of spec §7's config_invalid:
// incr_gc_threshold must not exceed initial_nursery_z, and
// initial_nursery_z + full_gc_threshold must not exceed
// initial_tenured_z. It also clamps StatsHistoryZ to a usable minimum.
func (c *Config) validate() error {
	if c.IncrGCThreshold > c.InitialNurseryZ {
		return fmt.Errorf("%w: incr_gc_threshold (%d) > initial_nursery_z (%d)",
			ErrConfigInvalid, c.IncrGCThreshold, c.InitialNurseryZ)
	}
	if c.InitialNurseryZ+c.FullGCThreshold > c.InitialTenuredZ {
		return fmt.Errorf("%w: initial_nursery_z + full_gc_threshold (%d) > initial_tenured_z (%d)",
			ErrConfigInvalid, c.InitialNurseryZ+c.FullGCThreshold, c.InitialTenuredZ)
	}
	if c.StatsHistoryZ <= 0 {
		c.StatsHistoryZ = 1
	}
	return nil
}
