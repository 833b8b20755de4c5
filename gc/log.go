package gc

import (
	"io"

	"github.com/sirupsen/logrus"
)

// defaultLogger returns a logrus logger with output discarded. A
// Collector always has a non-nil logger so internal trace calls never
// need a nil check; WithLogger replaces it with one that actually
// writes somewhere.
func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Option configures a Collector at construction time.
type Option func(*Collector)

// WithLogger attaches a logrus.FieldLogger the Collector uses for
// per-cycle debug tracing (spec §6.3's "one structured log line per
// phase transition"). The traces are emitted only when
// Config.DebugFlag is set; pass a logger at logrus.DebugLevel to see
// them.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Collector) {
		if log != nil {
			c.log = log
		}
	}
}

// logCycleStart, logCycleEnd, and logMlogPass are the per-cycle trace
// points GC.cpp brackets in `scope log(XO_DEBUG(config_.debug_flag_), ...)`
// (see e.g. GC.cpp:453,613,1120). They fire only when Config.DebugFlag
// is set, matching the original's debug-flag-gated tracing rather than
// relying solely on the injected logger's own level.
func (c *Collector) logCycleStart(upto Generation) {
	if !c.config.DebugFlag {
		return
	}
	c.log.WithFields(logrus.Fields{
		"upto":      upto.String(),
		"full_move": upto == Tenured,
		"n_before":  c.nurseryTo().afterCheckpoint(),
	}).Debug("gc: cycle start")
}

func (c *Collector) logCycleEnd(upto Generation, item HistoryItem) {
	if !c.config.DebugFlag {
		return
	}
	c.log.WithFields(logrus.Fields{
		"upto":       upto.String(),
		"survive_z":  item.SurviveZ,
		"promote_z":  item.PromoteZ,
		"garbage_z":  item.Garbage0Z + item.Garbage1Z + item.GarbageNZ,
		"effort_z":   item.EffortZ,
		"dt_ns":      item.DT,
		"efficiency": item.Efficiency(),
	}).Debug("gc: cycle end")
}

// logMlogPass traces one fixpoint pass of forwardMutationLog, grounded
// on GC.cpp:727,903's `xtag("from_mlog.size", from_mlog->size())`.
func (c *Collector) logMlogPass(fromSize, deferSize, nRescue int) {
	if !c.config.DebugFlag {
		return
	}
	c.log.WithFields(logrus.Fields{
		"from_mlog.size":  fromSize,
		"defer_mlog.size": deferSize,
		"n_rescue":        nRescue,
	}).Debug("gc: mutation-log pass")
}

// logPoisoned always logs regardless of DebugFlag: a poisoned collector
// is a real error condition, not a debug trace.
func (c *Collector) logPoisoned(err error) {
	c.log.WithError(err).Error("gc: collector poisoned")
}
