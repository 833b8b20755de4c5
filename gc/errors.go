package gc

import "errors"

// Sentinel error kinds reported by a Collector. See spec §7.
var (
	// ErrHeapExhausted is returned when an arena's committed size
	// cannot grow past its reserved capacity during evacuation. The
	// collector that produced it is poisoned: all later allocations
	// fail with this same error.
	ErrHeapExhausted = errors.New("gc: heap exhausted")

	// ErrReentrantGC is returned by internal callers that attempt to
	// begin a cycle while one is already in progress, and by
	// AddRoot/RemoveRoot when called while a cycle is running. A
	// correctly bracketed mutator (DisableGC/EnableGC around direct
	// calls that might reenter) never observes this.
	ErrReentrantGC = errors.New("gc: collection already in progress")

	// ErrInvalidRoot is returned by RemoveRoot when the given slot was
	// never registered. Non-fatal.
	ErrInvalidRoot = errors.New("gc: root not registered")

	// ErrConfigInvalid is returned by New when a Config violates a
	// sizing invariant.
	ErrConfigInvalid = errors.New("gc: invalid configuration")
)

// poisonedError wraps ErrHeapExhausted with the context of which
// generation's arena ran out of room, so logs and callers can tell
// cycles apart without string-matching.
type poisonedError struct {
	gen Generation
	op  string
}

func (e *poisonedError) Error() string {
	return "gc: heap exhausted growing " + e.gen.String() + " arena during " + e.op
}

func (e *poisonedError) Unwrap() error { return ErrHeapExhausted }
