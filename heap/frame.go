package heap

import "github.com/xolang/xogc/gc"

// Frame is an interpreter stack frame: a fixed number of local
// variable slots plus a link to the calling frame. It carries no GC
// header of its own — a Frame is never heap-allocated through the
// collector, it is a host-side root set, the same role spec.md §1
// assigns the "interpreter stack frame" among the collector's
// external collaborators.
type Frame struct {
	c      *gc.Collector
	Parent *Frame
	locals []gc.Object
}

// NewFrame allocates a frame with nLocals local slots, all
// initially nil, linked to parent (nil for the outermost frame).
func NewFrame(c *gc.Collector, parent *Frame, nLocals int) *Frame {
	return &Frame{c: c, Parent: parent, locals: make([]gc.Object, nLocals)}
}

// Get returns the current value of local slot i.
func (f *Frame) Get(i int) gc.Object { return f.locals[i] }

// Set stores v into local slot i. Frame slots are roots, not
// Slotted-addressed members, so this is a plain assignment — no
// mutation-log entry is ever needed for a root.
func (f *Frame) Set(i int, v gc.Object) { f.locals[i] = v }

// NumLocals reports the number of local slots this frame holds.
func (f *Frame) NumLocals() int { return len(f.locals) }

// PushRoots registers every local slot as a GC root. Call once when
// the frame becomes the active frame (e.g. on call entry), before any
// collection can run.
func (f *Frame) PushRoots() error {
	for i := range f.locals {
		if err := f.c.AddRoot(&f.locals[i]); err != nil {
			return err
		}
	}
	return nil
}

// PopRoots unregisters every local slot as a GC root. Call once when
// the frame is discarded (e.g. on return), before reusing or
// dropping it.
func (f *Frame) PopRoots() error {
	for i := range f.locals {
		if err := f.c.RemoveRoot(&f.locals[i]); err != nil {
			return err
		}
	}
	return nil
}
