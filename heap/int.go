// Package heap supplies the small dynamically-typed object model the
// xogc collector was built to serve: boxed integers, cons cells,
// flat strings, an interning table, a symbol table, and interpreter
// stack frames. None of it is part of the collector itself — it
// exists so gc.ObjectOps has more than one concrete implementation to
// exercise, the way xo-alloc's own test fixtures build a toy list
// language on top of the real allocator.
package heap

import "github.com/xolang/xogc/gc"

const intSize = 16

// Int is a boxed machine integer, grounded on xo-alloc's own test
// fixture for a three-cell linked list of boxed integers.
type Int struct {
	gc.Header
	Value int64
}

var intKind = gc.RegisterKind(intOps{})

// NewInt constructs an Int and immediately allocates it in c's
// nursery.
func NewInt(c *gc.Collector, value int64) (*Int, error) {
	o := &Int{Header: gc.NewHeader(intKind), Value: value}
	if err := c.Alloc(o); err != nil {
		return nil, err
	}
	return o, nil
}

type intOps struct{}

func (intOps) ShallowSize(gc.Object) uint64 { return intSize }

func (intOps) ShallowCopy(o gc.Object, dst *gc.Arena) (gc.Object, error) {
	src := o.(*Int)
	off, err := gc.AllocInto(dst, intSize)
	if err != nil {
		return nil, err
	}
	cp := &Int{Header: gc.NewHeader(intKind), Value: src.Value}
	gc.Adopt(dst, cp, off)
	return cp, nil
}

func (intOps) ForwardChildren(dest gc.Object, c *gc.Collector) (uint64, error) {
	return gc.ForwardSlots(dest, c)
}
