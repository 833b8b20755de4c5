package heap

import "github.com/xolang/xogc/gc"

const consSize = 24

// Cons is a two-slot pointer cell used to build lists, including
// cyclic ones: a cycle of cells survives relocation with each cell
// copied once.
type Cons struct {
	gc.Header
	Head gc.Object
	Tail gc.Object
}

var consKind = gc.RegisterKind(consOps{})

// NewCons constructs a Cons and allocates it in c's nursery.
func NewCons(c *gc.Collector, head, tail gc.Object) (*Cons, error) {
	o := &Cons{Header: gc.NewHeader(consKind), Head: head, Tail: tail}
	if err := c.Alloc(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Slots returns the two child slots in declaration order: Head, then
// Tail. The mutation log and the collector's forwarding walk both
// address a child by its position in this slice, so the order must
// never change once established.
func (c *Cons) Slots() []*gc.Object {
	return []*gc.Object{&c.Head, &c.Tail}
}

// SetHead and SetTail are the write-barriered mutators: plain field
// assignment through Cons.Head/Cons.Tail would bypass the mutation
// log and is never safe once c has been allocated into a Collector.
func (c *Cons) SetHead(coll *gc.Collector, v gc.Object) error {
	return coll.AssignMember(c, 0, v)
}

func (c *Cons) SetTail(coll *gc.Collector, v gc.Object) error {
	return coll.AssignMember(c, 1, v)
}

type consOps struct{}

func (consOps) ShallowSize(gc.Object) uint64 { return consSize }

func (consOps) ShallowCopy(o gc.Object, dst *gc.Arena) (gc.Object, error) {
	src := o.(*Cons)
	off, err := gc.AllocInto(dst, consSize)
	if err != nil {
		return nil, err
	}
	// Head/Tail are copied as-is (still pointing at from-space
	// objects); ForwardChildren fixes them up once the copy is a
	// registered member of dst and safe to mutate through Relocate.
	cp := &Cons{Header: gc.NewHeader(consKind), Head: src.Head, Tail: src.Tail}
	gc.Adopt(dst, cp, off)
	return cp, nil
}

func (consOps) ForwardChildren(dest gc.Object, c *gc.Collector) (uint64, error) {
	return gc.ForwardSlots(dest, c)
}
