package heap

import "github.com/xolang/xogc/gc"

const strHeaderSize = 16

// Str is a flat, byte-copied string object: no child pointers, so
// its shallow size includes the whole payload and ForwardChildren is
// a no-op walk.
type Str struct {
	gc.Header
	Value string
}

var strKind = gc.RegisterKind(strOps{})

// NewStr constructs a Str and allocates it in c's nursery.
func NewStr(c *gc.Collector, value string) (*Str, error) {
	o := &Str{Header: gc.NewHeader(strKind), Value: value}
	if err := c.Alloc(o); err != nil {
		return nil, err
	}
	return o, nil
}

type strOps struct{}

func (strOps) ShallowSize(o gc.Object) uint64 {
	return strHeaderSize + uint64(len(o.(*Str).Value))
}

func (s strOps) ShallowCopy(o gc.Object, dst *gc.Arena) (gc.Object, error) {
	src := o.(*Str)
	off, err := gc.AllocInto(dst, s.ShallowSize(o))
	if err != nil {
		return nil, err
	}
	cp := &Str{Header: gc.NewHeader(strKind), Value: src.Value}
	gc.Adopt(dst, cp, off)
	return cp, nil
}

func (strOps) ForwardChildren(dest gc.Object, c *gc.Collector) (uint64, error) {
	return gc.ForwardSlots(dest, c)
}
