package heap

import (
	"strconv"

	"github.com/xolang/xogc/gc"
)

const uniqueStringHeaderSize = 16

// UniqueString is a GC-managed, interned string: two UniqueString
// values are the same string iff they are the same pointer. It is
// only ever constructed through a StringTable.
type UniqueString struct {
	gc.Header
	Value string
}

var uniqueStringKind = gc.RegisterKind(uniqueStringOps{})

func newUniqueString(c *gc.Collector, value string) (*UniqueString, error) {
	o := &UniqueString{Header: gc.NewHeader(uniqueStringKind), Value: value}
	if err := c.Alloc(o); err != nil {
		return nil, err
	}
	return o, nil
}

type uniqueStringOps struct{}

func (uniqueStringOps) ShallowSize(o gc.Object) uint64 {
	return uniqueStringHeaderSize + uint64(len(o.(*UniqueString).Value))
}

func (u uniqueStringOps) ShallowCopy(o gc.Object, dst *gc.Arena) (gc.Object, error) {
	src := o.(*UniqueString)
	off, err := gc.AllocInto(dst, u.ShallowSize(o))
	if err != nil {
		return nil, err
	}
	cp := &UniqueString{Header: gc.NewHeader(uniqueStringKind), Value: src.Value}
	gc.Adopt(dst, cp, off)
	return cp, nil
}

func (uniqueStringOps) ForwardChildren(dest gc.Object, c *gc.Collector) (uint64, error) {
	return gc.ForwardSlots(dest, c)
}

// StringTable interns strings into canonical UniqueString objects.
// Grounded on original_source/xo-expression2/include/xo/expression2/
// StringTable.hpp's lookup/intern/gensym contract. The table itself
// lives on the host (non-GC) side, matching spec.md §1's "symbol
// table" external collaborator — but each interned entry's current
// location is a GC root, so a relocation never leaves the table
// holding a stale pointer.
type StringTable struct {
	c      *gc.Collector
	byText map[string]*gc.Object
	gensym int
}

// NewStringTable constructs an empty table rooted against c.
func NewStringTable(c *gc.Collector) *StringTable {
	return &StringTable{c: c, byText: make(map[string]*gc.Object)}
}

// Lookup returns the canonical UniqueString for value, if already
// interned.
func (t *StringTable) Lookup(value string) (*UniqueString, bool) {
	slot, ok := t.byText[value]
	if !ok {
		return nil, false
	}
	return (*slot).(*UniqueString), true
}

// Intern returns the canonical UniqueString for value, allocating and
// rooting one on first use.
func (t *StringTable) Intern(value string) (*UniqueString, error) {
	if us, ok := t.Lookup(value); ok {
		return us, nil
	}
	us, err := newUniqueString(t.c, value)
	if err != nil {
		return nil, err
	}
	slot := new(gc.Object)
	*slot = us
	if err := t.c.AddRoot(slot); err != nil {
		return nil, err
	}
	t.byText[value] = slot
	return us, nil
}

// Gensym interns and returns a fresh UniqueString built from prefix
// and an internal counter, skipping any value already present.
func (t *StringTable) Gensym(prefix string) (*UniqueString, error) {
	for {
		t.gensym++
		candidate := prefix + strconv.Itoa(t.gensym)
		if _, exists := t.byText[candidate]; !exists {
			return t.Intern(candidate)
		}
	}
}
