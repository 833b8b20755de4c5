package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolang/xogc/gc"
	"github.com/xolang/xogc/heap"
)

func testCollector(t *testing.T) *gc.Collector {
	t.Helper()
	cfg := gc.DefaultConfig()
	cfg.InitialNurseryZ = 4096
	cfg.InitialTenuredZ = 16384
	cfg.IncrGCThreshold = 2048
	cfg.FullGCThreshold = 2048
	c, err := gc.New(cfg)
	require.NoError(t, err)
	return c
}

func TestIntSurvivesCollection(t *testing.T) {
	c := testCollector(t)
	v, err := heap.NewInt(c, 123)
	require.NoError(t, err)

	var root gc.Object = v
	require.NoError(t, c.AddRoot(&root))
	defer c.RemoveRoot(&root)

	require.NoError(t, c.RequestGC(gc.Nursery))
	assert.Equal(t, int64(123), root.(*heap.Int).Value)
}

func TestConsSlotsAddressHeadThenTail(t *testing.T) {
	c := testCollector(t)
	a, err := heap.NewInt(c, 1)
	require.NoError(t, err)
	b, err := heap.NewInt(c, 2)
	require.NoError(t, err)

	cell, err := heap.NewCons(c, a, b)
	require.NoError(t, err)

	slots := cell.Slots()
	require.Len(t, slots, 2)
	assert.Same(t, gc.Object(a), *slots[0])
	assert.Same(t, gc.Object(b), *slots[1])
}

func TestConsSetHeadSetTailGoThroughWriteBarrier(t *testing.T) {
	c := testCollector(t)
	a, err := heap.NewInt(c, 1)
	require.NoError(t, err)
	cell, err := heap.NewCons(c, a, nil)
	require.NoError(t, err)

	before := c.Stats().NMutation()
	b, err := heap.NewInt(c, 2)
	require.NoError(t, err)
	require.NoError(t, cell.SetHead(c, b))
	require.NoError(t, cell.SetTail(c, b))

	assert.Equal(t, before+2, c.Stats().NMutation())
	assert.Same(t, gc.Object(b), cell.Head)
	assert.Same(t, gc.Object(b), cell.Tail)
}

func TestStrShallowSizeIncludesPayload(t *testing.T) {
	c := testCollector(t)
	before := c.Stats().TotalAllocated()

	s, err := heap.NewStr(c, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", s.Value)

	after := c.Stats().TotalAllocated()
	assert.Greater(t, after, before)
}

func TestStringTableInterning(t *testing.T) {
	c := testCollector(t)
	tbl := heap.NewStringTable(c)

	a, err := tbl.Intern("foo")
	require.NoError(t, err)
	b, err := tbl.Intern("foo")
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := tbl.Intern("bar")
	require.NoError(t, err)
	assert.NotSame(t, a, other)

	found, ok := tbl.Lookup("foo")
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = tbl.Lookup("missing")
	assert.False(t, ok)
}

func TestStringTableInternedEntriesSurviveCollection(t *testing.T) {
	c := testCollector(t)
	tbl := heap.NewStringTable(c)

	a, err := tbl.Intern("persist")
	require.NoError(t, err)

	require.NoError(t, c.RequestGC(gc.Nursery))
	require.NoError(t, c.RequestGC(gc.Nursery))

	found, ok := tbl.Lookup("persist")
	require.True(t, ok)
	assert.Equal(t, "persist", found.Value)
	assert.NotSame(t, a, found) // relocated, but still the canonical entry
}

func TestStringTableGensymSkipsExistingNames(t *testing.T) {
	c := testCollector(t)
	tbl := heap.NewStringTable(c)

	_, err := tbl.Intern("tmp1")
	require.NoError(t, err)

	sym, err := tbl.Gensym("tmp")
	require.NoError(t, err)
	assert.Equal(t, "tmp2", sym.Value)
}

func TestSymtabBindLookupUnbind(t *testing.T) {
	c := testCollector(t)
	tbl := heap.NewStringTable(c)
	name, err := tbl.Intern("x")
	require.NoError(t, err)

	outer := heap.NewSymtab(c, nil)
	v, err := heap.NewInt(c, 1)
	require.NoError(t, err)
	require.NoError(t, outer.Bind(name, v))

	got, ok := outer.LookupBinding(name)
	require.True(t, ok)
	assert.Same(t, gc.Object(v), got)

	inner := heap.NewSymtab(c, outer)
	v2, err := heap.NewInt(c, 2)
	require.NoError(t, err)
	require.NoError(t, inner.Bind(name, v2))

	got2, ok := inner.LookupBinding(name)
	require.True(t, ok)
	assert.Same(t, gc.Object(v2), got2) // shadows outer

	require.NoError(t, inner.Unbind(name))
	got3, ok := inner.LookupBinding(name)
	require.True(t, ok)
	assert.Same(t, gc.Object(v), got3) // falls through to outer again
}

// A binding survives a GC cycle that relocates the bound name itself:
// Symtab must key its scope on the name's text, not the *UniqueString
// pointer, since the latter is relocated out from under any map that
// keys on it directly.
func TestSymtabBindingSurvivesNameRelocation(t *testing.T) {
	c := testCollector(t)
	tbl := heap.NewStringTable(c)
	name, err := tbl.Intern("x")
	require.NoError(t, err)

	sym := heap.NewSymtab(c, nil)
	v, err := heap.NewInt(c, 1)
	require.NoError(t, err)
	require.NoError(t, sym.Bind(name, v))

	require.NoError(t, c.RequestGC(gc.Nursery))

	relocated, ok := tbl.Lookup("x")
	require.True(t, ok)

	got, ok := sym.LookupBinding(relocated)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.(*heap.Int).Value)
}

func TestFramePushPopRoots(t *testing.T) {
	c := testCollector(t)
	f := heap.NewFrame(c, nil, 2)

	v, err := heap.NewInt(c, 5)
	require.NoError(t, err)
	f.Set(0, v)

	require.NoError(t, f.PushRoots())
	require.NoError(t, c.RequestGC(gc.Nursery))

	got, ok := f.Get(0).(*heap.Int)
	require.True(t, ok)
	assert.Equal(t, int64(5), got.Value)
	assert.Nil(t, f.Get(1))

	require.NoError(t, f.PopRoots())
}
