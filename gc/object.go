package gc

// ObjectKind is the small integer type tag a registered heap type is
// dispatched through. See spec §6.2 and §9's "registry maps type
// descriptors to function tables; the collector never sees a
// concrete object type."
type ObjectKind uint16

// Header is the fixed collector-owned state every managed object
// embeds anonymously, so that GcHeader is promoted onto the object's
// type (see Object). It plays the
// role of spec §9's "one pointer-sized word ... a low-bit tag
// distinguishes the live-type-descriptor case from the
// forwarded-address case" — implemented here as an explicit struct
// rather than a packed tagged word, since ordinary Go pointer fields
// already give the real garbage collector full visibility (see
// SPEC_FULL.md's representation note).
type Header struct {
	kind   ObjectKind
	arena  *Arena
	offset uint64
	fwd    Object
}

// NewHeader returns a freshly-initialized Header for a value being
// constructed with the given registered kind. Constructors embed the
// result as their Header field; the collector fills in arena/offset
// when the value is first allocated.
func NewHeader(kind ObjectKind) Header {
	return Header{kind: kind}
}

// Kind reports the object's registered type tag.
func (h *Header) Kind() ObjectKind { return h.kind }

// GcHeader returns h itself. Any type that embeds Header anonymously
// satisfies Object through this promoted method, without writing its
// own — see the heap package for examples.
func (h *Header) GcHeader() *Header { return h }

// Object is the interface every value allocated through a Collector
// must implement. GcHeader must always return a pointer to the same
// embedded Header for the lifetime of the value. In practice a type
// satisfies this by embedding Header anonymously.
type Object interface {
	GcHeader() *Header
}

// IsForwarded reports whether o has already been relocated this
// cycle. Idempotent: once true for an object, it stays true until the
// object is reclaimed (spec P7).
func IsForwarded(o Object) bool {
	return o != nil && o.GcHeader().fwd != nil
}

// Destination returns the forwarding target of a forwarded object, or
// nil if o is not forwarded.
func Destination(o Object) Object {
	if o == nil {
		return nil
	}
	return o.GcHeader().fwd
}

func setForwarded(o, dest Object) {
	o.GcHeader().fwd = dest
}

// ObjectOps is the per-type vtable of spec §6.2: exactly four
// operations (ShallowSize, ShallowCopy, ForwardChildren, and the
// forwarding-header predicates, which live on Header itself and thus
// need no per-type implementation).
type ObjectOps interface {
	// ShallowSize returns the number of bytes o itself occupies,
	// excluding anything reachable through it.
	ShallowSize(o Object) uint64

	// ShallowCopy allocates ShallowSize(o) bytes in dst's accounting
	// and returns a bit-copy of o's representation, not recursing
	// into children. The returned object is already a member of dst.
	ShallowCopy(o Object, dst *Arena) (Object, error)

	// ForwardChildren calls c.Relocate on every pointer-typed slot of
	// dest (which must be a fresh ShallowCopy destination, not the
	// original), in declaration order, and returns ShallowSize(dest).
	ForwardChildren(dest Object, c *Collector) (uint64, error)
}

// AllocInto reserves size accounted bytes in dst, returning the
// offset a new member will occupy. Exported so ObjectOps
// implementations outside this package (see the heap package) can
// participate in arena accounting without the Collector's help.
func AllocInto(dst *Arena, size uint64) (uint64, error) {
	return dst.alloc(size)
}

// Adopt records a freshly-copied object as a member of dst at offset,
// clearing any stale forwarding state it inherited from its zero
// value. ObjectOps.ShallowCopy implementations call this once they've
// built the copy.
func Adopt(dst *Arena, o Object, offset uint64) {
	dst.adopt(o, offset)
}

// registry maps ObjectKind to its ObjectOps. Registration happens
// once, typically from an init() in the package defining the type;
// it is not safe to register concurrently with collector use.
type registry struct {
	ops []ObjectOps
}

var globalRegistry registry

// RegisterKind assigns the next available ObjectKind to ops and
// returns it. Call once per concrete Go type, at package init time.
func RegisterKind(ops ObjectOps) ObjectKind {
	k := ObjectKind(len(globalRegistry.ops))
	globalRegistry.ops = append(globalRegistry.ops, ops)
	return k
}

func opsFor(o Object) ObjectOps {
	return globalRegistry.ops[o.GcHeader().kind]
}

// ForwardSlots is a convenience ForwardChildren implementation for
// any Slotted type: it relocates every declared child slot in order
// and reports the object's shallow size. Most ObjectOps.ForwardChildren
// methods are just `return gc.ForwardSlots(dest, c)`.
func ForwardSlots(dest Object, c *Collector) (uint64, error) {
	if s, ok := dest.(Slotted); ok {
		for _, slot := range s.Slots() {
			if err := c.Relocate(slot); err != nil {
				return 0, err
			}
		}
	}
	return opsFor(dest).ShallowSize(dest), nil
}
