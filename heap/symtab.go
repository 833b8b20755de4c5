package heap

import "github.com/xolang/xogc/gc"

// Symtab is a flat lexical scope chain mapping an interned name to
// its current binding. Grounded on original_source/xo-expression2/
// include/xo/expression2/symtab/ASymbolTable.hpp's lookup_binding
// contract, simplified to a plain parent-linked chain: the facet/RTTI
// machinery ASymbolTable builds on is C++-specific and has no Go
// analogue worth keeping.
//
// Like StringTable, a Symtab lives on the host side, outside the
// collected heap; each binding's current location is tracked as a GC
// root so relocation never leaves a stale pointer behind. Scopes are
// keyed by the name's text rather than its *UniqueString pointer: a
// UniqueString is itself a GC-managed, relocatable object, so using it
// as a map key would leave the key stale across a collection even
// though the rooted value slot it points to is correctly rewritten —
// the same reason StringTable.byText keys on string, not *gc.Object.
type Symtab struct {
	c        *gc.Collector
	parent   *Symtab
	bindings map[string]*gc.Object
}

// NewSymtab constructs an empty scope chained under parent (nil for
// the outermost scope).
func NewSymtab(c *gc.Collector, parent *Symtab) *Symtab {
	return &Symtab{c: c, parent: parent, bindings: make(map[string]*gc.Object)}
}

// Bind assigns value to name in this scope, shadowing any binding of
// the same name in an enclosing scope.
func (s *Symtab) Bind(name *UniqueString, value gc.Object) error {
	if slot, ok := s.bindings[name.Value]; ok {
		*slot = value
		return nil
	}
	slot := new(gc.Object)
	*slot = value
	if err := s.c.AddRoot(slot); err != nil {
		return err
	}
	s.bindings[name.Value] = slot
	return nil
}

// LookupBinding walks this scope and its ancestors, returning the
// first binding found for name.
func (s *Symtab) LookupBinding(name *UniqueString) (gc.Object, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if slot, ok := cur.bindings[name.Value]; ok {
			return *slot, true
		}
	}
	return nil, false
}

// Unbind removes name from this scope only; an enclosing binding of
// the same name is left in place and becomes visible again.
func (s *Symtab) Unbind(name *UniqueString) error {
	slot, ok := s.bindings[name.Value]
	if !ok {
		return nil
	}
	delete(s.bindings, name.Value)
	return s.c.RemoveRoot(slot)
}
