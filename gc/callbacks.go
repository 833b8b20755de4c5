package gc

import "github.com/google/uuid"

// CopyEvent is delivered to every registered copy callback for each
// object relocated during a cycle. Callbacks are invoked
// synchronously and must not allocate through the Collector or mutate
// the object graph (spec §4.6).
type CopyEvent struct {
	Size    uint64
	Src     Object
	Dest    Object
	SrcGen  Generation
	DestGen Generation
}

// CopyCallback is notified once per relocation.
type CopyCallback func(CopyEvent)

// CallbackID identifies a registered callback for later removal.
// Backed by a random UUID (github.com/google/uuid) rather than a bare
// counter so ids stay unique and loggable across Collector instances
// — see SPEC_FULL.md §4.6.
type CallbackID uuid.UUID

func (id CallbackID) String() string { return uuid.UUID(id).String() }

type callbackSet struct {
	order []CallbackID
	byID  map[CallbackID]CopyCallback
}

func newCallbackSet() *callbackSet {
	return &callbackSet{byID: make(map[CallbackID]CopyCallback)}
}

func (s *callbackSet) add(fn CopyCallback) CallbackID {
	id := CallbackID(uuid.New())
	s.byID[id] = fn
	s.order = append(s.order, id)
	return id
}

func (s *callbackSet) remove(id CallbackID) {
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *callbackSet) invoke(ev CopyEvent) {
	for _, id := range s.order {
		if fn, ok := s.byID[id]; ok {
			fn(ev)
		}
	}
}
