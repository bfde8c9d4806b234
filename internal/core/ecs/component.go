package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(h EntityHandle) bool
}

// Store is a sparse-set component store. Components live in a dense slice;
// sparse maps a slot index to its dense position plus one (0 = absent).
// A stored handle is matched by full equality, so a component left behind by
// a destroyed entity is invisible to the slot's next owner.
type Store[T any] struct {
	sparse  []int32
	handles []EntityHandle
	data    []T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		sparse:  make([]int32, 0, 256),
		handles: make([]EntityHandle, 0, 64),
		data:    make([]T, 0, 64),
	}
}

func (s *Store[T]) pos(h EntityHandle) (int, bool) {
	idx := int(h.Index())
	if idx >= len(s.sparse) {
		return 0, false
	}
	p := int(s.sparse[idx]) - 1
	if p < 0 || s.handles[p] != h {
		return 0, false
	}
	return p, true
}

// Set stores c for h, replacing any component held by an earlier owner of the slot.
func (s *Store[T]) Set(h EntityHandle, c T) {
	idx := int(h.Index())
	if idx >= len(s.sparse) {
		s.sparse = append(s.sparse, make([]int32, idx+1-len(s.sparse))...)
	}
	if p := int(s.sparse[idx]) - 1; p >= 0 {
		s.handles[p] = h
		s.data[p] = c
		return
	}
	s.handles = append(s.handles, h)
	s.data = append(s.data, c)
	s.sparse[idx] = int32(len(s.data))
}

// Get returns a pointer into the dense slice. It stays valid until the next
// Set or Remove on this store.
func (s *Store[T]) Get(h EntityHandle) (*T, bool) {
	p, ok := s.pos(h)
	if !ok {
		return nil, false
	}
	return &s.data[p], true
}

func (s *Store[T]) Has(h EntityHandle) bool {
	_, ok := s.pos(h)
	return ok
}

// Remove swaps the last element into the hole.
func (s *Store[T]) Remove(h EntityHandle) bool {
	p, ok := s.pos(h)
	if !ok {
		return false
	}
	last := len(s.data) - 1
	if p != last {
		s.handles[p] = s.handles[last]
		s.data[p] = s.data[last]
		s.sparse[s.handles[p].Index()] = int32(p + 1)
	}
	var zero T
	s.data[last] = zero
	s.handles = s.handles[:last]
	s.data = s.data[:last]
	s.sparse[h.Index()] = 0
	return true
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits components in dense order. fn must not add or remove components.
func (s *Store[T]) Each(fn func(EntityHandle, *T)) {
	for i := range s.data {
		fn(s.handles[i], &s.data[i])
	}
}
