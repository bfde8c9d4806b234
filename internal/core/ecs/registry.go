package ecs

// Registry tracks all component stores and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
	}
}

// Register adds component stores to the registry.
func (r *Registry) Register(stores ...Removable) {
	r.stores = append(r.stores, stores...)
}

// RemoveAll clears h from every registered store and returns how many held it.
func (r *Registry) RemoveAll(h EntityHandle) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(h) {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	return len(r.stores)
}
