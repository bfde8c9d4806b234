package ecs

// Each2 iterates over entities that have both component A and B.
// It walks the smaller store densely and probes the other.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityHandle, *A, *B)) {
	if sa.Len() <= sb.Len() {
		sa.Each(func(h EntityHandle, a *A) {
			if b, ok := sb.Get(h); ok {
				fn(h, a, b)
			}
		})
		return
	}
	sb.Each(func(h EntityHandle, b *B) {
		if a, ok := sa.Get(h); ok {
			fn(h, a, b)
		}
	})
}

// Each3 iterates over entities that have components A, B, and C, driven by
// whichever store is smallest.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityHandle, *A, *B, *C)) {
	visit := func(h EntityHandle) {
		a, ok := sa.Get(h)
		if !ok {
			return
		}
		b, ok := sb.Get(h)
		if !ok {
			return
		}
		c, ok := sc.Get(h)
		if !ok {
			return
		}
		fn(h, a, b, c)
	}

	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		sa.Each(func(h EntityHandle, _ *A) { visit(h) })
	case sb.Len() <= sc.Len():
		sb.Each(func(h EntityHandle, _ *B) { visit(h) })
	default:
		sc.Each(func(h EntityHandle, _ *C) { visit(h) })
	}
}
