package ecs

import "go.uber.org/zap"

// LifecycleHooks observes entity lifecycle changes made through a World.
type LifecycleHooks interface {
	EntityCreated(h EntityHandle)
	EntityDestroyed(h EntityHandle)
	EntityEnabledChanged(h EntityHandle, enabled bool)
}

// World is the top-level ECS container. It owns the handle manager, the
// component registry, and a deferred destruction queue flushed by the cleanup
// system each tick.
type World struct {
	pool         *HandleManager
	registry     *Registry
	destroyQueue []EntityHandle
	hooks        LifecycleHooks
	log          *zap.Logger
}

// NewWorld wraps pool. A nil pool gets a default manager; hooks may be nil.
func NewWorld(pool *HandleManager, hooks LifecycleHooks, log *zap.Logger) *World {
	if pool == nil {
		pool = NewHandleManager(1024, WrapReuse)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		pool:         pool,
		registry:     NewRegistry(),
		destroyQueue: make([]EntityHandle, 0, 64),
		hooks:        hooks,
		log:          log,
	}
}

func (w *World) Pool() *HandleManager { return w.pool }
func (w *World) Registry() *Registry  { return w.registry }

func (w *World) CreateEntity() (EntityHandle, error) {
	h, err := w.pool.Create()
	if err != nil {
		w.log.Warn("entity creation rejected",
			zap.Int("alive", w.pool.AliveCount()),
			zap.Int("retired", w.pool.Retired()),
			zap.Error(err))
		return 0, err
	}
	if w.hooks != nil {
		w.hooks.EntityCreated(h)
	}
	return h, nil
}

func (w *World) Alive(h EntityHandle) bool {
	return w.pool.IsAlive(h)
}

func (w *World) Enabled(h EntityHandle) bool {
	return w.pool.IsEnabled(h)
}

// SetEnabled reports false for a dead handle. Hooks fire only on a change.
func (w *World) SetEnabled(h EntityHandle, enabled bool) bool {
	prev := w.pool.IsEnabled(h)
	if !w.pool.SetEnabled(h, enabled) {
		return false
	}
	if w.hooks != nil && prev != enabled {
		w.hooks.EntityEnabledChanged(h, enabled)
	}
	return true
}

// MarkForDestruction queues a live entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(h EntityHandle) bool {
	if !w.pool.IsAlive(h) {
		return false
	}
	w.destroyQueue = append(w.destroyQueue, h)
	return true
}

// Pending returns the number of queued destructions, duplicates included.
func (w *World) Pending() int {
	return len(w.destroyQueue)
}

// FlushDestroyQueue destroys all queued entities, clears their components and
// returns how many were destroyed. Entries already dead by now are skipped.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, h := range w.destroyQueue {
		if !w.pool.IsAlive(h) {
			continue
		}
		w.registry.RemoveAll(h)
		w.pool.Destroy(h)
		n++
		if w.hooks != nil {
			w.hooks.EntityDestroyed(h)
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// EachEnabled visits live, enabled entities in ascending slot order.
func (w *World) EachEnabled(fn func(EntityHandle)) {
	w.pool.ForEach(func(h EntityHandle) {
		if w.pool.IsEnabled(h) {
			fn(h)
		}
	})
}
