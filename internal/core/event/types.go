package event

import "github.com/l1jgo/ecscore/internal/core/ecs"

// Entity lifecycle events, emitted by LifecycleEmitter.

type EntityCreated struct {
	Entity ecs.EntityHandle
}

type EntityDestroyed struct {
	Entity ecs.EntityHandle
}

type EntityEnabledChanged struct {
	Entity  ecs.EntityHandle
	Enabled bool
}

// LifecycleEmitter adapts a Bus to ecs.LifecycleHooks.
type LifecycleEmitter struct {
	Bus *Bus
}

var _ ecs.LifecycleHooks = LifecycleEmitter{}

func (e LifecycleEmitter) EntityCreated(h ecs.EntityHandle) {
	Emit(e.Bus, EntityCreated{Entity: h})
}

func (e LifecycleEmitter) EntityDestroyed(h ecs.EntityHandle) {
	Emit(e.Bus, EntityDestroyed{Entity: h})
}

func (e LifecycleEmitter) EntityEnabledChanged(h ecs.EntityHandle, enabled bool) {
	Emit(e.Bus, EntityEnabledChanged{Entity: h, Enabled: enabled})
}
