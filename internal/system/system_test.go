package system_test

import (
	"slices"
	"testing"
	"time"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
	"github.com/l1jgo/ecscore/internal/system"
)

type probe struct {
	name  string
	phase coresys.Phase
	fn    func()
}

func (p *probe) Name() string         { return p.name }
func (p *probe) Phase() coresys.Phase { return p.phase }
func (p *probe) Update(time.Duration) { p.fn() }

func TestBuiltinSystemsFrameTick(t *testing.T) {
	bus := event.NewBus()
	w := ecs.NewWorld(nil, event.LifecycleEmitter{Bus: bus}, nil)

	var destroyedSeen []ecs.EntityHandle
	event.Subscribe(bus, func(ev event.EntityDestroyed) {
		destroyedSeen = append(destroyedSeen, ev.Entity)
	})

	var victim ecs.EntityHandle
	var aliveDuringUpdate bool
	r := coresys.NewRunner(nil, true)
	r.Register(system.NewCleanupSystem(w, nil))
	r.Register(&probe{name: "logic", phase: coresys.PhaseUpdate, fn: func() {
		if victim.IsZero() {
			victim, _ = w.CreateEntity()
			w.MarkForDestruction(victim)
			aliveDuringUpdate = w.Alive(victim)
		}
	}})
	r.Register(system.NewEventDispatchSystem(bus))

	if err := r.Build(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.Order(), []string{"event_dispatch", "logic", "cleanup"}) {
		t.Fatalf("Order = %v", r.Order())
	}

	if err := r.Tick(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !aliveDuringUpdate || w.Alive(victim) {
		t.Fatal("entity should live until the cleanup phase")
	}
	if len(destroyedSeen) != 0 {
		t.Fatal("destroy event delivered in the same tick")
	}

	if err := r.Tick(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(destroyedSeen) != 1 || destroyedSeen[0] != victim {
		t.Fatalf("destroy events = %v", destroyedSeen)
	}
}
