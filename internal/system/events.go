package system

import (
	"time"

	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
)

// EventDispatchSystem swaps the bus buffers and delivers last tick's events.
// It has no phase of its own: it runs before the input phase set, and so
// before every phased system.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Name() string { return "event_dispatch" }

func (s *EventDispatchSystem) Dependencies() coresys.Dependencies {
	return coresys.Dependencies{Before: []string{coresys.PhaseInput.SetID()}}
}

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
