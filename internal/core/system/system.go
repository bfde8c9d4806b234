package system

import (
	"fmt"
	"strings"
	"time"
)

// Phase defines coarse execution ordering within a single tick. A phased
// system joins the phase's set and runs before the next phase's set.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain input queues, dispatch events
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: game logic
	PhasePostUpdate              // 3: regen, spawn, visibility
	PhaseOutput                  // 4: build output
	PhasePersist                 // 5: flush state
	PhaseCleanup                 // 6: destroy queued entities

	phaseCount
)

var phaseNames = [phaseCount]string{
	"input", "pre_update", "update", "post_update", "output", "persist", "cleanup",
}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

const phaseSetPrefix = SetPrefix + "phase."

// SetID returns the id of the set every system of phase p belongs to.
func (p Phase) SetID() string {
	return phaseSetPrefix + p.String()
}

// System is the interface every ECS system implements.
type System interface {
	Name() string
	Update(dt time.Duration)
}

// Dependencies are the ordering constraints of a system; see Info.
type Dependencies struct {
	Before []string
	After  []string
	Sets   []string
}

// Dependent is implemented by systems that declare ordering constraints.
type Dependent interface {
	Dependencies() Dependencies
}

// Phased is implemented by systems bound to a tick phase.
type Phased interface {
	Phase() Phase
}
