package system

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type scheduled struct {
	sys    System
	phase  Phase
	phased bool
}

// Runner executes systems each tick in the order computed by a dependency
// Graph. The schedule is rebuilt lazily after every Register.
//
// Phase sets are chained input -> pre_update -> ... -> cleanup and every
// phased system runs before the next phase's set, so phases keep their order
// while before/after constraints refine it.
type Runner struct {
	log     *zap.Logger
	strict  bool
	systems []System
	graph   *Graph
	order   []scheduled
	built   bool
}

// NewRunner returns an empty runner. With strict set, Build rejects
// before/after targets that name no registered system or populated set.
func NewRunner(log *zap.Logger, strict bool) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		log:     log,
		strict:  strict,
		systems: make([]System, 0, 16),
		graph:   NewGraph(),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.built = false
}

// infos collects the declared constraints. The implicit edge from a phased
// system to the next phase set is returned separately so strict validation
// only sees what was declared.
func (r *Runner) infos() ([]Info, [][]string, error) {
	seen := make(map[string]struct{}, len(r.systems))
	infos := make([]Info, 0, len(r.systems))
	implicit := make([][]string, 0, len(r.systems))
	for i, s := range r.systems {
		name := s.Name()
		if name == "" {
			return nil, nil, fmt.Errorf("system #%d (%T) has an empty name", i, s)
		}
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("duplicate system name %q", name)
		}
		seen[name] = struct{}{}

		info := Info{Name: name}
		if d, ok := s.(Dependent); ok {
			deps := d.Dependencies()
			info.Before = append(info.Before, deps.Before...)
			info.After = append(info.After, deps.After...)
			info.Sets = append(info.Sets, deps.Sets...)
		}
		var next []string
		if p, ok := s.(Phased); ok {
			phase := p.Phase()
			info.Sets = append(info.Sets, phase.SetID())
			if phase+1 < phaseCount {
				next = append(next, (phase + 1).SetID())
			}
		}
		infos = append(infos, info)
		implicit = append(implicit, next)
	}
	return infos, implicit, nil
}

// Build computes the execution order. A dependency cycle is returned as a
// wrapped *CycleError.
func (r *Runner) Build() error {
	r.built = false
	r.order = r.order[:0]
	infos, implicit, err := r.infos()
	if err != nil {
		return err
	}
	if r.strict {
		if err := ValidateReferences(withoutPhaseRefs(infos)); err != nil {
			return fmt.Errorf("validate schedule: %w", err)
		}
	}
	for i := range infos {
		infos[i].Before = append(infos[i].Before, implicit[i]...)
	}

	r.graph.BuildFromSystems(infos)
	for p := PhaseInput; p+1 < phaseCount; p++ {
		r.graph.AddEdge(p.SetID(), (p + 1).SetID())
	}
	names, err := r.graph.TopologicalSort()
	if err != nil {
		var cycle *CycleError
		if errors.As(err, &cycle) {
			r.log.Error("system dependency cycle", zap.Strings("nodes", cycle.InvolvedNodes))
		}
		return fmt.Errorf("sort systems: %w", err)
	}

	byName := make(map[string]System, len(r.systems))
	for _, s := range r.systems {
		byName[s.Name()] = s
	}
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			r.log.Warn("ordering constraint names an unregistered system", zap.String("name", name))
			continue
		}
		entry := scheduled{sys: s}
		if p, ok := s.(Phased); ok {
			entry.phase, entry.phased = p.Phase(), true
		}
		r.order = append(r.order, entry)
	}
	r.built = true
	r.log.Info("system schedule built",
		zap.Int("systems", len(r.order)),
		zap.Int("nodes", r.graph.Size()),
		zap.Strings("order", r.Order()))
	return nil
}

// withoutPhaseRefs drops references to phase sets, which always exist.
func withoutPhaseRefs(infos []Info) []Info {
	keep := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if !strings.HasPrefix(id, phaseSetPrefix) {
				out = append(out, id)
			}
		}
		return out
	}
	out := make([]Info, len(infos))
	for i, info := range infos {
		out[i] = Info{Name: info.Name, Before: keep(info.Before), After: keep(info.After), Sets: info.Sets}
	}
	return out
}

// Order returns the scheduled system names. It is empty unless the last Build succeeded.
func (r *Runner) Order() []string {
	names := make([]string, len(r.order))
	for i, e := range r.order {
		names[i] = e.sys.Name()
	}
	return names
}

// Graph exposes the graph of the last Build.
func (r *Runner) Graph() *Graph { return r.graph }

func (r *Runner) ensureBuilt() error {
	if r.built {
		return nil
	}
	return r.Build()
}

// Tick runs every system once in schedule order.
func (r *Runner) Tick(dt time.Duration) error {
	if err := r.ensureBuilt(); err != nil {
		return err
	}
	for _, e := range r.order {
		e.sys.Update(dt)
	}
	return nil
}

// TickPhase runs only the systems bound to phase, in schedule order. Systems
// without a phase are skipped. Used for high-frequency input polling between
// full ticks.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) error {
	if err := r.ensureBuilt(); err != nil {
		return err
	}
	for _, e := range r.order {
		if e.phased && e.phase == phase {
			e.sys.Update(dt)
		}
	}
	return nil
}
