// Package manifest loads system ordering declarations from YAML.
package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/ecscore/internal/core/system"
)

// Entry declares one system. Phase is optional.
type Entry struct {
	Name   string   `yaml:"name"`
	Before []string `yaml:"before"`
	After  []string `yaml:"after"`
	Sets   []string `yaml:"sets"`
	Phase  string   `yaml:"phase"`
}

type document struct {
	Systems []Entry `yaml:"systems"`
}

// Manifest holds validated entries in declaration order.
type Manifest struct {
	entries []Entry
}

// Load reads a manifest file such as config/systems.yaml.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func Parse(raw []byte) (*Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, e := range doc.Systems {
		if e.Name == "" {
			return nil, fmt.Errorf("system #%d: missing name", i)
		}
		if e.Phase != "" {
			if _, err := system.ParsePhase(e.Phase); err != nil {
				return nil, fmt.Errorf("system %q: %w", e.Name, err)
			}
		}
	}
	return &Manifest{entries: doc.Systems}, nil
}

// Count returns the number of declared systems.
func (m *Manifest) Count() int {
	return len(m.entries)
}

func (m *Manifest) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Infos returns the declarations as graph input. Phases are not expanded;
// use Systems with a Runner for phase ordering.
func (m *Manifest) Infos() []system.Info {
	infos := make([]system.Info, len(m.entries))
	for i, e := range m.entries {
		infos[i] = system.Info{Name: e.Name, Before: e.Before, After: e.After, Sets: e.Sets}
	}
	return infos
}

// Systems returns a placeholder system per entry. Their Update does nothing;
// they let a Runner plan a schedule for systems implemented elsewhere.
func (m *Manifest) Systems() []system.System {
	out := make([]system.System, 0, len(m.entries))
	for _, e := range m.entries {
		d := &declared{name: e.Name, deps: system.Dependencies{Before: e.Before, After: e.After, Sets: e.Sets}}
		if e.Phase == "" {
			out = append(out, d)
			continue
		}
		p, _ := system.ParsePhase(e.Phase)
		out = append(out, &phasedDeclared{declared: d, phase: p})
	}
	return out
}

type declared struct {
	name string
	deps system.Dependencies
}

func (d *declared) Name() string                      { return d.name }
func (d *declared) Dependencies() system.Dependencies { return d.deps }
func (d *declared) Update(time.Duration)              {}

type phasedDeclared struct {
	*declared
	phase system.Phase
}

func (d *phasedDeclared) Phase() system.Phase { return d.phase }
