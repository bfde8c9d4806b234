package ecs

import (
	"errors"
	"fmt"
	"strings"
)

const (
	indexBits      = 20
	generationBits = 12

	// MaxEntities is the number of addressable slots, including the reserved slot 0.
	MaxEntities = 1 << indexBits
	// MaxGeneration bounds the generation counter; generations wrap modulo this value.
	MaxGeneration = 1 << generationBits

	indexMask = MaxEntities - 1
)

// ErrEntityBudgetExhausted is returned by Create when every slot up to
// MaxEntities is in use or retired.
var ErrEntityBudgetExhausted = errors.New("ecs: entity budget exhausted")

// EntityHandle encodes a 20-bit slot index in the lower bits and a 12-bit
// generation in the upper bits. Index 0 is reserved: a handle with index 0
// never refers to an entity.
type EntityHandle uint32

// MakeHandle packs index and generation into a handle. Out-of-range inputs are
// masked, so callers should only pass values read from a HandleManager.
func MakeHandle(index, generation uint32) EntityHandle {
	return EntityHandle((generation%MaxGeneration)<<indexBits | index&indexMask)
}

func (h EntityHandle) Index() uint32      { return uint32(h) & indexMask }
func (h EntityHandle) Generation() uint32 { return uint32(h) >> indexBits }
func (h EntityHandle) IsZero() bool       { return h == 0 }

func (h EntityHandle) String() string {
	return fmt.Sprintf("Entity(%d:%d)", h.Index(), h.Generation())
}

// WrapPolicy decides what happens to a slot whose generation wraps back to zero.
type WrapPolicy uint8

const (
	// WrapReuse keeps recycling the slot. A handle held across MaxGeneration
	// recycles of the same slot becomes indistinguishable from a fresh one.
	WrapReuse WrapPolicy = iota
	// WrapRetire withdraws the slot from reuse once its generation wraps.
	WrapRetire
)

func (p WrapPolicy) String() string {
	switch p {
	case WrapReuse:
		return "wrap"
	case WrapRetire:
		return "retire"
	default:
		return fmt.Sprintf("WrapPolicy(%d)", uint8(p))
	}
}

// ParseWrapPolicy accepts "wrap" (alias "reuse") and "retire".
func ParseWrapPolicy(s string) (WrapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap", "reuse":
		return WrapReuse, nil
	case "retire":
		return WrapRetire, nil
	default:
		return 0, fmt.Errorf("unknown wrap policy %q", s)
	}
}

// HandleManager allocates entity handles from parallel dense arrays indexed by
// slot. Freed slots are reused LIFO. Not safe for concurrent use: callers that
// create or destroy from several goroutines must serialize those calls.
type HandleManager struct {
	generations []uint16
	alive       []bool
	enabled     []bool
	freeList    []uint32
	nextIndex   uint32
	aliveCount  int
	retired     int
	policy      WrapPolicy
}

// NewHandleManager returns a manager with room for initialCapacity slots
// (slot 0 included). Capacity doubles on demand up to MaxEntities.
func NewHandleManager(initialCapacity int, policy WrapPolicy) *HandleManager {
	initialCapacity = max(initialCapacity, 1)
	initialCapacity = min(initialCapacity, MaxEntities)
	return &HandleManager{
		generations: make([]uint16, initialCapacity),
		alive:       make([]bool, initialCapacity),
		enabled:     make([]bool, initialCapacity),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
		policy:      policy,
	}
}

// Create allocates a live, enabled entity. It fails only when the entity
// budget is exhausted; the manager is left unchanged in that case.
func (m *HandleManager) Create() (EntityHandle, error) {
	var idx uint32
	if n := len(m.freeList); n > 0 {
		idx = m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
	} else {
		idx = m.nextIndex
		if int(idx) >= len(m.generations) {
			if err := m.grow(int(idx)); err != nil {
				return 0, err
			}
		}
		m.nextIndex++
	}
	m.alive[idx] = true
	m.enabled[idx] = true
	m.aliveCount++
	return MakeHandle(idx, uint32(m.generations[idx])), nil
}

// MustCreate is Create for callers that cannot continue without an entity.
func (m *HandleManager) MustCreate() EntityHandle {
	h, err := m.Create()
	if err != nil {
		panic(err)
	}
	return h
}

// grow doubles capacity until index fits, clamped to MaxEntities.
func (m *HandleManager) grow(index int) error {
	newCap := len(m.generations)
	for newCap <= index && newCap < MaxEntities {
		newCap *= 2
	}
	newCap = min(newCap, MaxEntities)
	if index >= newCap {
		return fmt.Errorf("%w: slot %d, limit %d", ErrEntityBudgetExhausted, index, MaxEntities)
	}

	generations := make([]uint16, newCap)
	alive := make([]bool, newCap)
	enabled := make([]bool, newCap)
	copy(generations, m.generations)
	copy(alive, m.alive)
	copy(enabled, m.enabled)
	m.generations, m.alive, m.enabled = generations, alive, enabled
	return nil
}

// Destroy kills the entity and bumps its slot's generation. Stale, reserved
// and out-of-range handles are ignored and report false.
func (m *HandleManager) Destroy(h EntityHandle) bool {
	if !m.IsAlive(h) {
		return false
	}
	idx := h.Index()
	m.alive[idx] = false
	m.enabled[idx] = false
	m.aliveCount--

	next := (m.generations[idx] + 1) % MaxGeneration
	m.generations[idx] = next
	if next == 0 && m.policy == WrapRetire {
		m.retired++
		return true
	}
	m.freeList = append(m.freeList, idx)
	return true
}

func (m *HandleManager) IsAlive(h EntityHandle) bool {
	idx := h.Index()
	if idx == 0 || int(idx) >= len(m.generations) {
		return false
	}
	return m.alive[idx] && uint32(m.generations[idx]) == h.Generation()
}

// Validate is IsAlive.
func (m *HandleManager) Validate(h EntityHandle) bool {
	return m.IsAlive(h)
}

func (m *HandleManager) IsEnabled(h EntityHandle) bool {
	if !m.IsAlive(h) {
		return false
	}
	return m.enabled[h.Index()]
}

// SetEnabled reports false and does nothing for a dead handle.
func (m *HandleManager) SetEnabled(h EntityHandle, enabled bool) bool {
	if !m.IsAlive(h) {
		return false
	}
	m.enabled[h.Index()] = enabled
	return true
}

// Reset returns the manager to its freshly constructed state. Backing storage
// keeps its current capacity.
func (m *HandleManager) Reset() {
	clear(m.generations)
	clear(m.alive)
	clear(m.enabled)
	m.freeList = m.freeList[:0]
	m.nextIndex = 1
	m.aliveCount = 0
	m.retired = 0
}

// ForEach calls fn for every live entity in ascending slot order.
func (m *HandleManager) ForEach(fn func(EntityHandle)) {
	for idx := uint32(1); idx < m.nextIndex; idx++ {
		if m.alive[idx] {
			fn(MakeHandle(idx, uint32(m.generations[idx])))
		}
	}
}

// AllAlive returns the live entities in ascending slot order.
func (m *HandleManager) AllAlive() []EntityHandle {
	out := make([]EntityHandle, 0, m.aliveCount)
	m.ForEach(func(h EntityHandle) {
		out = append(out, h)
	})
	return out
}

func (m *HandleManager) AliveCount() int    { return m.aliveCount }
func (m *HandleManager) Capacity() int      { return len(m.generations) }
func (m *HandleManager) Retired() int       { return m.retired }
func (m *HandleManager) Policy() WrapPolicy { return m.policy }
