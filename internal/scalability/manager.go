// Package scalability decides every tick which live effect instances stay active
// and which are culled, by distance, time since rendered, global budget usage and
// instance-count budgets ranked by significance.
package scalability

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/significance"
)

// SettingsSource returns the settings row active for an effect type right now.
// Asked on every Update; the source owns any caching and invalidation.
type SettingsSource interface {
	ActiveSettings(et *model.EffectType) model.ScalabilitySettings
}

// BudgetSource reports global effects budget usage as a fraction of the frame budget.
type BudgetSource interface {
	WorstAdjustedUsage() float32
}

// InitialVisibility selects what happens to an instance between Register and
// its first Update.
type InitialVisibility int32

const (
	// InitialOptimistic keeps new instances active until the next Update evaluates them.
	InitialOptimistic InitialVisibility = iota
	// InitialEvaluate applies the threshold verdict inside Register.
	InitialEvaluate
)

// String returns human-readable policy name
func (v InitialVisibility) String() string {
	switch v {
	case InitialOptimistic:
		return "optimistic"
	case InitialEvaluate:
		return "evaluate"
	default:
		return "unknown"
	}
}

// ParseInitialVisibility parses "optimistic" or "evaluate"; empty means optimistic.
func ParseInitialVisibility(s string) (InitialVisibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optimistic":
		return InitialOptimistic, nil
	case "evaluate":
		return InitialEvaluate, nil
	default:
		return InitialOptimistic, fmt.Errorf("unknown initial visibility %q", s)
	}
}

// Options tunes a manager.
type Options struct {
	// MaxUpdatesPerTick caps threshold evaluations per Update call. 0 = unlimited.
	MaxUpdatesPerTick int
	InitialVisibility InitialVisibility
}

// UpdateStats summarizes one Update call.
type UpdateStats struct {
	EffectType string
	Frame      uint64
	NewOnly    bool
	Tracked    int
	Evaluated  int // threshold evaluations performed
	Pending    int // instances still due in the current amortized cycle
	Culled     int // Active -> Culled transitions
	Resumed    int // Culled -> Active transitions
	Active     int
	Ranked     bool // count budget required a significance ranking
	BudgetUse  float32
}

type instanceMeta struct {
	handle    Handle
	seq       uint64 // registration order, stable across swap-with-last
	fresh     bool   // registered since the last pass that scheduled it
	candidate bool   // threshold verdict of the last evaluation
	applied   bool   // culled verdict last applied to the instance
	terminal  bool   // culled with a non-resumable reaction
	exempt    bool   // instance opted out of scalability
}

type pendingRegistration struct {
	handle Handle
	inst   model.EffectInstance
}

// Manager owns the tracked instances of one effect type.
// Not safe for concurrent use: Register, Unregister and Update are called from
// the tick goroutine. Register/Unregister issued from instance callbacks during
// Update are deferred until the Update returns.
type Manager struct {
	effectType *model.EffectType
	settings   SettingsSource
	budget     BudgetSource
	handler    significance.Handler
	opts       Options

	// parallel arrays, index = dense instance index
	instances []model.EffectInstance
	state     []model.ScalabilityState
	meta      []instanceMeta
	handles   handleTable

	nextSeq        uint64
	frame          uint64
	sinceFullPass  float32 // seconds
	newSinceUpdate bool

	updating      bool
	pendingRegs   []pendingRegistration
	pendingUnregs []Handle

	ctx          iterationContext
	systemCounts map[string]int
}

// NewManager creates manager for an effect type.
// settings and budget may be nil: inert settings and zero budget usage are used.
// handler may be nil: count budgets keep instances in registration order.
func NewManager(et *model.EffectType, settings SettingsSource, budget BudgetSource, handler significance.Handler, opts Options) *Manager {
	if et == nil {
		et = &model.EffectType{}
	}
	return &Manager{
		effectType:   et,
		settings:     settings,
		budget:       budget,
		handler:      handler,
		opts:         opts,
		instances:    make([]model.EffectInstance, 0, 64),
		state:        make([]model.ScalabilityState, 0, 64),
		meta:         make([]instanceMeta, 0, 64),
		ctx:          newIterationContext(),
		systemCounts: make(map[string]int),
	}
}

// EffectType returns the configuration this manager enforces.
func (m *Manager) EffectType() *model.EffectType {
	return m.effectType
}

// SetEffectType swaps the configuration (catalog reload) and forces a full pass.
func (m *Manager) SetEffectType(et *model.EffectType, handler significance.Handler) {
	if et == nil {
		return
	}
	m.effectType = et
	m.handler = handler
	// restart from index 0 under the new settings
	m.ctx.requiresUpdate.ClearAll()
	m.newSinceUpdate = true
	m.ctx.requiresGlobalSignificancePass = true
}

// Register starts tracking inst and returns its handle.
// The instance is active until an Update evaluates it, unless the manager uses
// InitialEvaluate. Returns the zero Handle for a nil instance.
func (m *Manager) Register(inst model.EffectInstance) Handle {
	if inst == nil {
		return Handle{}
	}

	if m.updating {
		h := m.handles.alloc(pendingIndex)
		m.pendingRegs = append(m.pendingRegs, pendingRegistration{handle: h, inst: inst})
		return h
	}

	h := m.handles.alloc(len(m.instances))
	m.insert(h, inst)
	return h
}

func (m *Manager) insert(h Handle, inst model.EffectInstance) {
	i := len(m.instances)
	m.handles.set(h, i)
	m.instances = append(m.instances, inst)
	m.state = append(m.state, model.ScalabilityState{})
	m.meta = append(m.meta, instanceMeta{
		handle: h,
		seq:    m.nextSeq,
		fresh:  true,
		exempt: !inst.AllowScalability(),
	})
	m.nextSeq++

	m.ctx.requiresGlobalSignificancePass = true
	if m.ctx.pending() > 0 {
		// join the running pass, the cursor keeps its position
		m.ctx.requiresUpdate.Set(uint(i))
	} else {
		m.newSinceUpdate = true
	}

	if m.opts.InitialVisibility == InitialEvaluate {
		m.evaluateOnRegister(i)
	}
}

// evaluateOnRegister applies the threshold verdict right away.
// Callbacks issued from here see the same deferral rules as during Update.
func (m *Manager) evaluateOnRegister(i int) {
	if m.meta[i].exempt {
		return
	}
	culled := EvaluateCullState(m.instances[i], m.activeSettings(), m.budgetUsage())

	m.state[i].LastEvaluatedFrame = m.frame
	m.meta[i].candidate = culled
	if !culled {
		return
	}

	m.updating = true
	m.applyScalabilityState(i, true)
	m.flushPending()
}

// Unregister stops tracking the instance behind h.
// Returns false for stale or unknown handles. A culled instance is simply
// dropped, no resume callback is issued.
func (m *Manager) Unregister(h Handle) bool {
	i, ok := m.handles.lookup(h)
	if !ok {
		if IsDebugEnabled() {
			slog.Debug("unregister with stale scalability handle",
				"effect_type", m.effectType.Name,
				"handle", h)
		}
		return false
	}

	if i == pendingIndex {
		// registered during this Update and never inserted
		m.handles.release(h)
		return true
	}

	if m.updating {
		m.pendingUnregs = append(m.pendingUnregs, h)
		return true
	}

	m.removeAt(i)
	return true
}

// removeAt removes dense index i by swapping the last element into it.
func (m *Manager) removeAt(i int) {
	h := m.meta[i].handle
	last := len(m.instances) - 1

	if i != last {
		m.instances[i] = m.instances[last]
		m.state[i] = m.state[last]
		m.meta[i] = m.meta[last]
		m.handles.set(m.meta[i].handle, i)
		m.ctx.moveDue(last, i)
	} else {
		m.ctx.requiresUpdate.Clear(uint(last))
	}

	m.instances[last] = nil
	m.instances = m.instances[:last]
	m.state = m.state[:last]
	m.meta = m.meta[:last]

	m.handles.release(h)
	m.ctx.requiresGlobalSignificancePass = true
}

// Reset drops every tracked instance without issuing callbacks.
// Used when the owning world is torn down.
func (m *Manager) Reset() {
	clear(m.instances)
	m.instances = m.instances[:0]
	m.state = m.state[:0]
	m.meta = m.meta[:0]
	m.handles.reset()
	m.pendingRegs = nil
	m.pendingUnregs = nil
	m.ctx = newIterationContext()
	m.newSinceUpdate = false
	m.sinceFullPass = 0
}

// Len returns number of tracked instances.
func (m *Manager) Len() int {
	return len(m.instances)
}

// ActiveCount returns number of tracked instances that are not culled.
func (m *Manager) ActiveCount() int {
	n := 0
	for i := range m.state {
		if !m.state[i].Culled {
			n++
		}
	}
	return n
}

// Index returns the current dense index of h.
// Indices are invalidated by Unregister; hold the Handle instead.
func (m *Manager) Index(h Handle) (int, bool) {
	i, ok := m.handles.lookup(h)
	if !ok || i == pendingIndex {
		return 0, false
	}
	return i, true
}

// State returns a copy of the scalability state of h.
func (m *Manager) State(h Handle) (model.ScalabilityState, bool) {
	i, ok := m.Index(h)
	if !ok {
		return model.ScalabilityState{}, false
	}
	return m.state[i], true
}

// Instance returns the instance behind h.
func (m *Manager) Instance(h Handle) (model.EffectInstance, bool) {
	i, ok := m.Index(h)
	if !ok {
		return nil, false
	}
	return m.instances[i], true
}

func (m *Manager) activeSettings() model.ScalabilitySettings {
	if m.settings == nil {
		return model.InertSettings()
	}
	return m.settings.ActiveSettings(m.effectType)
}

func (m *Manager) budgetUsage() float32 {
	if m.budget == nil {
		return 0
	}
	return m.budget.WorstAdjustedUsage()
}
