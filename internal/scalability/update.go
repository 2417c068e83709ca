package scalability

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/udisondev/fxscale/internal/model"
)

// Update evaluates due instances and applies cull verdicts.
//
// With newOnly set only instances registered since the last full pass are
// evaluated. Otherwise the effect type's update frequency decides when a new
// full pass starts; a started pass is worked off MaxUpdatesPerTick instances at
// a time. Instances not reached keep their previous verdict.
func (m *Manager) Update(deltaSeconds float32, newOnly bool) UpdateStats {
	stats := UpdateStats{
		EffectType: m.effectType.Name,
		NewOnly:    newOnly,
	}
	if m.updating {
		// called from an instance callback
		return stats
	}
	if m.effectType.UpdateFrequency == model.UpdateSpawnOnly {
		stats.Tracked = len(m.instances)
		stats.Active = m.ActiveCount()
		return stats
	}

	m.frame++
	stats.Frame = m.frame

	m.updating = true
	defer m.flushPending()

	settings := m.activeSettings()
	m.ctx.begin(newOnly, m.opts.MaxUpdatesPerTick)
	m.ctx.worstGlobalBudgetUse = m.budgetUsage()
	stats.BudgetUse = m.ctx.worstGlobalBudgetUse

	// over the global budget: every instance gets a verdict this tick
	if settings.GlobalBudgetUsage.Exceeded(m.ctx.worstGlobalBudgetUse) {
		m.ctx.processAllComponents = true
	}

	m.schedule(deltaSeconds)
	stats.Evaluated = m.evaluateDue(settings)

	if stats.Evaluated > 0 || m.ctx.requiresGlobalSignificancePass {
		stats.Ranked = m.arbitrate(settings)
		m.ctx.requiresGlobalSignificancePass = false
	}

	stats.Culled, stats.Resumed = m.apply()

	stats.Tracked = len(m.instances)
	stats.Active = m.ActiveCount()
	stats.Pending = m.ctx.pending()

	if IsDebugEnabled() {
		slog.Debug("scalability update",
			"effect_type", stats.EffectType,
			"frame", stats.Frame,
			"new_only", newOnly,
			"tracked", stats.Tracked,
			"evaluated", stats.Evaluated,
			"pending", stats.Pending,
			"culled", stats.Culled,
			"resumed", stats.Resumed,
			"active", stats.Active,
			"ranked", stats.Ranked,
			"budget_use", stats.BudgetUse)
	}

	return stats
}

// schedule marks instances due for evaluation.
func (m *Manager) schedule(deltaSeconds float32) {
	n := len(m.instances)

	if m.ctx.newOnly {
		// fresh instances are picked up by evaluateFresh
		return
	}

	if deltaSeconds > 0 {
		m.sinceFullPass += deltaSeconds
	}

	interval := float32(m.effectType.UpdateFrequency.Interval().Seconds())
	// a running pass is only restarted when the global budget forces a full one;
	// instances registered meanwhile were appended to it
	startPass := m.ctx.processAllComponents ||
		(m.ctx.pending() == 0 && (m.newSinceUpdate || m.sinceFullPass >= interval))
	if !startPass {
		return
	}

	for i := range n {
		m.ctx.requiresUpdate.Set(uint(i))
		m.meta[i].fresh = false
	}
	m.ctx.cursor = 0
	m.sinceFullPass = 0
	m.newSinceUpdate = false
}

// evaluateDue runs threshold evaluation on due instances, round-robin from
// the persisted cursor, up to the per-tick cap.
func (m *Manager) evaluateDue(settings model.ScalabilitySettings) int {
	limit := m.ctx.maxUpdateCount
	if m.ctx.processAllComponents || limit <= 0 {
		limit = len(m.instances)
	}
	if m.ctx.newOnly {
		return m.evaluateFresh(settings, limit)
	}

	evaluated := 0
	for evaluated < limit {
		i, ok := m.ctx.nextDue(len(m.instances))
		if !ok {
			break
		}
		m.ctx.requiresUpdate.Clear(uint(i))

		m.evaluate(i, settings)
		evaluated++
	}
	return evaluated
}

// evaluateFresh evaluates instances registered since the last full pass.
// They stay due in the running cycle, if any.
func (m *Manager) evaluateFresh(settings model.ScalabilitySettings, limit int) int {
	evaluated := 0
	for i := range m.meta {
		if evaluated >= limit {
			break
		}
		if !m.meta[i].fresh {
			continue
		}
		m.meta[i].fresh = false
		m.evaluate(i, settings)
		evaluated++
	}
	return evaluated
}

func (m *Manager) evaluate(i int, settings model.ScalabilitySettings) {
	meta := &m.meta[i]
	if !meta.exempt && !meta.terminal {
		meta.candidate = EvaluateCullState(m.instances[i], settings, m.ctx.worstGlobalBudgetUse)
	}
	m.state[i].LastEvaluatedFrame = m.frame
}

// arbitrate computes the final culled flag of every instance from the
// threshold verdicts and the count budgets. Returns true if a significance
// ranking was needed.
func (m *Manager) arbitrate(settings model.ScalabilitySettings) bool {
	for i := range m.state {
		meta := &m.meta[i]
		culled := !meta.exempt && (meta.candidate || meta.terminal)
		m.state[i].Culled = culled
		m.state[i].Dirty = culled != meta.applied
	}

	if !settings.HasCountBudget() || m.fitsCountBudget(settings) {
		return false
	}

	ctx := &m.ctx
	ctx.significanceIndices = ctx.significanceIndices[:0]
	ctx.ranked.ClearAll()

	if m.handler != nil {
		ctx.significanceIndices = m.handler.CalculateSignificance(m.instances, m.state, ctx.significanceIndices)
	} else {
		for i := range m.state {
			if !m.state[i].Culled {
				m.state[i].Significance = 0
			}
		}
	}

	// the handler may skip or repeat indices: keep each live candidate once
	w := 0
	for _, i := range ctx.significanceIndices {
		if i < 0 || i >= len(m.state) || ctx.ranked.Test(uint(i)) {
			continue
		}
		ctx.ranked.Set(uint(i))
		if m.state[i].Culled || m.meta[i].exempt {
			continue
		}
		ctx.significanceIndices[w] = i
		w++
	}
	ctx.significanceIndices = ctx.significanceIndices[:w]
	for i := range m.state {
		if !m.state[i].Culled && !m.meta[i].exempt && !ctx.ranked.Test(uint(i)) {
			ctx.significanceIndices = append(ctx.significanceIndices, i)
		}
	}

	slices.SortFunc(ctx.significanceIndices, m.compareSignificance)

	clear(m.systemCounts)
	kept := 0
	for _, i := range ctx.significanceIndices {
		key := m.instances[i].SystemKey()
		if settings.MaxInstances.Full(kept) || settings.MaxSystemInstances.Full(m.systemCounts[key]) {
			m.state[i].Culled = true
			m.state[i].Dirty = !m.meta[i].applied
			continue
		}
		kept++
		m.systemCounts[key]++
	}

	return true
}

// fitsCountBudget returns true if every live candidate fits the count budgets,
// so no ranking is needed this tick.
func (m *Manager) fitsCountBudget(settings model.ScalabilitySettings) bool {
	clear(m.systemCounts)
	total := 0
	for i := range m.state {
		if m.state[i].Culled || m.meta[i].exempt {
			continue
		}
		total++
		m.systemCounts[m.instances[i].SystemKey()]++
	}

	if !settings.MaxInstances.Fits(total) {
		return false
	}
	if settings.MaxSystemInstances.Enabled {
		for _, c := range m.systemCounts {
			if !settings.MaxSystemInstances.Fits(c) {
				return false
			}
		}
	}
	return true
}

// compareSignificance orders by significance descending; ties keep instances
// that were active, then the earlier registration wins. Without a handler the
// order is registration order only.
func (m *Manager) compareSignificance(a, b int) int {
	if m.handler != nil {
		if c := cmp.Compare(m.state[b].Significance, m.state[a].Significance); c != 0 {
			return c
		}
		if aa, ba := !m.meta[a].applied, !m.meta[b].applied; aa != ba {
			if aa {
				return -1
			}
			return 1
		}
	}
	return cmp.Compare(m.meta[a].seq, m.meta[b].seq)
}

// apply pushes changed verdicts to the instances.
func (m *Manager) apply() (culled, resumed int) {
	for i := range m.state {
		st := &m.state[i]
		if st.Culled {
			st.Significance = 0
		}
		if !st.Dirty {
			continue
		}
		st.Dirty = false
		m.applyScalabilityState(i, st.Culled)
		if st.Culled {
			culled++
		} else {
			resumed++
		}
	}
	return culled, resumed
}

// applyScalabilityState records the verdict and issues the instance callback.
func (m *Manager) applyScalabilityState(i int, culled bool) {
	meta := &m.meta[i]
	m.state[i].Culled = culled
	m.state[i].Dirty = false
	meta.applied = culled

	inst := m.instances[i]
	if culled {
		m.state[i].Significance = 0
		reaction := m.effectType.OverflowReaction
		if !reaction.Resumable() {
			meta.terminal = true
		}
		inst.ApplyCullReaction(reaction)
		return
	}
	inst.Resume()
}

// flushPending leaves the updating state and applies Register/Unregister
// calls deferred while it was set.
func (m *Manager) flushPending() {
	m.updating = false

	for len(m.pendingUnregs) > 0 || len(m.pendingRegs) > 0 {
		if len(m.pendingUnregs) > 0 {
			h := m.pendingUnregs[0]
			m.pendingUnregs = m.pendingUnregs[1:]
			if i, ok := m.handles.lookup(h); ok && i != pendingIndex {
				m.removeAt(i)
			}
			continue
		}

		r := m.pendingRegs[0]
		m.pendingRegs = m.pendingRegs[1:]
		if i, ok := m.handles.lookup(r.handle); ok && i == pendingIndex {
			m.insert(r.handle, r.inst)
		}
	}

	m.pendingUnregs = nil
	m.pendingRegs = nil
}
