package scalability

import "github.com/udisondev/fxscale/internal/model"

// EvaluateCullState returns the threshold verdict for one instance: true when
// any enabled threshold fails. Count budgets are not considered here.
// Instances that opted out of scalability are never culled.
func EvaluateCullState(inst model.EffectInstance, settings model.ScalabilitySettings, budgetUse float32) bool {
	if inst == nil || !inst.AllowScalability() {
		return false
	}

	if settings.Distance.Exceeded(inst.DistanceToViewer()) {
		return true
	}
	if settings.TimeWithoutRender.Exceeded(inst.TimeSinceRendered()) {
		return true
	}
	if settings.GlobalBudgetUsage.Exceeded(budgetUse) {
		return true
	}
	return false
}

// PreCull decides whether an instance of a SpawnOnly effect type should be
// culled before it is registered: thresholds first, then the count budgets
// against the current non-culled population.
func (m *Manager) PreCull(inst model.EffectInstance) bool {
	if inst == nil || !inst.AllowScalability() {
		return false
	}

	settings := m.activeSettings()
	if EvaluateCullState(inst, settings, m.budgetUsage()) {
		return true
	}
	if !settings.HasCountBudget() {
		return false
	}

	total, sameSystem := 0, 0
	key := inst.SystemKey()
	for i := range m.state {
		if m.state[i].Culled {
			continue
		}
		total++
		if m.instances[i].SystemKey() == key {
			sameSystem++
		}
	}

	return settings.MaxInstances.Full(total) || settings.MaxSystemInstances.Full(sameSystem)
}
