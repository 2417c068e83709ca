package platform

import "github.com/udisondev/fxscale/internal/model"

// ActiveSettings returns the first system settings row of et whose platform set
// is active, or the inert all-disabled row when none matches.
// Linear in the number of rows; callers are expected to ask every tick.
func (e *Evaluator) ActiveSettings(et *model.EffectType) model.ScalabilitySettings {
	if et == nil {
		return model.InertSettings()
	}
	for i := range et.SystemSettings {
		if e.IsActive(et.SystemSettings[i].Platforms) {
			return et.SystemSettings[i]
		}
	}
	return model.InertSettings()
}

// ActiveEmitterSettings returns the first emitter settings row of et whose
// platform set is active, or the inert row when none matches.
func (e *Evaluator) ActiveEmitterSettings(et *model.EffectType) model.EmitterScalabilitySettings {
	if et == nil {
		return model.InertEmitterSettings()
	}
	for i := range et.EmitterSettings {
		if e.IsActive(et.EmitterSettings[i].Platforms) {
			return et.EmitterSettings[i]
		}
	}
	return model.InertEmitterSettings()
}

// ResolveEmitterSettings starts from the effect type's active emitter row and
// applies every override whose platform set is active, in order.
func (e *Evaluator) ResolveEmitterSettings(et *model.EffectType, overrides []model.EmitterOverride) model.EmitterScalabilitySettings {
	resolved := e.ActiveEmitterSettings(et)
	for _, o := range overrides {
		if !o.OverrideSpawnCountScale || !e.IsActive(o.Platforms) {
			continue
		}
		resolved.ScaleSpawnCount = o.ScaleSpawnCount
		resolved.SpawnCountScale = o.SpawnCountScale
	}
	return resolved
}
