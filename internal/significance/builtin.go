package significance

import "github.com/udisondev/fxscale/internal/model"

// Distance ranks closer instances higher: significance = 1 / distance to nearest viewer.
type Distance struct{}

// CalculateSignificance implements Handler.
func (Distance) CalculateSignificance(instances []model.EffectInstance, state []model.ScalabilityState, out []int) []int {
	return score(instances, state, out, func(inst model.EffectInstance) float32 {
		return Inverse(inst.DistanceToViewer())
	})
}

// Age ranks younger instances higher: significance = 1 / age.
type Age struct{}

// CalculateSignificance implements Handler.
func (Age) CalculateSignificance(instances []model.EffectInstance, state []model.ScalabilityState, out []int) []int {
	return score(instances, state, out, func(inst model.EffectInstance) float32 {
		return Inverse(inst.Age())
	})
}
