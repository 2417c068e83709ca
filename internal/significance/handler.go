// Package significance ranks tracked effect instances for count-budget eviction.
package significance

import (
	"github.com/chewxy/math32"

	"github.com/udisondev/fxscale/internal/model"
)

// MinDenominator clamps zero distances and ages so scores stay finite.
// 1/MinDenominator is the largest score a built-in handler produces.
const MinDenominator float32 = 1e-4

// Handler assigns significance scores to tracked instances.
//
// CalculateSignificance writes state[i].Significance for every instance and
// appends to out the indices that take part in ranking: every instance that is
// not culled, plus culled instances whose Dirty flag is set. Culled instances get
// exactly 0. Implementations must not reorder or resize instances or state.
type Handler interface {
	CalculateSignificance(instances []model.EffectInstance, state []model.ScalabilityState, out []int) []int
}

// ScoreFunc scores a single non-culled instance. Higher is more significant.
type ScoreFunc func(inst model.EffectInstance) float32

// CalculateSignificance implements Handler for plain scoring functions,
// so hosts can supply custom variants without writing the bookkeeping.
func (f ScoreFunc) CalculateSignificance(instances []model.EffectInstance, state []model.ScalabilityState, out []int) []int {
	return score(instances, state, out, f)
}

func score(instances []model.EffectInstance, state []model.ScalabilityState, out []int, fn ScoreFunc) []int {
	n := min(len(instances), len(state))
	for i := range n {
		st := &state[i]
		rank := !st.Culled || st.Dirty

		if st.Culled {
			st.Significance = 0
		} else {
			st.Significance = sanitize(fn(instances[i]))
		}

		if rank {
			out = append(out, i)
		}
	}
	return out
}

// Inverse returns 1/v with v clamped to MinDenominator.
// NaN and negative inputs score 0, +Inf scores 0.
func Inverse(v float32) float32 {
	if math32.IsNaN(v) || v < 0 {
		return 0
	}
	if v < MinDenominator {
		v = MinDenominator
	}
	return 1 / v
}

// sanitize keeps custom scores inside a total order: NaN becomes 0,
// infinities are clamped to the float32 range.
func sanitize(s float32) float32 {
	switch {
	case math32.IsNaN(s):
		return 0
	case math32.IsInf(s, 1):
		return math32.MaxFloat32
	case math32.IsInf(s, -1):
		return -math32.MaxFloat32
	default:
		return s
	}
}
