package significance

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/testutil"
)

func instances(distances ...float32) []model.EffectInstance {
	out := make([]model.EffectInstance, len(distances))
	for i, d := range distances {
		out[i] = testutil.NewFakeInstance("fx", "sys", d)
	}
	return out
}

func TestDistance_CloserIsMoreSignificant(t *testing.T) {
	insts := instances(10, 20, 30)
	state := make([]model.ScalabilityState, 3)

	out := Distance{}.CalculateSignificance(insts, state, nil)

	assert.Equal(t, []int{0, 1, 2}, out)
	assert.InDelta(t, 0.1, state[0].Significance, 1e-6)
	assert.Greater(t, state[0].Significance, state[1].Significance)
	assert.Greater(t, state[1].Significance, state[2].Significance)
}

func TestDistance_ZeroDistanceIsFinite(t *testing.T) {
	insts := instances(0, 5)
	state := make([]model.ScalabilityState, 2)

	Distance{}.CalculateSignificance(insts, state, nil)

	assert.False(t, math32.IsInf(state[0].Significance, 0))
	assert.Equal(t, 1/MinDenominator, state[0].Significance)
	assert.Greater(t, state[0].Significance, state[1].Significance)
}

func TestDistance_CulledScoresZero(t *testing.T) {
	insts := instances(10, 20, 30)
	state := []model.ScalabilityState{
		{Culled: true, Significance: 5},              // culled, stable
		{Culled: true, Dirty: true, Significance: 5}, // just transitioned
		{},
	}

	out := Distance{}.CalculateSignificance(insts, state, nil)

	assert.Equal(t, []int{1, 2}, out, "stable culled instance must not be ranked")
	assert.Zero(t, state[0].Significance)
	assert.Zero(t, state[1].Significance)
	assert.NotZero(t, state[2].Significance)
}

func TestAge_YoungerIsMoreSignificant(t *testing.T) {
	a := testutil.NewFakeInstance("fx", "sys", 100)
	a.AgeSec = 0.5
	b := testutil.NewFakeInstance("fx", "sys", 1)
	b.AgeSec = 10
	c := testutil.NewFakeInstance("fx", "sys", 1)
	c.AgeSec = 0

	state := make([]model.ScalabilityState, 3)
	out := Age{}.CalculateSignificance([]model.EffectInstance{a, b, c}, state, nil)

	require.Len(t, out, 3)
	assert.Greater(t, state[0].Significance, state[1].Significance)
	assert.Equal(t, 1/MinDenominator, state[2].Significance)
}

func TestInverse(t *testing.T) {
	assert.Equal(t, float32(0.5), Inverse(2))
	assert.Equal(t, 1/MinDenominator, Inverse(0))
	assert.Zero(t, Inverse(-1))
	assert.Zero(t, Inverse(math32.NaN()))
	assert.Zero(t, Inverse(math32.Inf(1)))
}

func TestScoreFunc_SanitizesCustomScores(t *testing.T) {
	scores := []float32{math32.NaN(), math32.Inf(1), 3}
	i := 0
	h := ScoreFunc(func(model.EffectInstance) float32 {
		s := scores[i]
		i++
		return s
	})

	state := make([]model.ScalabilityState, 3)
	out := h.CalculateSignificance(instances(1, 2, 3), state, make([]int, 0, 3))

	assert.Len(t, out, 3)
	assert.Zero(t, state[0].Significance)
	assert.Equal(t, float32(math32.MaxFloat32), state[1].Significance)
	assert.Equal(t, float32(3), state[2].Significance)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	h, err := r.Lookup("Distance")
	require.NoError(t, err)
	assert.IsType(t, Distance{}, h)

	h, err = r.Lookup("")
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = r.Lookup("loudness")
	assert.ErrorIs(t, err, ErrUnknownHandler)

	r.Register("loudness", ScoreFunc(func(model.EffectInstance) float32 { return 1 }))
	assert.True(t, r.Has("LOUDNESS"))
	assert.Equal(t, []string{"age", "distance", "loudness"}, r.Names())
}
