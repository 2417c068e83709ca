package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFrequency_Interval(t *testing.T) {
	tests := []struct {
		freq UpdateFrequency
		want time.Duration
	}{
		{UpdateSpawnOnly, -1},
		{UpdateLow, time.Second},
		{UpdateMedium, 500 * time.Millisecond},
		{UpdateHigh, 250 * time.Millisecond},
		{UpdateContinuous, 0},
	}

	for _, tt := range tests {
		t.Run(tt.freq.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.freq.Interval())
		})
	}
}

func TestUpdateFrequency_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    UpdateFrequency
		wantErr bool
	}{
		{in: "spawn_only", want: UpdateSpawnOnly},
		{in: "SpawnOnly", want: UpdateSpawnOnly},
		{in: "spawn-only", want: UpdateSpawnOnly},
		{in: " low ", want: UpdateLow},
		{in: "Medium", want: UpdateMedium},
		{in: "HIGH", want: UpdateHigh},
		{in: "continuous", want: UpdateContinuous},
		{in: "sometimes", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f UpdateFrequency
			err := f.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestOverflowReaction(t *testing.T) {
	tests := []struct {
		reaction  OverflowReaction
		text      string
		resumable bool
		immediate bool
	}{
		{ReactionDeactivate, "DEACTIVATE", false, false},
		{ReactionDeactivateImmediate, "DEACTIVATE_IMMEDIATE", false, true},
		{ReactionDeactivateResume, "DEACTIVATE_RESUME", true, false},
		{ReactionDeactivateImmediateResume, "DEACTIVATE_IMMEDIATE_RESUME", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.resumable, tt.reaction.Resumable())
			assert.Equal(t, tt.immediate, tt.reaction.Immediate())

			text, err := tt.reaction.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.text, string(text))

			var got OverflowReaction
			require.NoError(t, got.UnmarshalText([]byte("deactivate immediate resume")))
			assert.Equal(t, ReactionDeactivateImmediateResume, got)
		})
	}

	var r OverflowReaction
	assert.Error(t, r.UnmarshalText([]byte("explode")))
	assert.Equal(t, "UNKNOWN", OverflowReaction(42).String())
}
