package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Usage(t *testing.T) {
	tr := NewTracker(2*time.Millisecond, 4)

	tr.Add(TrackGameThread, time.Millisecond)
	assert.Zero(t, tr.Usage(TrackGameThread), "pending work is not counted before EndFrame")

	tr.EndFrame()
	assert.InDelta(t, 0.5, tr.Usage(TrackGameThread), 1e-6)

	tr.Add(TrackGameThread, 3*time.Millisecond)
	tr.EndFrame()
	assert.InDelta(t, 1.0, tr.Usage(TrackGameThread), 1e-6)
}

func TestTracker_RollingWindow(t *testing.T) {
	tr := NewTracker(time.Millisecond, 2)

	tr.Add(TrackGameThread, 4*time.Millisecond)
	tr.EndFrame()
	tr.EndFrame()
	tr.EndFrame()

	// оба кадра в окне пустые
	assert.Zero(t, tr.Usage(TrackGameThread))
}

func TestTracker_WorstAdjustedUsage(t *testing.T) {
	tr := NewTracker(time.Millisecond, 8)

	tr.Add(TrackGameThread, 500*time.Microsecond)
	tr.Add(TrackRenderThread, 1500*time.Microsecond)
	tr.EndFrame()

	assert.InDelta(t, 1.5, tr.WorstAdjustedUsage(), 1e-6)
	assert.Equal(t, []string{TrackGameThread, TrackRenderThread}, tr.Tracks())
}

func TestTracker_DisabledBudget(t *testing.T) {
	tr := NewTracker(0, 8)
	tr.Add(TrackGameThread, time.Second)
	tr.EndFrame()

	assert.Zero(t, tr.WorstAdjustedUsage())

	var nilTracker *Tracker
	assert.Zero(t, nilTracker.WorstAdjustedUsage())
}

func TestTracker_Scope(t *testing.T) {
	tr := NewTracker(time.Hour, 1)

	done := tr.Scope(TrackGameThread)
	time.Sleep(time.Millisecond)
	done()
	tr.EndFrame()

	assert.Greater(t, tr.Usage(TrackGameThread), float32(0))
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(time.Millisecond, 2)
	tr.Add(TrackGameThread, time.Millisecond)
	tr.EndFrame()

	tr.Reset()

	assert.Zero(t, tr.WorstAdjustedUsage())
	assert.Empty(t, tr.Tracks())
}
