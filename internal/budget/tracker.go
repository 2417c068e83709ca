// Package budget tracks how much of the per-frame effects time budget is used.
package budget

import (
	"slices"
	"sync"
	"time"
)

// Default tracks reported by the effects runtime.
const (
	TrackGameThread   = "game_thread"
	TrackRenderThread = "render_thread"
)

// Tracker accumulates effects work time per track and frame, and reports usage
// as a fraction of the frame budget averaged over a rolling window of frames.
// Safe for concurrent use: work may be reported from worker goroutines.
type Tracker struct {
	mu     sync.Mutex
	budget time.Duration
	window int
	tracks map[string]*track
}

type track struct {
	pending time.Duration   // work reported for the frame in progress
	samples []time.Duration // ring buffer of completed frames
	next    int
	filled  int
	sum     time.Duration
}

// NewTracker creates tracker for a frame budget averaged over window frames.
// A zero budget disables tracking: usage is always 0.
func NewTracker(budget time.Duration, window int) *Tracker {
	if window < 1 {
		window = 1
	}
	return &Tracker{
		budget: budget,
		window: window,
		tracks: make(map[string]*track),
	}
}

// Add reports work done on a track during the current frame.
func (t *Tracker) Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(name).pending += d
}

// Scope starts timing work on a track; call the returned func when done.
//
//	defer tracker.Scope(budget.TrackGameThread)()
func (t *Tracker) Scope(name string) func() {
	start := time.Now()
	return func() {
		t.Add(name, time.Since(start))
	}
}

// EndFrame commits pending work of every track into its window.
func (t *Tracker) EndFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tr := range t.tracks {
		if tr.filled == len(tr.samples) {
			tr.sum -= tr.samples[tr.next]
		} else {
			tr.filled++
		}
		tr.samples[tr.next] = tr.pending
		tr.sum += tr.pending
		tr.next = (tr.next + 1) % len(tr.samples)
		tr.pending = 0
	}
}

// Usage returns average work per frame of a track as a fraction of the budget.
func (t *Tracker) Usage(name string) float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.tracks[name]
	if !ok {
		return 0
	}
	return t.usage(tr)
}

// WorstAdjustedUsage returns the highest usage across all tracks.
func (t *Tracker) WorstAdjustedUsage() float32 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var worst float32
	for _, tr := range t.tracks {
		worst = max(worst, t.usage(tr))
	}
	return worst
}

// Tracks returns names of known tracks, sorted.
func (t *Tracker) Tracks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.tracks))
	for name := range t.tracks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset drops every sample.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.tracks)
}

func (t *Tracker) get(name string) *track {
	tr, ok := t.tracks[name]
	if !ok {
		tr = &track{samples: make([]time.Duration, t.window)}
		t.tracks[name] = tr
	}
	return tr
}

func (t *Tracker) usage(tr *track) float32 {
	if t.budget <= 0 || tr.filled == 0 {
		return 0
	}
	avg := tr.sum / time.Duration(tr.filled)
	return float32(float64(avg) / float64(t.budget))
}
