package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/fxscale/internal/db"
	"github.com/udisondev/fxscale/internal/scalability"
)

// maxBufferedRows bounds memory when the database falls behind; oldest rows are dropped.
const maxBufferedRows = 100_000

// statsBuffer collects manager update stats between flushes.
// Written by the tick goroutine, drained by the flusher.
type statsBuffer struct {
	mu      sync.Mutex
	rows    []db.StatsRow
	dropped int

	// totals since the last report
	culled  int
	resumed int
	ticks   int
}

// observe is the World observer. The stats slice is reused by the world.
func (b *statsBuffer) observe(stats []scalability.UpdateStats) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.ticks++
	for _, s := range stats {
		b.culled += s.Culled
		b.resumed += s.Resumed
	}

	b.rows = append(b.rows, statsRows(now, stats)...)
	if over := len(b.rows) - maxBufferedRows; over > 0 {
		b.rows = append(b.rows[:0], b.rows[over:]...)
		b.dropped += over
	}
}

// drain returns buffered rows and empties the buffer.
func (b *statsBuffer) drain() []db.StatsRow {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := b.rows
	b.rows = nil
	if b.dropped > 0 {
		slog.Warn("stats buffer overflow, rows dropped", "count", b.dropped)
		b.dropped = 0
	}
	return rows
}

// report returns and resets the transition totals.
func (b *statsBuffer) report() (ticks, culled, resumed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ticks, culled, resumed = b.ticks, b.culled, b.resumed
	b.ticks, b.culled, b.resumed = 0, 0, 0
	return ticks, culled, resumed
}

// statsRows converts full-pass update stats to database rows.
// newOnly passes are skipped: they only settle fresh registrations.
func statsRows(at time.Time, stats []scalability.UpdateStats) []db.StatsRow {
	rows := make([]db.StatsRow, 0, len(stats))
	for _, s := range stats {
		if s.NewOnly {
			continue
		}
		rows = append(rows, db.StatsRow{
			RecordedAt: at,
			EffectType: s.EffectType,
			Frame:      int64(s.Frame),
			Tracked:    int32(s.Tracked),
			Evaluated:  int32(s.Evaluated),
			Culled:     int32(s.Culled),
			Resumed:    int32(s.Resumed),
			Active:     int32(s.Active),
			Ranked:     s.Ranked,
			BudgetUse:  s.BudgetUse,
		})
	}
	return rows
}

// statsSink persists drained rows.
type statsSink interface {
	SaveBatch(ctx context.Context, rows []db.StatsRow) (int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// runStatsFlusher writes buffered stats every interval until ctx is cancelled,
// then flushes what is left. sink may be nil: stats are only reported.
func runStatsFlusher(ctx context.Context, buf *statsBuffer, sink statsSink, interval, retention time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("stats flusher: invalid interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastPrune time.Time
	for {
		select {
		case <-ctx.Done():
			// final flush with a fresh context, the run context is already done
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := flushStats(flushCtx, buf, sink)
			cancel()
			return err

		case now := <-ticker.C:
			ticks, culled, resumed := buf.report()
			slog.Info("scalability summary", "ticks", ticks, "culled", culled, "resumed", resumed)

			if err := flushStats(ctx, buf, sink); err != nil {
				slog.Error("failed to flush stats", "error", err)
			}

			if sink != nil && retention > 0 && now.Sub(lastPrune) >= time.Minute {
				lastPrune = now
				n, err := sink.DeleteBefore(ctx, now.Add(-retention))
				if err != nil {
					slog.Error("failed to prune stats", "error", err)
				} else if n > 0 {
					slog.Debug("stats pruned", "rows", n)
				}
			}
		}
	}
}

func flushStats(ctx context.Context, buf *statsBuffer, sink statsSink) error {
	rows := buf.drain()
	if sink == nil || len(rows) == 0 {
		return nil
	}
	n, err := sink.SaveBatch(ctx, rows)
	if err != nil {
		return fmt.Errorf("saving %d stats rows: %w", len(rows), err)
	}
	slog.Debug("stats flushed", "rows", n)
	return nil
}
