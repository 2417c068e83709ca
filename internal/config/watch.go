package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"
)

// Watcher calls a reload callback when the content of a file changes.
// Editors emit several events per save (truncate, write, rename); the callback
// runs only when the blake2b-256 digest of the content differs from the last one.
type Watcher struct {
	path     string
	onChange func(data []byte) error
	digest   [blake2b.Size256]byte
	primed   bool
}

// NewWatcher creates watcher for path. onChange errors are logged, the
// previous configuration stays in effect.
func NewWatcher(path string, onChange func(data []byte) error) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Run watches the file until ctx is cancelled.
// The current content is fingerprinted first and does not trigger a reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	// watch the directory: atomic saves replace the file inode
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if _, err := w.Check(); err != nil {
		slog.Warn("initial config read failed", "path", w.path, "error", err)
	}

	slog.Info("config watcher started", "path", w.path)

	name := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			slog.Info("config watcher stopping", "path", w.path)
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if _, err := w.Check(); err != nil {
				slog.Warn("config reload failed", "path", w.path, "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "path", w.path, "error", err)
		}
	}
}

// Check re-reads the file and calls onChange if its content changed since the
// last Check. The first Check only records the digest. Returns true if
// onChange was called.
func (w *Watcher) Check() (bool, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			// mid-rename, the Create event follows
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", w.path, err)
	}

	sum := blake2b.Sum256(data)
	if w.primed && sum == w.digest {
		return false, nil
	}

	first := !w.primed
	w.digest = sum
	w.primed = true
	if first {
		return false, nil
	}

	if err := w.onChange(data); err != nil {
		return true, fmt.Errorf("reloading %s: %w", w.path, err)
	}
	slog.Info("config reloaded", "path", w.path, "digest", fmt.Sprintf("%x", sum[:8]))
	return true, nil
}
