package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Check(t *testing.T) {
	path := filepath.Join(t.TempDir(), "effects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	var got []string
	w := NewWatcher(path, func(data []byte) error {
		got = append(got, string(data))
		return nil
	})

	changed, err := w.Check()
	require.NoError(t, err)
	assert.False(t, changed, "first check only fingerprints")

	changed, err = w.Check()
	require.NoError(t, err)
	assert.False(t, changed, "same content")

	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	changed, err = w.Check()
	require.NoError(t, err)
	assert.True(t, changed)

	// rewriting identical bytes is not a change
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	changed, err = w.Check()
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, []string{"a: 2\n"}, got)
}

func TestWatcher_CheckCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "effects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	w := NewWatcher(path, func([]byte) error { return errors.New("bad catalog") })
	_, err := w.Check()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a: 3\n"), 0o644))
	changed, err := w.Check()
	assert.True(t, changed)
	assert.ErrorContains(t, err, "bad catalog")
}

func TestWatcher_CheckMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "gone.yaml"), func([]byte) error { return nil })
	changed, err := w.Check()
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "effects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	var last atomic.Pointer[string]
	w := NewWatcher(path, func(data []byte) error {
		s := string(data)
		last.Store(&s)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))

	// truncate and write may arrive as separate events, the last reload wins
	assert.Eventually(t, func() bool {
		p := last.Load()
		return p != nil && *p == "a: 2\n"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
