package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/watcher"
	"go.trai.ch/stagehand/internal/core/ports"
)

func nextEvent(t *testing.T, w *watcher.Watcher) ports.WatchEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for ev := range w.Events(ctx) {
		return ev
	}
	t.Fatal("no watch event before timeout")
	return ports.WatchEvent{}
}

func TestWatcher_ReportsWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "ms3_vehicle.launch.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("nodes: []\n"), 0o600))

	w, err := watcher.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Watch(watched, watched))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("nodes: []\nincludes: []\n"), 0o600))

	ev := nextEvent(t, w)
	assert.Equal(t, watched, ev.Path)
	assert.Equal(t, ports.OpWrite, ev.Operation)
}

func TestWatcher_RemovedFile(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(watched, nil, 0o600))

	w, err := watcher.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch(watched))

	require.NoError(t, os.Remove(watched))

	ev := nextEvent(t, w)
	assert.Equal(t, watched, ev.Path)
	assert.Equal(t, ports.OpRemove, ev.Operation)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := watcher.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	err = w.Watch(filepath.Join(t.TempDir(), "missing", "a.yaml"))
	require.Error(t, err)
}

func TestWatcher_EventsEndOnCancel(t *testing.T) {
	w, err := watcher.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range w.Events(ctx) {
		t.Fatal("unexpected event")
	}
}
