package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/watcher"
)

func TestDebouncer_SinglePath(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/ws/launch/ms3_vehicle.launch.yaml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/ws/launch/ms3_vehicle.launch.yaml"}, calls[0])
	})
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/ws/b.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/ws/a.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/ws/b.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/ws/a.yaml", "/ws/b.yaml"}, calls[0])
	})
}

func TestDebouncer_SeparateWindows(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		var calls [][]string
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, paths)
		})

		d.Add("/ws/a.yaml")
		time.Sleep(150 * time.Millisecond)
		d.Add("/ws/b.yaml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, [][]string{{"/ws/a.yaml"}, {"/ws/b.yaml"}}, calls)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(time.Second, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/ws/a.yaml")
		d.Flush()
		require.Len(t, calls, 1)

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Len(t, calls, 1)

		d.Flush()
		assert.Len(t, calls, 1)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		called := false
		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) { called = true })

		d.Add("/ws/a.yaml")
		d.Stop()
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		assert.False(t, called)
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Add("/ws/a.yaml")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
