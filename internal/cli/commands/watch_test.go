package commands

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/internal/testutil"
)

func TestDebounceLoop_CoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	fired := make(chan struct{}, 4)
	var calls atomic.Int32

	match := func(ev fsnotify.Event) bool { return ev.Name == "data.csv" }
	fn := func() {
		calls.Add(1)
		fired <- struct{}{}
	}

	done := make(chan struct{})
	go func() {
		debounceLoop(ctx, events, errs, match, 30*time.Millisecond, fn, testutil.NewTestLogger(t))
		close(done)
	}()

	for i := 0; i < 3; i++ {
		events <- fsnotify.Event{Name: "data.csv", Op: fsnotify.Write}
	}
	events <- fsnotify.Event{Name: "other.txt", Op: fsnotify.Write}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function was not called")
	}

	// No further calls arrive without new events.
	select {
	case <-fired:
		t.Fatal("unexpected second call")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, int32(1), calls.Load())

	errs <- assert.AnError

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestDebounceLoop_StopsOnClosedChannel(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	close(events)

	done := make(chan struct{})
	go func() {
		debounceLoop(context.Background(), events, errs, func(fsnotify.Event) bool { return true },
			time.Millisecond, func() {}, testutil.NewTestLogger(t))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after events closed")
	}
}

func TestWatchedFiles(t *testing.T) {
	t.Run("stdin table is rejected", func(t *testing.T) {
		cc := &CommandContext{Cfg: getConfig()}
		cc.Cfg.Table = "-"
		_, err := watchedFiles(cc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not stdin")
	})

	t.Run("table and combo file", func(t *testing.T) {
		dir := t.TempDir()
		cfg := getConfig()
		cfg.Table = dir + "/data.csv"
		cfg.ComboFile = dir + "/programs.txt"

		files, err := watchedFiles(&CommandContext{Cfg: cfg})
		require.NoError(t, err)
		assert.Equal(t, []string{dir + "/data.csv", dir + "/programs.txt"}, files)
	})

	t.Run("remote source watches only the combo file", func(t *testing.T) {
		cfg := getConfig()
		cfg.Source.Type = "postgres"
		_, err := watchedFiles(&CommandContext{Cfg: cfg})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to watch")
	})
}
