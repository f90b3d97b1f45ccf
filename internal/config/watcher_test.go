package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/cagesvc/internal/events"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherMarksStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nport = 8090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := events.New()
	received := make(chan events.ConfigStaleEvent, 1)
	defer bus.Subscribe(func(e events.ConfigStaleEvent) {
		select {
		case received <- e:
		default:
		}
	})()

	w := NewWatcher(path, bus, discard(), WithDebounce(50*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if w.Stale() {
		t.Fatal("watcher should not start stale")
	}

	if err := os.WriteFile(path, []byte("[api]\nport = 9100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, w.Stale) {
		t.Fatal("watcher did not mark config stale")
	}

	select {
	case e := <-received:
		if e.Path != path {
			t.Errorf("event path = %q, want %q", e.Path, path)
		}
	case <-time.After(2 * time.Second):
		t.Error("no ConfigStaleEvent published")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, nil, discard(), WithDebounce(100*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Several writes inside the debounce window collapse to one change.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, w.Stale) {
		t.Fatal("watcher did not mark config stale")
	}
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing.toml"), nil, discard())
	if err := w.Start(); err == nil {
		w.Stop()
		t.Error("expected error watching a missing file")
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	w := NewWatcher("whatever", nil, discard())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop before Start returned error: %v", err)
	}
}
