package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestModuleLevelOverride(t *testing.T) {
	reg := NewRegistry(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"satellite": "debug",
			"api":       "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"satellite", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := reg.Logger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestSetLevelTakesEffect(t *testing.T) {
	reg := NewRegistry(Config{Level: "info"})

	logger := reg.Logger("service")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	reg.SetLevel("service", "debug")
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
}

func TestSetLevelBeforeFirstUse(t *testing.T) {
	reg := NewRegistry(Config{Level: "info"})

	reg.SetLevel("late", "error")
	handler := reg.Logger("late").Handler()

	if handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled for module set to error before first use")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled")
	}
}

func TestLoggerIsCached(t *testing.T) {
	reg := NewRegistry(Config{Level: "info"})

	if reg.Logger("service") != reg.Logger("service") {
		t.Error("expected the same logger instance for repeated lookups")
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := range 5 {
		rb.Write(Entry{Message: fmt.Sprintf("msg-%d", i), Timestamp: time.Now()})
	}

	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"msg-2", "msg-3", "msg-4"}
	for i, w := range want {
		if entries[i].Message != w {
			t.Errorf("entry %d: got %q, want %q", i, entries[i].Message, w)
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(4)
	if got := rb.ReadAll(); got != nil {
		t.Errorf("expected nil from empty buffer, got %v", got)
	}
	if rb.Len() != 0 {
		t.Errorf("expected length 0, got %d", rb.Len())
	}
}

func TestBufferHandlerRecordsEntries(t *testing.T) {
	rb := NewRingBuffer(10)
	levelVar := &slog.LevelVar{}
	logger := slog.New(NewBufferHandler(rb, levelVar)).With("module", "service")

	logger.Info("satellite started", "pid", 42)
	logger.Warn("slow stop", slog.Group("timing", "elapsed", 5*time.Second))

	entries := rb.ReadAll()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Module != "service" {
		t.Errorf("module = %q, want %q", first.Module, "service")
	}
	if first.Level != "info" {
		t.Errorf("level = %q, want %q", first.Level, "info")
	}
	if first.Message != "satellite started" {
		t.Errorf("message = %q", first.Message)
	}
	if got := first.Attributes["pid"]; got != int64(42) {
		t.Errorf("pid attribute = %v (%T), want 42", got, got)
	}

	second := entries[1]
	if second.Level != "warn" {
		t.Errorf("level = %q, want %q", second.Level, "warn")
	}
	if got := second.Attributes["timing.elapsed"]; got != "5s" {
		t.Errorf("grouped attribute = %v, want 5s", got)
	}
}
