package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Registry owns all module loggers and the shared log ring buffer.
// Callers hand it around explicitly instead of reaching for a process
// global, so tests can build isolated registries.
type Registry struct {
	mu        sync.RWMutex
	config    Config
	loggers   map[string]*slog.Logger
	levelVars map[string]*slog.LevelVar
	buffer    *RingBuffer
}

// NewRegistry builds a registry from the given configuration. Unknown
// level strings fall back to info.
func NewRegistry(config Config) *Registry {
	return &Registry{
		config:    config,
		loggers:   make(map[string]*slog.Logger),
		levelVars: make(map[string]*slog.LevelVar),
		buffer:    NewRingBuffer(defaultBufferSize),
	}
}

// Buffer returns the ring buffer holding recent log entries.
func (r *Registry) Buffer() *RingBuffer {
	return r.buffer
}

// Logger returns a logger for the specified module, creating it if needed.
func (r *Registry) Logger(module string) *slog.Logger {
	r.mu.RLock()
	if logger, exists := r.loggers[module]; exists {
		r.mu.RUnlock()
		return logger
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check in case another goroutine created it
	if logger, exists := r.loggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(r.moduleLevel(module))

	logger := slog.New(r.buildHandler(levelVar)).With("module", module)
	r.loggers[module] = logger
	r.levelVars[module] = levelVar
	return logger
}

// SetLevel changes a module's log level at runtime. It takes effect
// immediately for loggers already handed out.
func (r *Registry) SetLevel(module, level string) {
	parsed := parseLevel(level)
	if parsed == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if levelVar, exists := r.levelVars[module]; exists {
		levelVar.Set(*parsed)
		return
	}
	if r.config.Modules == nil {
		r.config.Modules = make(map[string]string)
	}
	r.config.Modules[module] = level
}

// moduleLevel resolves the initial level for a module: per-module
// override first, then the global level, then info. Callers hold r.mu.
func (r *Registry) moduleLevel(module string) slog.Level {
	if levelStr, exists := r.config.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			return *parsed
		}
	}
	if parsed := parseLevel(r.config.Level); parsed != nil {
		return *parsed
	}
	return slog.LevelInfo
}

// buildHandler assembles the handler chain for one module: stdout
// text/json when stdout is usable, journald when the socket exists, and
// always the ring buffer.
func (r *Registry) buildHandler(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if r.config.Format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewBufferHandler(r.buffer, level))

	switch len(handlers) {
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable checks if stdout is connected to a terminal, pipe,
// socket, or regular file. It reports false for /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel converts a string level to slog.Level, nil when unknown.
func parseLevel(level string) *slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		l := slog.LevelDebug
		return &l
	case "info":
		l := slog.LevelInfo
		return &l
	case "warn", "warning":
		l := slog.LevelWarn
		return &l
	case "error":
		l := slog.LevelError
		return &l
	default:
		return nil
	}
}
