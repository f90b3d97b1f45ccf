package satellite

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const (
	// readBufferSize caps the bytes a single Read/ReadErr returns.
	readBufferSize = 8192
	// writeBufferSize caps a single Write; longer payloads are truncated.
	writeBufferSize = 4096

	// DefaultWaitTimeout is the wait budget when the caller passes none.
	DefaultWaitTimeout = 60 * time.Second

	// killedExitCode is reported when the wait budget expired and the child
	// was killed (128 + SIGKILL).
	killedExitCode = 137

	// reapTimeout bounds the wait for the kernel to reap a killed child.
	reapTimeout = 5 * time.Second
)

// Result is the outcome of waiting for the satellite to complete.
type Result struct {
	// Code is the child's exit code. After a forced termination it is
	// killedExitCode, or 0 when the legacy exit-code policy is selected.
	Code int
	// Terminated reports that the wait budget expired and the child was
	// forcibly killed.
	Terminated bool
}

// Option configures a Satellite before it is started.
type Option func(*Satellite)

// WithDestructorWait sets how long Close waits for the child to exit on its
// own before killing it. Default 5s.
func WithDestructorWait(d time.Duration) Option {
	return func(s *Satellite) {
		s.destructorWait = d
	}
}

// WithLegacyExitCodes makes a forced termination resolve to exit code 0
// instead of 137, for deployments that treat a killed cage as a clean stop.
func WithLegacyExitCodes() Option {
	return func(s *Satellite) {
		s.legacyCodes = true
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Satellite) {
		s.logger = logger
	}
}

// Satellite owns one spawned cage child and the parent-side ends of its
// three standard stream pipes. Reads, writes and waits are fully
// synchronous. Close guarantees the child is no longer running.
type Satellite struct {
	commandLine string
	cmd         *exec.Cmd
	stdin       *os.File
	stdout      *os.File
	stderr      *os.File
	waitCh      chan error
	logger      *slog.Logger

	destructorWait time.Duration
	legacyCodes    bool

	mu        sync.Mutex
	completed bool
	result    Result
}

// Start spawns the child described by commandLine with its three standard
// streams bound to fresh pipe channels. The channels are released (previous
// standard stream bindings restored, child-facing ends closed) before Start
// returns, on the success and failure paths alike. A failed spawn is an
// error; no Satellite is constructed around a dead handle.
func Start(commandLine string, opts ...Option) (*Satellite, error) {
	args, err := splitCommandLine(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command line")
	}

	s := &Satellite{
		commandLine:    commandLine,
		destructorWait: 5 * time.Second,
		logger:         slog.Default(),
		waitCh:         make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	stdinCh, err := newPipeChannel(streamStdin)
	if err != nil {
		return nil, err
	}
	defer stdinCh.release()

	stdoutCh, err := newPipeChannel(streamStdout)
	if err != nil {
		stdinCh.parentEnd.Close()
		return nil, err
	}
	defer stdoutCh.release()

	stderrCh, err := newPipeChannel(streamStderr)
	if err != nil {
		stdinCh.parentEnd.Close()
		stdoutCh.parentEnd.Close()
		return nil, err
	}
	defer stderrCh.release()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = stdinCh.childEnd
	cmd.Stdout = stdoutCh.childEnd
	cmd.Stderr = stderrCh.childEnd
	// Own process group, the pipe equivalent of a detached console.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		stdinCh.parentEnd.Close()
		stdoutCh.parentEnd.Close()
		stderrCh.parentEnd.Close()
		return nil, fmt.Errorf("spawn cage process: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdinCh.parentEnd
	s.stdout = stdoutCh.parentEnd
	s.stderr = stderrCh.parentEnd

	s.logger.Info("Satellite process started", "pid", cmd.Process.Pid, "command", commandLine)

	go func() {
		s.waitCh <- cmd.Wait()
	}()

	return s, nil
}

// PID returns the child's process id.
func (s *Satellite) PID() int {
	return s.cmd.Process.Pid
}

// CommandLine returns the command line the child was spawned with.
func (s *Satellite) CommandLine() string {
	return s.commandLine
}

// Read blocks for the next chunk of the child's stdout, up to the read
// buffer cap. A closed or broken pipe is a zero-length read, not an error,
// so process-exit-induced closure looks the same as "nothing to read yet".
func (s *Satellite) Read() ([]byte, error) {
	return s.readFrom(s.stdout, "stdout")
}

// ReadErr is Read for the child's stderr.
func (s *Satellite) ReadErr() ([]byte, error) {
	return s.readFrom(s.stderr, "stderr")
}

func (s *Satellite) readFrom(f *os.File, source string) ([]byte, error) {
	buf := make([]byte, readBufferSize)
	n, err := f.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return nil, nil
	}
	return nil, fmt.Errorf("read cage %s: %w", source, err)
}

// Write sends data to the child's stdin. Payloads longer than the write
// buffer cap are truncated; the accepted byte count is returned and the
// remainder is dropped without error. A broken pipe (child already exited)
// is not an error either.
func (s *Satellite) Write(data []byte) (int, error) {
	if len(data) > writeBufferSize {
		data = data[:writeBufferSize]
	}
	n, err := s.stdin.Write(data)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			return n, nil
		}
		return n, fmt.Errorf("write cage stdin: %w", err)
	}
	return n, nil
}

// WaitForCompletion blocks until the child exits or timeout elapses, killing
// it on expiry. The first call decides the Result and caches it; later calls
// return the cache without touching the OS. A timeout <= 0 is an immediate
// check-and-kill; DefaultWaitTimeout is the conventional budget.
func (s *Satellite) WaitForCompletion(timeout time.Duration) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return s.result
	}

	var waitErr error
	terminated := false

	select {
	case waitErr = <-s.waitCh:
	default:
		select {
		case waitErr = <-s.waitCh:
		case <-time.After(timeout):
			terminated = true
			s.logger.Warn("Wait budget expired, killing satellite", "pid", s.cmd.Process.Pid, "timeout", timeout)
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Error("Failed to kill satellite", "error", err)
			}
			select {
			case waitErr = <-s.waitCh:
			case <-time.After(reapTimeout):
				s.logger.Error("Satellite did not exit after kill")
			}
		}
	}

	code := exitCodeFromError(waitErr)
	if terminated {
		if s.legacyCodes {
			code = 0
		} else {
			code = killedExitCode
		}
	}

	s.result = Result{Code: code, Terminated: terminated}
	s.completed = true
	s.logger.Info("Satellite completed", "exit_code", code, "terminated", terminated)
	return s.result
}

// Completed reports whether a wait sequence has already resolved.
func (s *Satellite) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Close tears the satellite down: if no wait has completed yet it runs
// WaitForCompletion with the destructor budget, then closes all parent pipe
// ends. No live child or open handle survives Close.
func (s *Satellite) Close() Result {
	res := s.WaitForCompletion(s.destructorWait)
	s.stdin.Close()
	s.stdout.Close()
	s.stderr.Close()
	return res
}

// exitCodeFromError extracts the exit code from the child's wait error:
// 0 for nil, the real code for ExitError, 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
