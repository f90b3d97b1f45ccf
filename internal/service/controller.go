// Package service contains the control state machine that maps external
// start/stop directives onto the lifecycle of a single satellite process,
// and the notifier that reports each transition to the hosting service
// manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/cagesvc/internal/events"
	"github.com/smazurov/cagesvc/internal/metrics"
	"github.com/smazurov/cagesvc/internal/satellite"
)

// State is the controller's externally visible lifecycle state.
type State string

// The only reachable sequence is
// Stopped -> StartPending -> Running -> StopPending -> Stopped.
const (
	StateStopped      State = "stopped"
	StateStartPending State = "start-pending"
	StateRunning      State = "running"
	StateStopPending  State = "stop-pending"
)

const (
	// DefaultSettleDelay is the warm-up pause before the satellite is
	// spawned and the settling pause after it is torn down, giving
	// cooperating resources time to come up and OS teardown time to finish.
	DefaultSettleDelay = 7 * time.Second

	// DefaultStopBudget is how long a stop waits for the satellite to exit
	// on its own before killing it.
	DefaultStopBudget = 5 * time.Second
)

// ErrNotRunning is returned by Write when no satellite is owned.
var ErrNotRunning = errors.New("no satellite process is running")

// Options configures a Controller.
type Options struct {
	// Cage is the logical service name.
	Cage string

	// CommandLine describes the satellite child.
	CommandLine string

	// SettleDelay overrides DefaultSettleDelay (tests use short values).
	SettleDelay time.Duration

	// StopBudget overrides DefaultStopBudget.
	StopBudget time.Duration

	// LegacyExitCodes selects the historical zero-on-termination policy.
	LegacyExitCodes bool

	// Notifier reports transitions to the service manager. Optional.
	Notifier Notifier

	// Bus receives lifecycle events. Optional.
	Bus *events.Bus

	// Metrics receives state and pipe traffic updates. Optional.
	Metrics *metrics.Metrics

	// Logger for controller operations. If nil, uses slog.Default().
	Logger *slog.Logger

	// SatelliteLogger receives the child's own output lines. If nil, uses
	// Logger.
	SatelliteLogger *slog.Logger
}

// Controller owns at most one satellite process and drives it through the
// linear lifecycle. The satellite is only ever touched by the goroutine
// inside Run; asynchronous stop directives are delivered as messages via
// RequestStop.
type Controller struct {
	opts Options

	stopCh chan struct{}
	pumps  sync.WaitGroup

	mu        sync.Mutex
	state     State
	sat       *satellite.Satellite
	startedAt time.Time
}

// Info is a point-in-time snapshot of the controller for the status API.
type Info struct {
	Cage      string    `json:"cage"`
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// New creates a controller in the Stopped state.
func New(opts Options) *Controller {
	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.StopBudget == 0 {
		opts.StopBudget = DefaultStopBudget
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SatelliteLogger == nil {
		opts.SatelliteLogger = opts.Logger
	}
	return &Controller{
		opts:   opts,
		stopCh: make(chan struct{}, 1),
		state:  StateStopped,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Info returns a snapshot for status reporting.
func (c *Controller) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := Info{
		Cage:    c.opts.Cage,
		State:   c.state,
		Command: c.opts.CommandLine,
	}
	if c.sat != nil {
		info.PID = c.sat.PID()
		info.StartedAt = c.startedAt
	}
	return info
}

// RequestStop delivers an asynchronous stop directive. Safe from any
// goroutine; a request arriving when the controller is already stopped, or
// a duplicate of a pending request, is a no-op.
func (c *Controller) RequestStop() {
	select {
	case c.stopCh <- struct{}{}:
	default:
	}
}

// Run drives the full lifecycle on the calling goroutine: warm-up delay,
// satellite spawn, Running until a stop directive or context cancellation
// arrives, teardown, settle delay, terminal Stopped. It returns once the
// Stopped state has been reported, or with the spawn error when start
// fails (the controller reports Stopped on that path too).
func (c *Controller) Run(ctx context.Context) error {
	c.transitionTo(StateStartPending, "starting cage "+c.opts.Cage)
	time.Sleep(c.opts.SettleDelay)

	sat, err := satellite.Start(c.opts.CommandLine, c.satelliteOptions()...)
	if err != nil {
		c.opts.Logger.Error("Failed to start satellite", "cage", c.opts.Cage, "error", err)
		c.transitionTo(StateStopped, "cage "+c.opts.Cage+" failed to start")
		return err
	}

	c.mu.Lock()
	c.sat = sat
	c.startedAt = time.Now()
	c.mu.Unlock()

	if c.opts.Metrics != nil {
		c.opts.Metrics.SetSatelliteStart(float64(time.Now().Unix()))
	}
	c.publish(events.SatelliteStartedEvent{
		Cage:      c.opts.Cage,
		PID:       sat.PID(),
		Command:   c.opts.CommandLine,
		Timestamp: timestamp(),
	})

	c.pumps.Add(2)
	go c.pumpOutput(sat.Read, "stdout")
	go c.pumpOutput(sat.ReadErr, "stderr")

	c.transitionTo(StateRunning, fmt.Sprintf("cage %s running, pid %d", c.opts.Cage, sat.PID()))

	// No active work while running; hold the thread until a control signal.
	select {
	case <-ctx.Done():
	case <-c.stopCh:
	}

	c.shutdown(sat)
	return nil
}

// shutdown performs the stop transition: destroy the satellite
// (wait-then-terminate), drain the output pumps, settle, then report the
// terminal Stopped state. The report happens strictly after cleanup so no
// further control signal can race it.
func (c *Controller) shutdown(sat *satellite.Satellite) {
	c.transitionTo(StateStopPending, "stopping cage "+c.opts.Cage)

	res := sat.Close()
	c.pumps.Wait()

	c.mu.Lock()
	c.sat = nil
	c.mu.Unlock()

	c.publish(events.SatelliteExitedEvent{
		Cage:       c.opts.Cage,
		ExitCode:   res.Code,
		Terminated: res.Terminated,
		Timestamp:  timestamp(),
	})

	time.Sleep(c.opts.SettleDelay)
	c.transitionTo(StateStopped, "cage "+c.opts.Cage+" stopped")
}

// Write forwards data to the running satellite's stdin, subject to the
// satellite's truncation rule.
func (c *Controller) Write(data []byte) (int, error) {
	c.mu.Lock()
	sat := c.sat
	c.mu.Unlock()
	if sat == nil {
		return 0, ErrNotRunning
	}
	n, err := sat.Write(data)
	if err == nil && c.opts.Metrics != nil {
		c.opts.Metrics.AddBytesWritten(n)
	}
	return n, err
}

func (c *Controller) satelliteOptions() []satellite.Option {
	opts := []satellite.Option{
		satellite.WithDestructorWait(c.opts.StopBudget),
		satellite.WithLogger(c.opts.Logger),
	}
	if c.opts.LegacyExitCodes {
		opts = append(opts, satellite.WithLegacyExitCodes())
	}
	return opts
}

func (c *Controller) transitionTo(state State, status string) {
	c.mu.Lock()
	old := c.state
	c.state = state
	c.mu.Unlock()

	c.opts.Logger.Info("Controller state changed", "cage", c.opts.Cage, "from", old, "to", state)
	if c.opts.Metrics != nil {
		c.opts.Metrics.SetState(string(state))
	}
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(state, status)
	}
	c.publish(events.StateChangedEvent{
		Cage:      c.opts.Cage,
		OldState:  string(old),
		NewState:  string(state),
		Timestamp: timestamp(),
	})
}

func (c *Controller) publish(ev events.Event) {
	if c.opts.Bus != nil {
		c.opts.Bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
