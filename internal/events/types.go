package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeSatelliteStarted
	TypeSatelliteExited
	TypeConfigStale
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent marks a controller state transition.
type StateChangedEvent struct {
	Cage      string `json:"cage" example:"mycage" doc:"Cage name"`
	OldState  string `json:"old_state" example:"start-pending" doc:"State before the transition"`
	NewState  string `json:"new_state" example:"running" doc:"State after the transition"`
	Timestamp string `json:"timestamp" example:"2026-08-31T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// SatelliteStartedEvent marks a successful satellite spawn.
type SatelliteStartedEvent struct {
	Cage      string `json:"cage" example:"mycage" doc:"Cage name"`
	PID       int    `json:"pid" example:"4321" doc:"Child process id"`
	Command   string `json:"command" doc:"Command line the child was spawned with"`
	Timestamp string `json:"timestamp" example:"2026-08-31T10:30:00Z" doc:"Spawn timestamp"`
}

// Type returns the event type identifier for SatelliteStartedEvent.
func (e SatelliteStartedEvent) Type() uint32 { return TypeSatelliteStarted }

// SatelliteExitedEvent marks the end of a satellite's life, whether it
// exited on its own or was terminated after the wait budget.
type SatelliteExitedEvent struct {
	Cage       string `json:"cage" example:"mycage" doc:"Cage name"`
	ExitCode   int    `json:"exit_code" example:"0" doc:"Child exit code"`
	Terminated bool   `json:"terminated" example:"false" doc:"True when the child was killed after the wait budget"`
	Timestamp  string `json:"timestamp" example:"2026-08-31T10:30:00Z" doc:"Exit timestamp"`
}

// Type returns the event type identifier for SatelliteExitedEvent.
func (e SatelliteExitedEvent) Type() uint32 { return TypeSatelliteExited }

// ConfigStaleEvent marks an on-disk configuration change that the running
// cage has not picked up. The service never restarts the child on its own.
type ConfigStaleEvent struct {
	Path      string `json:"path" example:"/etc/cagesvc/config.toml" doc:"Changed file"`
	Timestamp string `json:"timestamp" example:"2026-08-31T10:30:00Z" doc:"Change timestamp"`
}

// Type returns the event type identifier for ConfigStaleEvent.
func (e ConfigStaleEvent) Type() uint32 { return TypeConfigStale }
