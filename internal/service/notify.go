package service

import (
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports controller state to the hosting service manager.
type Notifier interface {
	Notify(state State, status string)
}

// SystemdNotifier reports state over the sd_notify socket of a Type=notify
// unit. Outside a unit the socket is absent and each call degrades to a
// no-op, which keeps `cagesvc run` usable from a plain shell.
type SystemdNotifier struct {
	logger *slog.Logger
}

// NewSystemdNotifier creates a notifier logging delivery problems to logger.
func NewSystemdNotifier(logger *slog.Logger) *SystemdNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemdNotifier{logger: logger}
}

// Notify sends the sd_notify message for state. Running maps to READY=1,
// StopPending to STOPPING=1; every state carries a STATUS= line.
func (n *SystemdNotifier) Notify(state State, status string) {
	lines := []string{"STATUS=" + status}
	switch state {
	case StateRunning:
		lines = append(lines, daemon.SdNotifyReady)
	case StateStopPending:
		lines = append(lines, daemon.SdNotifyStopping)
	}

	sent, err := daemon.SdNotify(false, strings.Join(lines, "\n"))
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	} else if !sent {
		n.logger.Debug("sd_notify socket not available", "state", state)
	}
}
