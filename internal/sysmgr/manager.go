// Package sysmgr registers cages with the OS service manager. Each cage
// becomes one systemd unit whose ExecStart re-invokes this binary with the
// run verb; install, remove and the start/stop/status passthroughs talk to
// systemd over D-Bus.
package sysmgr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager handles cage service lifecycle operations via D-Bus.
type Manager struct {
	conn    *dbus.Conn
	unitDir string
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithUnitDir overrides where unit files are written (tests use a temp dir).
func WithUnitDir(dir string) Option {
	return func(m *Manager) {
		m.unitDir = dir
	}
}

// NewManager creates a manager with a system-level D-Bus connection.
func NewManager(ctx context.Context, logger *slog.Logger, opts ...Option) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{conn: conn, unitDir: DefaultUnitDir, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Install registers a cage: renders its unit file, reloads the daemon and
// enables the unit for boot. Installing an already-installed cage leaves
// the existing registration untouched.
func (m *Manager) Install(ctx context.Context, cage, binary string, command []string) error {
	path := filepath.Join(m.unitDir, UnitName(cage))
	if _, err := os.Stat(path); err == nil {
		m.logger.Info("Cage already installed", "cage", cage, "unit", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("inspect unit file: %w", err)
	}

	if err := os.WriteFile(path, []byte(renderUnit(cage, binary, command)), 0o644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{UnitName(cage)}, false, true); err != nil {
		return fmt.Errorf("enable unit: %w", err)
	}

	m.logger.Info("Cage installed", "cage", cage, "unit", path)
	return nil
}

// Remove unregisters a cage: stops the unit if it is running, disables it,
// deletes the unit file and reloads the daemon. Removing a cage that was
// never installed succeeds.
func (m *Manager) Remove(ctx context.Context, cage string) error {
	unit := UnitName(cage)

	// Best effort; the unit may not be loaded at all.
	if _, err := m.conn.StopUnitContext(ctx, unit, "replace", nil); err != nil {
		m.logger.Debug("Stop during remove", "cage", cage, "error", err)
	}
	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		m.logger.Debug("Disable during remove", "cage", cage, "error", err)
	}

	path := filepath.Join(m.unitDir, unit)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove unit file: %w", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}

	m.logger.Info("Cage removed", "cage", cage)
	return nil
}

// Status retrieves the ActiveState property of a cage's unit.
func (m *Manager) Status(ctx context.Context, cage string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, UnitName(cage), "ActiveState")
	if err != nil {
		return "", err
	}
	return prop.Value.Value().(string), nil
}

// Start starts a cage's unit using the replace mode.
func (m *Manager) Start(ctx context.Context, cage string) error {
	_, err := m.conn.StartUnitContext(ctx, UnitName(cage), "replace", nil)
	return err
}

// Stop stops a cage's unit using the replace mode.
func (m *Manager) Stop(ctx context.Context, cage string) error {
	_, err := m.conn.StopUnitContext(ctx, UnitName(cage), "replace", nil)
	return err
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
