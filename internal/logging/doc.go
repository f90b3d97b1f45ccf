// Package logging provides structured logging with per-module log levels.
//
// A Registry owns the loggers for one process. Build it once at startup
// and pass it to the components that need to log:
//
//	reg := logging.NewRegistry(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"service":   "debug",
//			"satellite": "warn",
//		},
//	})
//
//	logger := reg.Logger("service")
//	logger.Info("starting", "cage", name)
//
// Each logger fans out to whichever destinations are usable: stdout
// (text or json), the systemd journal when its socket is present, and a
// ring buffer that the HTTP API serves for log history.
//
// When running under systemd:
//
//	journalctl -t cagesvc           # all cagesvc logs
//	journalctl -t cagesvc -f        # follow live
//	journalctl -t cagesvc MODULE=service
//
// Per-module levels override the global level and can be changed at
// runtime with Registry.SetLevel.
package logging
