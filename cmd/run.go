// Package cmd holds the cagesvc subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/cagesvc/internal/api"
	"github.com/smazurov/cagesvc/internal/config"
	"github.com/smazurov/cagesvc/internal/events"
	"github.com/smazurov/cagesvc/internal/logging"
	"github.com/smazurov/cagesvc/internal/metrics"
	"github.com/smazurov/cagesvc/internal/satellite"
	"github.com/smazurov/cagesvc/internal/service"
	"github.com/spf13/cobra"
)

// runOptions is filled from flags, then config.Load layers in the TOML
// file and CAGESVC_* environment without clobbering explicit flags.
type runOptions struct {
	Config          string
	Port            string `toml:"api.port" env:"API_PORT"`
	SettleDelay     string `toml:"service.settle_delay" env:"SETTLE_DELAY"`
	StopTimeout     string `toml:"service.stop_timeout" env:"STOP_TIMEOUT"`
	LegacyExitCodes bool   `toml:"service.legacy_exit_codes" env:"LEGACY_EXIT_CODES"`
	LoggingLevel    string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `toml:"logging.format" env:"LOGGING_FORMAT"`
}

// CreateRunCmd creates the run command.
func CreateRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <cage> -- <command...>",
		Short: "Run a caged service in the foreground",
		Long: `Spawns the given command as a supervised child, relays its output to the ` +
			`log, reports lifecycle transitions to systemd, and serves a status API. ` +
			`Intended to be the ExecStart of a Type=notify unit, but runs the same way ` +
			`from a terminal.`,
		Args: cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cage, command, err := splitRunArgs(cmd, args)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			if loadErr := config.Load(&opts, cmd); loadErr != nil {
				fmt.Fprintln(os.Stderr, "failed to load config:", loadErr)
				os.Exit(1)
			}

			logCfg := config.Logging(opts.Config)
			if opts.LoggingLevel != "" {
				logCfg.Level = opts.LoggingLevel
			}
			if opts.LoggingFormat != "" {
				logCfg.Format = opts.LoggingFormat
			}
			registry := logging.NewRegistry(logCfg)
			logger := registry.Logger("service").With("cage", cage)

			bus := events.New()
			m := metrics.New()

			var stale func() bool
			watcher := config.NewWatcher(opts.Config, bus, registry.Logger("config"))
			if err := watcher.Start(); err != nil {
				logger.Warn("Config watcher disabled", "error", err)
			} else {
				stale = watcher.Stale
				defer watcher.Stop()
			}

			controller := service.New(service.Options{
				Cage:            cage,
				CommandLine:     satellite.JoinCommand(command),
				SettleDelay:     parseDuration(opts.SettleDelay, service.DefaultSettleDelay),
				StopBudget:      parseDuration(opts.StopTimeout, service.DefaultStopBudget),
				LegacyExitCodes: opts.LegacyExitCodes,
				Notifier:        service.NewSystemdNotifier(logger),
				Bus:             bus,
				Metrics:         m,
				Logger:          logger,
				SatelliteLogger: registry.Logger("satellite").With("cage", cage),
			})

			if opts.Port != "" {
				server := api.NewServer(&api.Options{
					Controller:     controller,
					Buffer:         registry.Buffer(),
					MetricsHandler: m.Handler(),
					Stale:          stale,
				}, registry.Logger("api"))
				go func() {
					if serveErr := server.Start(opts.Port); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
						logger.Error("API server failed", "error", serveErr)
					}
				}()
				defer server.Stop()
			}

			// systemd delivers stop as SIGTERM; Ctrl-C covers terminal use.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
			go func() {
				sig := <-sigCh
				logger.Info("Stop signal received", "signal", sig.String())
				controller.RequestStop()
			}()

			if runErr := controller.Run(context.Background()); runErr != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "/etc/cagesvc/config.toml", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.Port, "port", "p", ":8090", "Status API listen address; empty disables the API")
	cmd.Flags().StringVar(&opts.SettleDelay, "settle-delay", service.DefaultSettleDelay.String(), "Pause before spawn and after teardown")
	cmd.Flags().StringVar(&opts.StopTimeout, "stop-timeout", service.DefaultStopBudget.String(), "Grace period before the child is killed on stop")
	cmd.Flags().BoolVar(&opts.LegacyExitCodes, "legacy-exit-codes", false, "Report exit code 0 for forcibly terminated children")
	cmd.Flags().StringVar(&opts.LoggingLevel, "logging-level", "", "Global logging level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")

	return cmd
}

// splitRunArgs separates the cage name from the child command using the
// `--` marker: everything before it names the cage, everything after is
// the command. Without a marker the first argument is the cage.
func splitRunArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	split := cmd.ArgsLenAtDash()
	if split < 0 {
		split = 1
	}
	if split != 1 {
		return "", nil, errors.New("expected exactly one cage name before --")
	}
	if len(args) < 2 {
		return "", nil, errors.New("missing command to run")
	}
	return args[0], args[1:], nil
}

// parseDuration falls back to def when the value is empty or malformed.
func parseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
