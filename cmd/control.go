package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/smazurov/cagesvc/internal/logging"
	"github.com/smazurov/cagesvc/internal/sysmgr"
	"github.com/spf13/cobra"
)

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <cage>",
		Short: "Show the systemd state of a registered cage",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withManager(cmd.Context(), func(ctx context.Context, mgr *sysmgr.Manager) error {
				state, err := mgr.Status(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", sysmgr.UnitName(args[0]), state)
				return nil
			})
		},
	}
}

// CreateStartCmd creates the start command.
func CreateStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <cage>",
		Short: "Start a registered cage via systemd",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withManager(cmd.Context(), func(ctx context.Context, mgr *sysmgr.Manager) error {
				return mgr.Start(ctx, args[0])
			})
		},
	}
}

// CreateStopCmd creates the stop command.
func CreateStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <cage>",
		Short: "Stop a registered cage via systemd",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withManager(cmd.Context(), func(ctx context.Context, mgr *sysmgr.Manager) error {
				return mgr.Stop(ctx, args[0])
			})
		},
	}
}

// withManager runs fn with a connected systemd manager and exits the
// process on failure.
func withManager(ctx context.Context, fn func(context.Context, *sysmgr.Manager) error) {
	logger := logging.NewRegistry(logging.Config{Level: "info"}).Logger("sysmgr")
	mgr, err := sysmgr.NewManager(ctx, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot connect to systemd:", err)
		os.Exit(1)
	}
	defer mgr.Close()

	if err := fn(ctx, mgr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
