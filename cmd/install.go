package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/cagesvc/internal/logging"
	"github.com/smazurov/cagesvc/internal/sysmgr"
	"github.com/spf13/cobra"
)

// CreateInstallCmd creates the install command.
func CreateInstallCmd() *cobra.Command {
	var unitDir string

	cmd := &cobra.Command{
		Use:   "install <cage> -- <command...>",
		Short: "Register a caged service with systemd",
		Long: `Writes a systemd unit that runs the given command under cagesvc and ` +
			`enables it. Installing an already registered cage is a no-op.`,
		Args: cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cage, command, err := splitRunArgs(cmd, args)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			binary, err := os.Executable()
			if err != nil {
				fmt.Fprintln(os.Stderr, "cannot locate own binary:", err)
				os.Exit(1)
			}

			logger := logging.NewRegistry(logging.Config{Level: "info"}).Logger("sysmgr")
			mgr, err := sysmgr.NewManager(cmd.Context(), logger, sysmgr.WithUnitDir(unitDir))
			if err != nil {
				fmt.Fprintln(os.Stderr, "cannot connect to systemd:", err)
				os.Exit(1)
			}
			defer mgr.Close()

			if err := mgr.Install(cmd.Context(), cage, binary, command); err != nil {
				fmt.Fprintln(os.Stderr, "install failed:", err)
				os.Exit(1)
			}
			fmt.Printf("installed %s\n", sysmgr.UnitName(cage))
		},
	}

	cmd.Flags().StringVar(&unitDir, "unit-dir", sysmgr.DefaultUnitDir, "Directory for generated systemd units")
	return cmd
}

// CreateRemoveCmd creates the remove command.
func CreateRemoveCmd() *cobra.Command {
	var unitDir string

	cmd := &cobra.Command{
		Use:   "remove <cage>",
		Short: "Unregister a caged service from systemd",
		Long: `Stops the cage if it is running, disables its unit, and deletes the ` +
			`unit file. Removing an unregistered cage is a no-op.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cage := args[0]

			logger := logging.NewRegistry(logging.Config{Level: "info"}).Logger("sysmgr")
			mgr, err := sysmgr.NewManager(cmd.Context(), logger, sysmgr.WithUnitDir(unitDir))
			if err != nil {
				fmt.Fprintln(os.Stderr, "cannot connect to systemd:", err)
				os.Exit(1)
			}
			defer mgr.Close()

			if err := mgr.Remove(cmd.Context(), cage); err != nil {
				fmt.Fprintln(os.Stderr, "remove failed:", err)
				os.Exit(1)
			}
			fmt.Printf("removed %s\n", sysmgr.UnitName(cage))
		},
	}

	cmd.Flags().StringVar(&unitDir, "unit-dir", sysmgr.DefaultUnitDir, "Directory for generated systemd units")
	return cmd
}
