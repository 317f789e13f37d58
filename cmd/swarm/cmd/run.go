package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
)

var runCmd = &cobra.Command{
	Use:   "run [simulation-name]",
	Short: "Run a simulation on the server",
	Long: `Run a built simulation on the selected server. Without a simulation
name the workspace files are built into a fresh package first. The
command blocks until the server reports the run finished.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().String("settings", settings.DefaultSettingsFile, "settings file inside the settings folder")
	runCmd.Flags().String("trajectory", settings.DefaultTrajectoryFile, "trajectory file inside the settings folder")
	runCmd.Flags().String("user-code", "", "user module archive for level 3 algorithms")
	runCmd.Flags().String("stream-address", "", "address the server streams video back to")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	m.UserCode, _ = cmd.Flags().GetString("user-code")
	m.StreamAddress, _ = cmd.Flags().GetString("stream-address")

	var simName string
	if len(args) > 0 {
		simName = args[0]
	} else {
		settingsFile, _ := cmd.Flags().GetString("settings")
		trajectoryFile, _ := cmd.Flags().GetString("trajectory")
		if simName, err = m.BuildSimulation("", settingsFile, trajectoryFile); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		logger.Warn("\nReceived interrupt signal, abandoning the run...")
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Running %s", simName))
	if err := m.RunSimulation(ctx, simName); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation completed successfully")
	return nil
}
