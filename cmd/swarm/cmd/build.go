package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
	"github.com/codexlabs/swarm-rds-client/pkg/swarm"
	"github.com/codexlabs/swarm-rds-client/pkg/validation"
	"github.com/codexlabs/swarm-rds-client/pkg/wizard"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a simulation package",
	Long: `Build a simulation package from the settings and trajectory files in
the workspace and record it in the submission list. With --wizard the
files are generated interactively first, offering only options the
server supports.`,
	RunE: buildSimulation,
}

func init() {
	buildCmd.Flags().StringP("name", "n", "", "simulation name (generated when omitted)")
	buildCmd.Flags().String("settings", settings.DefaultSettingsFile, "settings file inside the settings folder")
	buildCmd.Flags().String("trajectory", settings.DefaultTrajectoryFile, "trajectory file inside the settings folder")
	buildCmd.Flags().Bool("wizard", false, "generate the settings and trajectory interactively")
}

func buildSimulation(cmd *cobra.Command, _ []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	settingsFile, _ := cmd.Flags().GetString("settings")
	trajectoryFile, _ := cmd.Flags().GetString("trajectory")

	if useWizard, _ := cmd.Flags().GetBool("wizard"); useWizard {
		if err := runWizard(m.Descriptors, settingsFile, trajectoryFile); err != nil {
			return err
		}
	}

	name, _ := cmd.Flags().GetString("name")
	simName, err := m.BuildSimulation(name, settingsFile, trajectoryFile)
	if err != nil {
		return err
	}

	settingsResult, trajectoryResult, err := m.ValidateSubmission(simName)
	if err != nil {
		return err
	}
	validation.PrintReport(settingsFile, settingsResult)
	validation.PrintReport(trajectoryFile, trajectoryResult)
	if !settingsResult.OK() || !trajectoryResult.OK() {
		return fmt.Errorf("simulation %s was built but does not validate", simName)
	}

	logger.Successf("Simulation %s is ready to run", simName)
	return nil
}

func runWizard(descriptors func() (*descriptor.Set, error), settingsFile, trajectoryFile string) error {
	caps, err := descriptors()
	if err != nil {
		return err
	}
	w := wizard.New(caps)

	doc, err := w.BuildSettings()
	if err != nil {
		return err
	}
	if err := doc.Save(filepath.Join(workspace, swarm.SettingsDir, settingsFile)); err != nil {
		return err
	}

	trajectory, err := w.BuildTrajectory()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(trajectory, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding trajectory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, swarm.SettingsDir, trajectoryFile), data, 0644); err != nil {
		return fmt.Errorf("writing trajectory file: %w", err)
	}
	return nil
}
