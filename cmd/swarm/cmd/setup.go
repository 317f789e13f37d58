package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
	"github.com/codexlabs/swarm-rds-client/pkg/swarm"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate settings and trajectory files interactively",
	Long: `Walk through building the workspace settings and trajectory files.
Every choice offered comes from the server's capability descriptors, so
the generated files validate as written.`,
	RunE: setupWorkspaceFiles,
}

func init() {
	setupCmd.Flags().String("settings", settings.DefaultSettingsFile, "settings file to write inside the settings folder")
	setupCmd.Flags().String("trajectory", settings.DefaultTrajectoryFile, "trajectory file to write inside the settings folder")
}

func setupWorkspaceFiles(cmd *cobra.Command, _ []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	settingsFile, _ := cmd.Flags().GetString("settings")
	trajectoryFile, _ := cmd.Flags().GetString("trajectory")
	if err := runWizard(m.Descriptors, settingsFile, trajectoryFile); err != nil {
		return err
	}

	logger.Successf("Workspace files written to %s/%s", workspace, swarm.SettingsDir)
	return nil
}
