package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/settings"
	"github.com/codexlabs/swarm-rds-client/pkg/swarm"
	"github.com/codexlabs/swarm-rds-client/pkg/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the workspace settings and trajectory files",
	Long: `Validate the settings and trajectory files in the workspace against
the server's capability descriptors without building or running
anything. Use --aggregate to see every violation at once.`,
	RunE: validateFiles,
}

func init() {
	validateCmd.Flags().String("settings", settings.DefaultSettingsFile, "settings file inside the settings folder")
	validateCmd.Flags().String("trajectory", settings.DefaultTrajectoryFile, "trajectory file inside the settings folder")
	validateCmd.Flags().String("profile", "", "vehicle physics profile file to validate instead of the settings")
	validateCmd.Flags().String("vehicle", "Multirotor", "vehicle type the profile belongs to")
}

func validateFiles(cmd *cobra.Command, _ []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	v, err := m.Validator()
	if err != nil {
		return err
	}

	if profileFile, _ := cmd.Flags().GetString("profile"); profileFile != "" {
		vehicle, _ := cmd.Flags().GetString("vehicle")
		profile, err := settings.LoadDocument(profileFile)
		if err != nil {
			return err
		}
		result := v.ValidateVehicleProfile(profile, vehicle)
		validation.PrintReport(profileFile, result)
		if !result.OK() {
			return fmt.Errorf("validation failed")
		}
		return nil
	}

	settingsFile, _ := cmd.Flags().GetString("settings")
	trajectoryFile, _ := cmd.Flags().GetString("trajectory")
	settingsDir := filepath.Join(workspace, swarm.SettingsDir)

	doc, err := settings.LoadDocument(filepath.Join(settingsDir, settingsFile))
	if err != nil {
		return err
	}
	settingsResult := v.ValidateSettings(doc)
	validation.PrintReport(settingsFile, settingsResult)

	trajectory, err := settings.LoadTrajectory(filepath.Join(settingsDir, trajectoryFile))
	if err != nil {
		return err
	}
	trajectoryResult := v.ValidateTrajectory(trajectory)
	validation.PrintReport(trajectoryFile, trajectoryResult)

	if !settingsResult.OK() || !trajectoryResult.OK() {
		return fmt.Errorf("validation failed")
	}
	return nil
}
