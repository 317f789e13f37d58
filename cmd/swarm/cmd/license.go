package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/client"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
	"github.com/codexlabs/swarm-rds-client/pkg/swarm"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Store the license key for this workspace",
	Long: `Store the license key in the workspace settings folder. Every request
to the server carries the key together with a hashed machine ID.`,
	RunE: storeLicense,
}

func storeLicense(cmd *cobra.Command, _ []string) error {
	settingsDir := filepath.Join(workspace, swarm.SettingsDir)
	if err := os.MkdirAll(settingsDir, 0755); err != nil {
		return fmt.Errorf("creating settings folder: %w", err)
	}

	var key string
	keyPrompt := &survey.Password{Message: "License key:"}
	if err := survey.AskOne(keyPrompt, &key, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var accountID string
	accountPrompt := &survey.Input{Message: "Account ID (optional):"}
	if err := survey.AskOne(accountPrompt, &accountID); err != nil {
		return err
	}

	// There is no activation endpoint to call; the server rejects a bad
	// key on the first request, so the stored key is marked active here.
	license := &client.License{Key: key, Activated: true, AccountID: accountID}
	path := filepath.Join(settingsDir, settings.LicenseFile)
	if err := license.Save(path); err != nil {
		return err
	}

	logger.Successf("License stored in %s", path)
	return nil
}
