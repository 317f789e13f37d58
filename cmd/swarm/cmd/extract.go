package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract <simulation-name>",
	Short: "Download the data archive of a finished simulation",
	Args:  cobra.ExactArgs(1),
	RunE:  extractData,
}

func extractData(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	path, err := m.ExtractData(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	logger.Successf("Data archive saved to %s", path)
	return nil
}
