package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

var viewCmd = &cobra.Command{
	Use:   "view <simulation-name>",
	Short: "Open a simulation's environment on the server",
	Long: `Open the environment of a built simulation on the server without
dispatching a run, to inspect the level before committing to it.`,
	Args: cobra.ExactArgs(1),
	RunE: viewLevel,
}

func viewLevel(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	return logger.WithSpinner(fmt.Sprintf("Opening environment for %s", args[0]), func() error {
		return m.ViewLevel(cmd.Context(), args[0])
	})
}
