package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "Work with the server's simulation environments",
}

var envsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the environments in the local descriptor snapshot",
	RunE:  listEnvs,
}

var envsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the supported environment list from the server",
	RunE:  syncEnvs,
}

var envsInfoCmd = &cobra.Command{
	Use:   "info <environment-name>",
	Short: "Download the map metadata archive for an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  envInfo,
}

func init() {
	envsCmd.AddCommand(envsListCmd)
	envsCmd.AddCommand(envsSyncCmd)
	envsCmd.AddCommand(envsInfoCmd)
}

func listEnvs(cmd *cobra.Command, _ []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	caps, err := m.Descriptors()
	if err != nil {
		return err
	}

	names := caps.Environments.Names()
	if len(names) == 0 {
		fmt.Println("No environments in the local snapshot; run 'swarm envs sync' first")
		return nil
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tLEVELS")
	_, _ = fmt.Fprintln(w, "----\t------")
	for _, name := range names {
		env, _ := caps.Environments.Environment(name)
		levels := "(not published)"
		if len(env.Levels) > 0 {
			levels = strings.Join(env.Levels, ", ")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, levels)
	}
	return w.Flush()
}

func syncEnvs(cmd *cobra.Command, _ []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	envs, err := m.RetrieveSupportedEnvironments(cmd.Context())
	if err != nil {
		return err
	}
	logger.Successf("Server supports %d environment(s)", len(envs))
	for _, env := range envs {
		fmt.Printf("  %s\n", env)
	}
	return nil
}

func envInfo(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	path, err := m.RetrieveEnvironmentInfo(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	logger.Successf("Map archive saved to %s", path)
	return nil
}
