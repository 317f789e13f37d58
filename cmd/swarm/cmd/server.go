package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/codexlabs/swarm-rds-client/pkg/config"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage SWARM RDS server endpoints",
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured servers",
	RunE:  listServers,
}

var serverAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new server",
	RunE:  addServer,
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a server",
	RunE:  removeServer,
}

var serverSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the default server",
	RunE:  selectServer,
}

func init() {
	serverCmd.AddCommand(serverListCmd)
	serverCmd.AddCommand(serverAddCmd)
	serverCmd.AddCommand(serverRemoveCmd)
	serverCmd.AddCommand(serverSelectCmd)
}

func listServers(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServers()
	if err != nil {
		return fmt.Errorf("failed to load servers: %w", err)
	}

	if len(cfg.Servers) == 0 {
		fmt.Println("No servers configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tADDRESS\tSELECTED")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------")
	for i := range cfg.Servers {
		server := &cfg.Servers[i]
		selected := ""
		if server.Name == cfg.Selected {
			selected = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", server.Name, server.Address(), selected)
	}
	return w.Flush()
}

func addServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServers()
	if err != nil {
		return fmt.Errorf("failed to load servers: %w", err)
	}

	var server config.Server

	namePrompt := &survey.Input{Message: "Server name:"}
	if err := survey.AskOne(namePrompt, &server.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if _, exists := cfg.Server(server.Name); exists {
		return fmt.Errorf("server %s already exists", server.Name)
	}

	hostPrompt := &survey.Input{Message: "Server host:", Default: "127.0.0.1"}
	if err := survey.AskOne(hostPrompt, &server.Host, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var portRaw string
	portPrompt := &survey.Input{
		Message: "Server port:",
		Default: strconv.Itoa(config.DefaultPort),
	}
	if err := survey.AskOne(portPrompt, &portRaw, survey.WithValidator(func(val interface{}) error {
		port, err := strconv.Atoi(val.(string))
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("enter a port between 1 and 65535")
		}
		return nil
	})); err != nil {
		return err
	}
	server.Port, _ = strconv.Atoi(portRaw)

	cfg.Servers = append(cfg.Servers, server)
	if cfg.Selected == "" {
		cfg.Selected = server.Name
	}
	if err := config.SaveServers(cfg); err != nil {
		return fmt.Errorf("failed to save servers: %w", err)
	}

	fmt.Printf("Server %s added successfully\n", server.Name)
	return nil
}

func removeServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServers()
	if err != nil {
		return fmt.Errorf("failed to load servers: %w", err)
	}
	if len(cfg.Servers) == 0 {
		fmt.Println("No servers to remove")
		return nil
	}

	selected, err := pickServer(cfg, "Select server to remove:")
	if err != nil {
		return err
	}

	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	servers := make([]config.Server, 0, len(cfg.Servers)-1)
	for _, server := range cfg.Servers {
		if server.Name != selected {
			servers = append(servers, server)
		}
	}
	cfg.Servers = servers
	if cfg.Selected == selected {
		cfg.Selected = ""
	}
	if err := config.SaveServers(cfg); err != nil {
		return fmt.Errorf("failed to save servers: %w", err)
	}

	fmt.Printf("Server %s removed successfully\n", selected)
	return nil
}

func selectServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServers()
	if err != nil {
		return fmt.Errorf("failed to load servers: %w", err)
	}
	if len(cfg.Servers) == 0 {
		fmt.Println("No servers configured")
		return nil
	}

	selected, err := pickServer(cfg, "Select default server:")
	if err != nil {
		return err
	}
	cfg.Selected = selected
	if err := config.SaveServers(cfg); err != nil {
		return fmt.Errorf("failed to save servers: %w", err)
	}

	fmt.Printf("Server %s is now the default\n", selected)
	return nil
}

func pickServer(cfg *config.Config, message string) (string, error) {
	names := make([]string, len(cfg.Servers))
	for i, server := range cfg.Servers {
		names[i] = server.Name
	}
	var selected string
	prompt := &survey.Select{Message: message, Options: names}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}
