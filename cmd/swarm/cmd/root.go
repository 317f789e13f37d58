package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codexlabs/swarm-rds-client/pkg/config"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/swarm"
)

var (
	workspace  string
	serverName string
	hostFlag   string
	portFlag   int
	logLevel   string
	noColor    bool
	aggregate  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "SWARM RDS simulation client",
	Long: `SWARM RDS client builds drone swarm simulation packages, validates
them against the server's capability descriptors and dispatches runs
to a SWARM RDS simulation server.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory holding settings/, data/ and maps/")
	rootCmd.PersistentFlags().StringVar(&serverName, "server", "", "configured server name to use")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "server host (overrides the configured server)")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "server port (overrides the configured server)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&aggregate, "aggregate", false, "collect every validation violation instead of stopping at the first")

	// Add commands
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(envsCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(licenseCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	viper.AddConfigPath("$HOME/.swarm-rds")
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvPrefix("SWARM")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// resolveServer picks the server endpoint from flags and the stored
// configuration.
func resolveServer() (*config.Server, error) {
	if hostFlag != "" {
		port := portFlag
		if port == 0 {
			port = config.DefaultPort
		}
		return &config.Server{Name: "Custom", Host: hostFlag, Port: port}, nil
	}

	cfg, err := config.LoadServers()
	if err != nil {
		return nil, err
	}
	if serverName != "" {
		server, ok := cfg.Server(serverName)
		if !ok {
			return nil, fmt.Errorf("server %s is not configured", serverName)
		}
		return server, nil
	}
	server, ok := cfg.SelectedServer()
	if !ok {
		return nil, fmt.Errorf("no servers configured; add one with 'swarm server add'")
	}
	if portFlag != 0 {
		server.Port = portFlag
	}
	return server, nil
}

// newManager builds a manager over the workspace and selected server.
func newManager() (*swarm.Manager, error) {
	server, err := resolveServer()
	if err != nil {
		return nil, err
	}
	opts := []swarm.Option{swarm.WithLogger(logger.Default().WithPrefix("swarm"))}
	if aggregate {
		opts = append(opts, swarm.WithAggregatedValidation())
	}
	return swarm.NewManager(workspace, server, opts...)
}
