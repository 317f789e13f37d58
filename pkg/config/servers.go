// Package config stores the client's server connections in
// ~/.swarm-rds/servers.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the simulation server's socket port.
const DefaultPort = 5002

// Server represents one SWARM RDS server endpoint.
type Server struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port,omitempty"`
}

// Address returns the host:port dial address of the server.
func (s *Server) Address() string {
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// Config holds the known server endpoints.
type Config struct {
	Servers  []Server `yaml:"servers"`
	Selected string   `yaml:"selected,omitempty"`
}

// Server returns the named server entry.
func (c *Config) Server(name string) (*Server, bool) {
	for i := range c.Servers {
		if c.Servers[i].Name == name {
			return &c.Servers[i], true
		}
	}
	return nil, false
}

// SelectedServer returns the currently selected server, falling back
// to the first entry when none is selected.
func (c *Config) SelectedServer() (*Server, bool) {
	if c.Selected != "" {
		if s, ok := c.Server(c.Selected); ok {
			return s, true
		}
	}
	if len(c.Servers) > 0 {
		return &c.Servers[0], true
	}
	return nil, false
}

// Dir returns the client's configuration directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".swarm-rds"), nil
}

// LoadServers loads the server configuration from the default location
func LoadServers() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadServersFromFile(filepath.Join(dir, "servers.yaml"))
}

// LoadServersFromFile loads server configurations from a specific file
func LoadServersFromFile(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveServers saves the server configuration
func SaveServers(config *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveServersToFile(config, filepath.Join(dir, "servers.yaml"))
}

// SaveServersToFile saves the server configuration to a specific file
func SaveServersToFile(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfig returns a default configuration
func getDefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Name: "Local",
				Host: "127.0.0.1",
				Port: DefaultPort,
			},
		},
		Selected: "Local",
	}
}
