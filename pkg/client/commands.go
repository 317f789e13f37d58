package client

import (
	"context"
	"fmt"
)

// Server commands.
const (
	commandRunSimulation   = "Run Simulation"
	commandViewLevel       = "View Level"
	commandExtractData     = "Extract Data"
	commandSupportedEnvs   = "Supported Environments"
	commandEnvironmentInfo = "Environment Information"
)

// SimulationPackage is everything the server needs to dispatch one
// simulation run. Settings and Trajectory are the raw JSON documents
// as strings, the way the server expects them.
type SimulationPackage struct {
	Settings   string
	Trajectory string
	UserCode   string
	SimName    string
	MapName    string
	IPAddress  string
}

// RunSimulation submits a simulation package and blocks until the
// server reports the run finished. The returned body carries the
// completion status and timing.
func (c *Client) RunSimulation(ctx context.Context, pkg SimulationPackage) (map[string]interface{}, error) {
	id, err := c.send(map[string]interface{}{
		"Command":    commandRunSimulation,
		"Settings":   pkg.Settings,
		"Trajectory": pkg.Trajectory,
		"UserCode":   pkg.UserCode,
		"Sim_name":   pkg.SimName,
		"Map_name":   pkg.MapName,
		"IPAddress":  pkg.IPAddress,
	})
	if err != nil {
		return nil, err
	}
	body, err := c.awaitPacket(ctx, id)
	// The server drops the connection once the run completes.
	c.Close()
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ViewLevel asks the server to open the environment for inspection
// without dispatching a full run.
func (c *Client) ViewLevel(ctx context.Context, pkg SimulationPackage) (map[string]interface{}, error) {
	id, err := c.send(map[string]interface{}{
		"Command":    commandViewLevel,
		"Settings":   pkg.Settings,
		"Trajectory": pkg.Trajectory,
		"Sim_name":   pkg.SimName,
		"Map_name":   pkg.MapName,
	})
	if err != nil {
		return nil, err
	}
	body, err := c.awaitPacket(ctx, id)
	c.Close()
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ExtractData downloads the recorded data archive of a finished
// simulation as a gzipped tarball.
func (c *Client) ExtractData(ctx context.Context, simName string) ([]byte, error) {
	id, err := c.send(map[string]interface{}{
		"Command": commandExtractData,
		"SimName": simName,
	})
	if err != nil {
		return nil, err
	}
	data, err := c.awaitBytes(ctx, id, "Data archive")
	c.Close()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SupportedEnvironments asks the server which environments its
// container ships with.
func (c *Client) SupportedEnvironments(ctx context.Context) ([]string, error) {
	id, err := c.send(map[string]interface{}{
		"Command": commandSupportedEnvs,
	})
	if err != nil {
		return nil, err
	}
	body, err := c.awaitPacket(ctx, id)
	c.Close()
	if err != nil {
		return nil, err
	}
	if errValue, ok := body["Error"].(string); ok {
		return nil, fmt.Errorf("server error: %s", errValue)
	}
	raw, ok := body["SupportedEnvironments"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("response carries no SupportedEnvironments list")
	}
	names := make([]string, 0, len(raw))
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// EnvironmentInformation downloads the map metadata archive for one
// environment as a gzipped tarball.
func (c *Client) EnvironmentInformation(ctx context.Context, envName string) ([]byte, error) {
	id, err := c.send(map[string]interface{}{
		"Command":         commandEnvironmentInfo,
		"EnvironmentName": envName,
	})
	if err != nil {
		return nil, err
	}
	data, err := c.awaitBytes(ctx, id, "Map archive")
	c.Close()
	if err != nil {
		return nil, err
	}
	return data, nil
}
