package swarm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/codexlabs/swarm-rds-client/pkg/settings"
)

// decodeDocument parses a stored settings JSON string back into a
// document for validation.
func decodeDocument(settingsJSON string) (settings.Document, error) {
	var doc settings.Document
	if err := json.Unmarshal([]byte(settingsJSON), &doc); err != nil {
		return nil, fmt.Errorf("parsing stored settings: %w", err)
	}
	return doc, nil
}

// decodeTrajectory parses a stored trajectory JSON string and unwraps
// its Trajectory section.
func decodeTrajectory(trajectoryJSON string) (interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(trajectoryJSON), &doc); err != nil {
		return nil, fmt.Errorf("parsing stored trajectory: %w", err)
	}
	trajectory, ok := doc["Trajectory"]
	if !ok {
		return nil, fmt.Errorf("stored trajectory has no Trajectory section")
	}
	return trajectory, nil
}

// writeEnvironmentsFile stores a fetched environment list in the
// descriptor format the loader reads back.
func writeEnvironmentsFile(path string, envs []string) error {
	data, err := json.MarshalIndent(map[string]interface{}{"Environments": envs}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding environments: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing environments file: %w", err)
	}
	return nil
}
