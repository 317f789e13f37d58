// Package settings manages the simulation settings workspace: the
// settings and trajectory documents themselves plus the submission
// bookkeeping kept alongside them.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default file names inside the settings folder.
const (
	DefaultSettingsFile   = "DefaultSimulationSettings.json"
	DefaultTrajectoryFile = "DefaultTrajectory.json"
	LicenseFile           = "LicenseKey.json"
)

// Document is a decoded simulation settings document. It stays a
// generic mapping: the validation package checks its shape against the
// server's capability descriptors.
type Document map[string]interface{}

// LoadDocument reads a JSON settings document from disk.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return doc, nil
}

// Save writes the document back to disk.
func (d Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings file %s: %w", path, err)
	}
	return nil
}

// Encode returns the document as a compact JSON string, the form the
// server expects inside a simulation package.
func (d Document) Encode() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	return string(data), nil
}

// SimulationName returns the document's simulation name.
func (d Document) SimulationName() string {
	name, _ := d["SimulationName"].(string)
	return name
}

// SetSimulationName renames the simulation in place.
func (d Document) SetSimulationName(name string) {
	d["SimulationName"] = name
}

// EnvironmentName returns the environment the document targets.
func (d Document) EnvironmentName() string {
	env, ok := d["Environment"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := env["Name"].(string)
	return name
}

// LoadTrajectory reads a trajectory file and returns the value of its
// Trajectory key: a point list, or a level-to-points mapping for
// multi-level runs.
func LoadTrajectory(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trajectory file %s: %w", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing trajectory file %s: %w", path, err)
	}
	trajectory, ok := doc["Trajectory"]
	if !ok {
		return nil, fmt.Errorf("trajectory file %s has no Trajectory section", path)
	}
	return trajectory, nil
}

// EncodeFile reads a JSON file and returns it as a compact JSON
// string for transmission.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
