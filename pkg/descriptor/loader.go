package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDescriptorMissing marks a capability descriptor file that could
// not be found. Callers must treat this as fatal: validation without
// the descriptor would pass vacuously.
var ErrDescriptorMissing = errors.New("capability descriptor missing")

// Default descriptor file names inside the settings folder. The server
// ships these files; the client only reads them.
const (
	ModulesFile      = "SupportedSoftwareModules.json"
	EnvironmentsFile = "SupportedEnvironments.json"
	ScenariosFile    = "SupportedScenarios.json"
	PhysicsFile      = "SupportedVehiclePhysicsParameter.json"
)

func readDescriptorFile(path string, root string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrDescriptorMissing)
		}
		return fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	body, ok := doc[root]
	if !ok {
		return fmt.Errorf("descriptor %s has no %s section", path, root)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding descriptor %s: %w", path, err)
	}
	return nil
}

// LoadModules loads the supported software modules descriptor.
func LoadModules(path string) (*ModuleDescriptor, error) {
	var d ModuleDescriptor
	if err := readDescriptorFile(path, "SupportedModules", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadEnvironments loads the supported environments descriptor.
func LoadEnvironments(path string) (*EnvironmentDescriptor, error) {
	var d EnvironmentDescriptor
	if err := readDescriptorFile(path, "Environments", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadScenarios loads the supported scenarios descriptor.
func LoadScenarios(path string) (*ScenarioDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrDescriptorMissing)
		}
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	var d ScenarioDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	return &d, nil
}

// LoadVehiclePhysics loads the vehicle physics parameter descriptor.
func LoadVehiclePhysics(path string) (*PhysicsDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrDescriptorMissing)
		}
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	var d PhysicsDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	return &d, nil
}

// Set bundles every capability descriptor needed for a validation
// session. Loaded once and treated as an immutable snapshot from then
// on.
type Set struct {
	Modules      *ModuleDescriptor
	Environments *EnvironmentDescriptor
	Scenarios    *ScenarioDescriptor
	Physics      *PhysicsDescriptor
}

// LoadSet loads all descriptors from their default file names inside
// dir. The physics descriptor is optional for settings validation, so
// a missing physics file is tolerated; the other three are required.
func LoadSet(dir string) (*Set, error) {
	modules, err := LoadModules(filepath.Join(dir, ModulesFile))
	if err != nil {
		return nil, err
	}
	environments, err := LoadEnvironments(filepath.Join(dir, EnvironmentsFile))
	if err != nil {
		return nil, err
	}
	scenarios, err := LoadScenarios(filepath.Join(dir, ScenariosFile))
	if err != nil {
		return nil, err
	}
	set := &Set{
		Modules:      modules,
		Environments: environments,
		Scenarios:    scenarios,
	}
	physics, err := LoadVehiclePhysics(filepath.Join(dir, PhysicsFile))
	if err != nil && !errors.Is(err, ErrDescriptorMissing) {
		return nil, err
	}
	if err == nil {
		set.Physics = physics
	}
	return set, nil
}
