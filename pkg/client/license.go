package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
)

// machineIDScope keys the hashed machine ID so it cannot be correlated
// with other applications on the same host.
const machineIDScope = "swarm-rds"

// License is the contents of settings/LicenseKey.json plus the hashed
// machine ID the server uses to bind the key to this host.
type License struct {
	Key       string `json:"Key"`
	Activated bool   `json:"Activated"`
	AccountID string `json:"AccountID"`
	MachineID string `json:"-"`
}

// LoadLicense reads the license file and binds it to this machine.
func LoadLicense(path string) (*License, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("license file %s not found; place your license key there", path)
		}
		return nil, fmt.Errorf("reading license file: %w", err)
	}
	var license License
	if err := json.Unmarshal(data, &license); err != nil {
		return nil, fmt.Errorf("parsing license file: %w", err)
	}
	if license.Key == "" {
		return nil, fmt.Errorf(`license file %s has no "Key" field`, path)
	}
	id, err := machineid.ProtectedID(machineIDScope)
	if err != nil {
		return nil, fmt.Errorf("computing machine id: %w", err)
	}
	license.MachineID = id
	return &license, nil
}

// Save writes the license back to disk, preserving activation state.
func (l *License) Save(path string) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding license: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing license file: %w", err)
	}
	return nil
}
