// Package swarm orchestrates the client workflow: building simulation
// packages, validating them against the server's capability
// descriptors, dispatching runs and collecting their artifacts.
package swarm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codexlabs/swarm-rds-client/pkg/client"
	"github.com/codexlabs/swarm-rds-client/pkg/config"
	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
	"github.com/codexlabs/swarm-rds-client/pkg/validation"
)

// Workspace folder layout.
const (
	SettingsDir = "settings"
	DataDir     = "data"
	MapsDir     = "maps"

	supportedEnvsFile = "SupportedEnvironments.json"
	mapArchiveFile    = "map_data.tar.gz"
)

// Manager drives simulation submissions against one server.
type Manager struct {
	root      string
	server    *config.Server
	license   *client.License
	log       logger.Logger
	aggregate bool

	// UserCode optionally points at a user module archive sent along
	// with level 3 algorithm submissions.
	UserCode string
	// StreamAddress is the address the server streams video back to
	// when the settings enable it.
	StreamAddress string
}

// Option configures a Manager.
type Option func(*Manager)

// WithAggregatedValidation makes validation collect every violation
// instead of stopping at the first.
func WithAggregatedValidation() Option {
	return func(m *Manager) { m.aggregate = true }
}

// WithLogger sets the manager's logger.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a manager rooted at dir, loading the license from
// the settings folder and creating the workspace files when absent.
func NewManager(dir string, server *config.Server, opts ...Option) (*Manager, error) {
	m := &Manager{
		root:   dir,
		server: server,
		log:    logger.Default().WithPrefix("swarm"),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := settings.EnsureWorkspace(m.settingsDir()); err != nil {
		return nil, err
	}
	for _, sub := range []string{DataDir, MapsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("creating %s folder: %w", sub, err)
		}
	}

	license, err := client.LoadLicense(filepath.Join(m.settingsDir(), settings.LicenseFile))
	if err != nil {
		return nil, err
	}
	m.license = license
	return m, nil
}

func (m *Manager) settingsDir() string { return filepath.Join(m.root, SettingsDir) }

// Descriptors loads the capability descriptor snapshot for this
// session.
func (m *Manager) Descriptors() (*descriptor.Set, error) {
	return descriptor.LoadSet(m.settingsDir())
}

// Validator builds a validator over the loaded descriptors.
func (m *Manager) Validator() (*validation.Validator, error) {
	caps, err := m.Descriptors()
	if err != nil {
		return nil, err
	}
	opts := []validation.Option{validation.WithLogger(m.log.WithPrefix("validation"))}
	if m.aggregate {
		opts = append(opts, validation.WithAggregation())
	}
	return validation.New(caps, opts...), nil
}

func (m *Manager) newClient() (*client.Client, error) {
	return client.NewClient(client.Config{
		Host:    m.server.Host,
		Port:    m.server.Port,
		License: m.license,
	})
}

// BuildSimulation assembles a simulation package from the settings and
// trajectory files in the workspace and records it in the submission
// list. An empty customName gets a generated unique name. Returns the
// simulation name.
func (m *Manager) BuildSimulation(customName, settingsFile, trajectoryFile string) (string, error) {
	simName := customName
	if simName == "" {
		simName = settings.NewSimulationName()
	}

	settingsPath := filepath.Join(m.settingsDir(), settingsFile)
	doc, err := settings.LoadDocument(settingsPath)
	if err != nil {
		return "", err
	}
	doc.SetSimulationName(simName)
	if err := doc.Save(settingsPath); err != nil {
		return "", err
	}
	encoded, err := doc.Encode()
	if err != nil {
		return "", err
	}
	trajectory, err := settings.EncodeFile(filepath.Join(m.settingsDir(), trajectoryFile))
	if err != nil {
		return "", err
	}

	list, err := settings.LoadSubmissionList(m.settingsDir())
	if err != nil {
		return "", err
	}
	list.Record(simName, encoded, trajectory)
	if err := list.Save(m.settingsDir()); err != nil {
		return "", err
	}
	m.log.Infof("built simulation package %s", simName)
	return simName, nil
}

// ValidateSubmission validates the stored settings and trajectory of a
// built simulation. Both results are returned so the caller can print
// a full report.
func (m *Manager) ValidateSubmission(simName string) (*validation.Result, *validation.Result, error) {
	list, err := settings.LoadSubmissionList(m.settingsDir())
	if err != nil {
		return nil, nil, err
	}
	settingsJSON, trajectoryJSON, err := list.Package(simName)
	if err != nil {
		return nil, nil, err
	}
	v, err := m.Validator()
	if err != nil {
		return nil, nil, err
	}

	doc, err := decodeDocument(settingsJSON)
	if err != nil {
		return nil, nil, err
	}
	settingsResult := v.ValidateSettings(doc)

	trajectory, err := decodeTrajectory(trajectoryJSON)
	if err != nil {
		return nil, nil, err
	}
	trajectoryResult := v.ValidateTrajectory(trajectory)

	return settingsResult, trajectoryResult, nil
}

// RunSimulation validates a built simulation and dispatches it to the
// server, blocking until the run completes. The submission list is
// updated with the outcome.
func (m *Manager) RunSimulation(ctx context.Context, simName string) error {
	settingsResult, trajectoryResult, err := m.ValidateSubmission(simName)
	if err != nil {
		return err
	}
	if !settingsResult.OK() {
		return fmt.Errorf("settings file invalid: %w", settingsResult.Err())
	}
	if !trajectoryResult.OK() {
		return fmt.Errorf("trajectory file invalid: %w", trajectoryResult.Err())
	}

	list, err := settings.LoadSubmissionList(m.settingsDir())
	if err != nil {
		return err
	}
	settingsJSON, trajectoryJSON, err := list.Package(simName)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(settingsJSON)
	if err != nil {
		return err
	}

	userCode, err := m.loadUserCode()
	if err != nil {
		return err
	}

	c, err := m.newClient()
	if err != nil {
		return err
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}

	m.log.Infof("dispatching simulation %s to %s", simName, m.server.Address())
	body, err := c.RunSimulation(ctx, client.SimulationPackage{
		Settings:   settingsJSON,
		Trajectory: trajectoryJSON,
		UserCode:   userCode,
		SimName:    simName,
		MapName:    doc.EnvironmentName(),
		IPAddress:  m.StreamAddress,
	})
	if err != nil {
		return err
	}
	if errValue, ok := body["Error"].(string); ok {
		return fmt.Errorf("server error: %s", errValue)
	}

	status, _ := body["Status"].(string)
	if err := settings.RecordCompletion(m.settingsDir(), simName, status); err != nil {
		m.log.Warnf("could not update submission history: %v", err)
	}
	if status == "Completed" {
		m.log.Infof("simulation %s completed in %v min %v s", simName, body["Minutes"], body["Seconds"])
	} else {
		m.log.Warnf("simulation %s finished with status %q", simName, status)
	}
	return nil
}

// ViewLevel opens the environment of a built simulation on the server
// without dispatching a run.
func (m *Manager) ViewLevel(ctx context.Context, simName string) error {
	settingsResult, _, err := m.ValidateSubmission(simName)
	if err != nil {
		return err
	}
	if !settingsResult.OK() {
		return fmt.Errorf("settings file invalid: %w", settingsResult.Err())
	}

	list, err := settings.LoadSubmissionList(m.settingsDir())
	if err != nil {
		return err
	}
	settingsJSON, trajectoryJSON, err := list.Package(simName)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(settingsJSON)
	if err != nil {
		return err
	}

	c, err := m.newClient()
	if err != nil {
		return err
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	body, err := c.ViewLevel(ctx, client.SimulationPackage{
		Settings:   settingsJSON,
		Trajectory: trajectoryJSON,
		SimName:    simName,
		MapName:    doc.EnvironmentName(),
	})
	if err != nil {
		return err
	}
	if errValue, ok := body["Error"].(string); ok {
		return fmt.Errorf("server error: %s", errValue)
	}
	return nil
}

// ExtractData downloads the data archive of a finished simulation into
// the data folder.
func (m *Manager) ExtractData(ctx context.Context, simName string) (string, error) {
	c, err := m.newClient()
	if err != nil {
		return "", err
	}
	if err := c.Connect(ctx); err != nil {
		return "", err
	}
	data, err := c.ExtractData(ctx, simName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.root, DataDir, simName+"_data.tar.gz")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing data archive: %w", err)
	}
	m.log.Infof("data archive written to %s", path)
	return path, nil
}

// RetrieveSupportedEnvironments fetches the server's environment list
// and stores it as a capability descriptor in the settings folder.
func (m *Manager) RetrieveSupportedEnvironments(ctx context.Context) ([]string, error) {
	c, err := m.newClient()
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	envs, err := c.SupportedEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(m.settingsDir(), supportedEnvsFile)
	if err := writeEnvironmentsFile(path, envs); err != nil {
		return nil, err
	}
	m.log.Infof("supported environments written to %s", path)
	return envs, nil
}

// RetrieveEnvironmentInfo downloads the map metadata archive for an
// environment into the maps folder.
func (m *Manager) RetrieveEnvironmentInfo(ctx context.Context, envName string) (string, error) {
	c, err := m.newClient()
	if err != nil {
		return "", err
	}
	if err := c.Connect(ctx); err != nil {
		return "", err
	}
	data, err := c.EnvironmentInformation(ctx, envName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.root, MapsDir, mapArchiveFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing map archive: %w", err)
	}
	m.log.Infof("map archive written to %s", path)
	return path, nil
}

func (m *Manager) loadUserCode() (string, error) {
	if m.UserCode == "" {
		return "", nil
	}
	data, err := os.ReadFile(m.UserCode)
	if err != nil {
		return "", fmt.Errorf("reading user code %s: %w", m.UserCode, err)
	}
	return string(data), nil
}
