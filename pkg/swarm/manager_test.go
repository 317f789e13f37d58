package swarm

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/codexlabs/swarm-rds-client/pkg/config"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
)

const testModulesJSON = `{
  "SupportedModules": {
    "HighLevelBehavior": {
      "ValidClassNames": ["WaypointFollower"],
      "ValidParameters": {
        "WaypointFollower": {
          "speed": {"type": "float", "range": [0, 20]}
        }
      },
      "ValidInputArgs": {"WaypointFollower": ["position"]},
      "ValidReturnValues": {"WaypointFollower": ["velocity"]}
    },
    "ValidModuleParameters": ["Algorithm", "Parameters", "Publishes", "Subscribes"],
    "ValidMessageTypes": ["Trajectory", "VehicleState"],
    "ValidModuleNames": ["HighLevelBehavior"]
  }
}`

const testEnvironmentsJSON = `{
  "Environments": {
    "Warehouse": {"Levels": ["GroundFloor", "Mezzanine"]}
  }
}`

const testScenariosJSON = `{"Scenarios": ["DataCollection"]}`

const testSettingsJSON = `{
  "ID": 1,
  "RunLength": 120.0,
  "SimulationName": "placeholder",
  "Scenario": {
    "Name": "DataCollection",
    "Options": {
      "LevelNames": ["GroundFloor"],
      "MultiLevel": false,
      "GoalPoint": {"Drone1": {"X": 10.0, "Y": 5.0, "Z": -2.0}}
    }
  },
  "Environment": {
    "Name": "Warehouse",
    "StreamVideo": false,
    "StartingLevelName": "GroundFloor"
  },
  "Agents": {
    "Drone1": {
      "Vehicle": "Multirotor",
      "AutoPilot": "SWARM",
      "StartingPosition": {"X": 0.0, "Y": 0.0, "Z": 0.0},
      "VehicleOptions": {},
      "Controller": {"Name": "SWARMBase", "Gains": {"P": 2.5}},
      "Sensors": {
        "IMU": {"Enabled": true, "Method": "Colosseum", "PublishingRate": 100.0}
      },
      "SoftwareModules": {
        "HighLevelBehavior": {
          "Algorithm": {
            "Level": 1,
            "ClassName": "WaypointFollower",
            "Parameters": {"speed": 5.0},
            "InputArgs": ["position"],
            "ReturnValues": ["velocity"]
          },
          "Publishes": ["Trajectory"],
          "Subscribes": ["VehicleState"]
        }
      }
    }
  }
}`

const testTrajectoryJSON = `{
  "Trajectory": [
    {"X": 0.0, "Y": 0.0, "Z": -2.0, "Heading": 90.0, "Speed": 5.0},
    {"X": 10.0, "Y": 0.0, "Z": -2.0, "Heading": 90.0, "Speed": 5.0}
  ]
}`

func writeWorkspaceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	settingsDir := filepath.Join(root, SettingsDir)
	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		t.Fatalf("creating settings dir: %v", err)
	}
	writeWorkspaceFile(t, settingsDir, settings.LicenseFile,
		`{"Key": "TEST-KEY", "Activated": true, "AccountID": "acct-1"}`)
	writeWorkspaceFile(t, settingsDir, "SupportedSoftwareModules.json", testModulesJSON)
	writeWorkspaceFile(t, settingsDir, "SupportedEnvironments.json", testEnvironmentsJSON)
	writeWorkspaceFile(t, settingsDir, "SupportedScenarios.json", testScenariosJSON)
	writeWorkspaceFile(t, settingsDir, settings.DefaultSettingsFile, testSettingsJSON)
	writeWorkspaceFile(t, settingsDir, settings.DefaultTrajectoryFile, testTrajectoryJSON)
	return root
}

func newTestManager(t *testing.T, server *config.Server) *Manager {
	t.Helper()
	if server == nil {
		server = &config.Server{Name: "Test", Host: "127.0.0.1", Port: config.DefaultPort}
	}
	m, err := NewManager(setupWorkspace(t), server)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestBuildSimulation(t *testing.T) {
	m := newTestManager(t, nil)

	simName, err := m.BuildSimulation("survey-1", settings.DefaultSettingsFile, settings.DefaultTrajectoryFile)
	if err != nil {
		t.Fatalf("BuildSimulation: %v", err)
	}
	if simName != "survey-1" {
		t.Errorf("custom name not honored, got %s", simName)
	}

	// The settings file on disk picks up the simulation name.
	doc, err := settings.LoadDocument(filepath.Join(m.settingsDir(), settings.DefaultSettingsFile))
	if err != nil {
		t.Fatalf("reloading settings: %v", err)
	}
	if doc.SimulationName() != "survey-1" {
		t.Errorf("settings file not renamed, got %q", doc.SimulationName())
	}

	list, err := settings.LoadSubmissionList(m.settingsDir())
	if err != nil {
		t.Fatalf("loading submission list: %v", err)
	}
	if _, ok := list.Submissions["survey-1"]; !ok {
		t.Error("submission not recorded")
	}

	// A generated name is a fresh unique one.
	generated, err := m.BuildSimulation("", settings.DefaultSettingsFile, settings.DefaultTrajectoryFile)
	if err != nil {
		t.Fatalf("BuildSimulation with generated name: %v", err)
	}
	if generated == "" || generated == "survey-1" {
		t.Errorf("unexpected generated name %q", generated)
	}
}

func TestValidateSubmission(t *testing.T) {
	m := newTestManager(t, nil)
	simName, err := m.BuildSimulation("", settings.DefaultSettingsFile, settings.DefaultTrajectoryFile)
	if err != nil {
		t.Fatalf("BuildSimulation: %v", err)
	}

	settingsResult, trajectoryResult, err := m.ValidateSubmission(simName)
	if err != nil {
		t.Fatalf("ValidateSubmission: %v", err)
	}
	if !settingsResult.OK() {
		t.Errorf("settings should validate, got %v", settingsResult.First())
	}
	if !trajectoryResult.OK() {
		t.Errorf("trajectory should validate, got %v", trajectoryResult.First())
	}

	if _, _, err := m.ValidateSubmission("never-built"); err == nil {
		t.Error("expected an error for an unknown submission")
	}
}

func TestRunSimulationRejectsInvalidSettings(t *testing.T) {
	m := newTestManager(t, nil)

	// Corrupt the settings file before building.
	path := filepath.Join(m.settingsDir(), settings.DefaultSettingsFile)
	doc, err := settings.LoadDocument(path)
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}
	doc["RunLength"] = 1.0
	if err := doc.Save(path); err != nil {
		t.Fatalf("saving settings: %v", err)
	}

	simName, err := m.BuildSimulation("", settings.DefaultSettingsFile, settings.DefaultTrajectoryFile)
	if err != nil {
		t.Fatalf("BuildSimulation: %v", err)
	}
	if err := m.RunSimulation(context.Background(), simName); err == nil {
		t.Fatal("expected run to fail validation")
	}
}

func TestRunSimulationAgainstFakeServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		dec := json.NewDecoder(conn)

		var header, payload struct {
			ID   int                    `json:"ID"`
			Type string                 `json:"Type"`
			Body map[string]interface{} `json:"Body"`
		}
		if err := dec.Decode(&header); err != nil {
			t.Errorf("reading header: %v", err)
			return
		}
		if err := dec.Decode(&payload); err != nil {
			t.Errorf("reading payload: %v", err)
			return
		}
		if payload.Body["Command"] != "Run Simulation" {
			t.Errorf("unexpected command: %v", payload.Body["Command"])
		}
		if payload.Body["Map_name"] != "Warehouse" {
			t.Errorf("map name not taken from the settings document: %v", payload.Body["Map_name"])
		}
		response, _ := json.Marshal(map[string]interface{}{
			"ID":   payload.ID,
			"Type": "Singular",
			"Body": map[string]interface{}{
				"Status": "Completed", "Minutes": 2, "Seconds": 5,
			},
		})
		_, _ = conn.Write(response)
	}()

	port, _ := strconv.Atoi(strings.TrimPrefix(listener.Addr().String(), "127.0.0.1:"))
	m := newTestManager(t, &config.Server{Name: "Fake", Host: "127.0.0.1", Port: port})

	simName, err := m.BuildSimulation("", settings.DefaultSettingsFile, settings.DefaultTrajectoryFile)
	if err != nil {
		t.Fatalf("BuildSimulation: %v", err)
	}
	if err := m.RunSimulation(context.Background(), simName); err != nil {
		t.Fatalf("RunSimulation: %v", err)
	}

	history, err := settings.LoadHistory(m.settingsDir())
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if len(history.History) != 1 || !history.History[0].Completed {
		t.Errorf("completion not recorded in history: %+v", history.History)
	}
}
