package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
	  "SimulationName": "demo",
	  "Environment": {"Name": "Warehouse"},
	  "RunLength": 120.0
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.SimulationName() != "demo" {
		t.Errorf("expected simulation name demo, got %q", doc.SimulationName())
	}
	if doc.EnvironmentName() != "Warehouse" {
		t.Errorf("expected environment Warehouse, got %q", doc.EnvironmentName())
	}

	doc.SetSimulationName("renamed")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if reloaded.SimulationName() != "renamed" {
		t.Errorf("rename not persisted, got %q", reloaded.SimulationName())
	}
}

func TestLoadTrajectoryForms(t *testing.T) {
	dir := t.TempDir()

	flat := filepath.Join(dir, "flat.json")
	if err := os.WriteFile(flat, []byte(`{"Trajectory": [{"X": 1.0}]}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	trajectory, err := LoadTrajectory(flat)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if points, ok := trajectory.([]interface{}); !ok || len(points) != 1 {
		t.Errorf("flat trajectory not decoded: %v", trajectory)
	}

	multi := filepath.Join(dir, "multi.json")
	if err := os.WriteFile(multi, []byte(`{"Trajectory": {"GroundFloor": []}}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	trajectory, err = LoadTrajectory(multi)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if _, ok := trajectory.(map[string]interface{}); !ok {
		t.Errorf("multi-level trajectory not decoded: %v", trajectory)
	}

	missing := filepath.Join(dir, "missing.json")
	if err := os.WriteFile(missing, []byte(`{"Points": []}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadTrajectory(missing); err == nil {
		t.Error("expected an error for a file without a Trajectory section")
	}
}

func TestSubmissionTracking(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureWorkspace(dir); err != nil {
		t.Fatalf("EnsureWorkspace: %v", err)
	}
	// Idempotent on an existing workspace.
	if err := EnsureWorkspace(dir); err != nil {
		t.Fatalf("EnsureWorkspace second run: %v", err)
	}

	list, err := LoadSubmissionList(dir)
	if err != nil {
		t.Fatalf("LoadSubmissionList: %v", err)
	}
	name := NewSimulationName()
	if name == "" || name == NewSimulationName() {
		t.Fatal("simulation names must be unique and non-empty")
	}

	sub := list.Record(name, `{"SimulationName":"x"}`, `{"Trajectory":[]}`)
	if sub.NumberOfRuns != 1 || !sub.Submitted || sub.Completed {
		t.Errorf("unexpected new submission state: %+v", sub)
	}
	again := list.Record(name, `{"SimulationName":"y"}`, `{"Trajectory":[]}`)
	if again.NumberOfRuns != 2 {
		t.Errorf("expected run counter 2, got %d", again.NumberOfRuns)
	}
	if err := list.Save(dir); err != nil {
		t.Fatalf("saving list: %v", err)
	}

	settingsJSON, _, err := list.Package(name)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if settingsJSON != `{"SimulationName":"y"}` {
		t.Errorf("unexpected stored settings: %s", settingsJSON)
	}
	if _, _, err := list.Package("unknown"); err == nil {
		t.Error("expected an error for an unknown simulation")
	}

	if err := RecordCompletion(dir, name, "Completed"); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	history, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history.History) != 1 || !history.History[0].Completed {
		t.Errorf("completion not recorded: %+v", history.History)
	}
	reloaded, err := LoadSubmissionList(dir)
	if err != nil {
		t.Fatalf("reloading list: %v", err)
	}
	if !reloaded.Submissions[name].Completed {
		t.Error("completion not persisted in the submission list")
	}
}
