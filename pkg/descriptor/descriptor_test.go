package descriptor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const modulesJSON = `{
  "SupportedModules": {
    "HighLevelBehavior": {
      "ValidClassNames": ["WaypointFollower"],
      "ValidParameters": {
        "WaypointFollower": {
          "speed": {"type": "float", "range": [0, 20]},
          "mode": {"type": "str", "valid_entries": ["Aggressive", "Smooth"]},
          "gains": {"type": "list", "length": 3, "field_data_type": "float", "field_range": [0, 10]}
        }
      },
      "ValidInputArgs": {"WaypointFollower": ["position"]},
      "ValidReturnValues": {"WaypointFollower": ["velocity"]},
      "ValidModuleParameters": {
        "publish_rate": {"type": "float", "range": [1, 100]}
      }
    },
    "ValidModuleParameters": ["Algorithm", "Parameters", "Publishes", "Subscribes"],
    "ValidMessageTypes": ["Trajectory", "PointCloud"],
    "ValidModuleNames": ["HighLevelBehavior"]
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadModules(t *testing.T) {
	path := writeFile(t, t.TempDir(), ModulesFile, modulesJSON)
	d, err := LoadModules(path)
	if err != nil {
		t.Fatalf("LoadModules: %v", err)
	}

	if len(d.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(d.Modules))
	}
	mod, ok := d.Module("HighLevelBehavior")
	if !ok {
		t.Fatal("HighLevelBehavior module not decoded")
	}
	if !mod.HasClass("WaypointFollower") {
		t.Error("WaypointFollower class not decoded")
	}

	// Reserved keys must land in the global lists, not become modules.
	if _, ok := d.Module("ValidMessageTypes"); ok {
		t.Error("reserved key decoded as a module")
	}
	if !d.AllowsSetting("Algorithm") {
		t.Error("ValidModuleParameters list not decoded")
	}
	if !d.AllowsMessageType("PointCloud") {
		t.Error("ValidMessageTypes list not decoded")
	}

	rule, ok := d.Resolve("HighLevelBehavior", "WaypointFollower", "speed")
	if !ok {
		t.Fatal("Resolve failed for a declared parameter")
	}
	if rule.Type != TypeFloat {
		t.Errorf("expected float rule, got %v", rule.Type)
	}
	if !rule.HasRange() || rule.Range[1] != 20 {
		t.Errorf("rule range not decoded: %v", rule.Range)
	}

	gains, _ := d.Resolve("HighLevelBehavior", "WaypointFollower", "gains")
	if gains.Length != 3 || gains.FieldDataType != TypeFloat || !gains.HasFieldRange() {
		t.Errorf("list rule not decoded: %+v", gains)
	}

	if _, ok := d.Resolve("HighLevelBehavior", "WaypointFollower", "missing"); ok {
		t.Error("Resolve returned a rule for an undeclared parameter")
	}

	params := mod.ValidModuleParameters
	if params["publish_rate"] == nil || params["publish_rate"].Type != TypeFloat {
		t.Errorf("module-level parameter rules not decoded: %+v", params)
	}
}

func TestLoadEnvironmentsMappingForm(t *testing.T) {
	content := `{
	  "Environments": {
	    "Warehouse": {
	      "Levels": ["GroundFloor", "Mezzanine"],
	      "Options": {
	        "Weather": {"ValidOptions": ["Clear", "Rain"], "DefaultValue": "Clear", "Description": "Sky state"}
	      }
	    }
	  }
	}`
	path := writeFile(t, t.TempDir(), EnvironmentsFile, content)
	d, err := LoadEnvironments(path)
	if err != nil {
		t.Fatalf("LoadEnvironments: %v", err)
	}
	if !d.Supports("Warehouse") {
		t.Error("Warehouse environment not decoded")
	}
	if !d.SupportsLevel("Warehouse", "Mezzanine") {
		t.Error("levels not decoded")
	}
	if d.SupportsLevel("Warehouse", "Basement") {
		t.Error("unknown level reported as supported")
	}
	opt := d.Environments["Warehouse"].Options["Weather"]
	if opt == nil || opt.DefaultValue != "Clear" {
		t.Errorf("environment options not decoded: %+v", opt)
	}
}

func TestLoadEnvironmentsListForm(t *testing.T) {
	content := `{"Environments": ["Warehouse", "OpenField"]}`
	path := writeFile(t, t.TempDir(), EnvironmentsFile, content)
	d, err := LoadEnvironments(path)
	if err != nil {
		t.Fatalf("LoadEnvironments: %v", err)
	}
	if !d.Supports("OpenField") {
		t.Error("list-form environment not decoded")
	}
	if d.SupportsLevel("OpenField", "Anything") {
		t.Error("list-form environments carry no levels")
	}
}

func TestLoadVehiclePhysics(t *testing.T) {
	content := `{
	  "Multirotor": {
	    "ValidSubSections": ["Motors"],
	    "Mass": {"Type": "float", "Min": 0.1, "Max": 25},
	    "FrameType": {"Type": "str", "ValidEntries": ["X", "Plus"]},
	    "Motors": {
	      "Count": {"Type": "int", "ValidEntries": [4, 6, 8]},
	      "MaxRPM": {"Type": "float", "Min": 1000, "Max": 30000}
	    }
	  }
	}`
	path := writeFile(t, t.TempDir(), PhysicsFile, content)
	d, err := LoadVehiclePhysics(path)
	if err != nil {
		t.Fatalf("LoadVehiclePhysics: %v", err)
	}
	tree, ok := d.Vehicle("Multirotor")
	if !ok {
		t.Fatal("Multirotor tree not decoded")
	}
	if !tree.IsSubSection("Motors") {
		t.Error("ValidSubSections not decoded")
	}
	if tree.Rules["Mass"] == nil || tree.Rules["Mass"].Max != 25 {
		t.Errorf("leaf rule not decoded: %+v", tree.Rules["Mass"])
	}
	if tree.Sections["Motors"] == nil {
		t.Fatal("nested section not decoded")
	}
	count := tree.Sections["Motors"].Rules["Count"]
	if count == nil || count.Type != TypeInteger {
		t.Fatalf("nested rule not decoded: %+v", count)
	}
	entries := count.NumericEntries()
	if len(entries) != 3 || entries[0] != 4 {
		t.Errorf("numeric entries not decoded: %v", entries)
	}
	frame := tree.Rules["FrameType"].StringEntries()
	if len(frame) != 2 || frame[1] != "Plus" {
		t.Errorf("string entries not decoded: %v", frame)
	}
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ModulesFile, modulesJSON)
	writeFile(t, dir, EnvironmentsFile, `{"Environments": ["Warehouse"]}`)
	writeFile(t, dir, ScenariosFile, `{"Scenarios": ["DataCollection"]}`)

	set, err := LoadSet(dir)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if set.Modules == nil || set.Environments == nil || set.Scenarios == nil {
		t.Fatal("required descriptors not loaded")
	}
	// Physics is optional for settings validation.
	if set.Physics != nil {
		t.Error("missing physics file should leave Physics nil")
	}
}

func TestLoadSetMissingDescriptor(t *testing.T) {
	_, err := LoadSet(t.TempDir())
	if err == nil {
		t.Fatal("expected an error for an empty descriptor directory")
	}
	if !errors.Is(err, ErrDescriptorMissing) {
		t.Errorf("expected ErrDescriptorMissing, got %v", err)
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"int", TypeInteger},
		{"integer", TypeInteger},
		{"float", TypeFloat},
		{"str", TypeString},
		{"string", TypeString},
		{"bool", TypeBoolean},
		{"list", TypeList},
		{"dict", TypeMapping},
	}
	for _, tt := range tests {
		got, err := ParseDataType(tt.in)
		if err != nil {
			t.Errorf("ParseDataType(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDataType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDataType("complex"); err == nil {
		t.Error("expected an error for an unknown type name")
	}
}

func TestDataTypeJSONRoundTrip(t *testing.T) {
	var rule ParameterRule
	if err := json.Unmarshal([]byte(`{"type": "dict", "valid_fields": ["*"]}`), &rule); err != nil {
		t.Fatalf("decoding rule: %v", err)
	}
	if rule.Type != TypeMapping {
		t.Errorf("expected mapping type, got %v", rule.Type)
	}
	if !rule.AcceptsAnyField() {
		t.Error("wildcard valid_fields not detected")
	}
	out, err := json.Marshal(rule.Type)
	if err != nil {
		t.Fatalf("encoding type: %v", err)
	}
	if string(out) != `"dict"` {
		t.Errorf("expected \"dict\", got %s", out)
	}
}

func TestEntrySetWildcard(t *testing.T) {
	set := EntrySet{"Red", "*"}
	if !set.HasWildcard() {
		t.Error("wildcard anywhere in the set must count")
	}
	if !set.ContainsString("Red") || set.ContainsString("Blue") {
		t.Error("string membership broken")
	}
	numeric := EntrySet{float64(4), float64(8)}
	if !numeric.ContainsNumber(4) || numeric.ContainsNumber(5) {
		t.Error("numeric membership broken")
	}
}
