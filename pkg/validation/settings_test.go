package validation

import (
	"io"
	"testing"

	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

func quietLogger() logger.Logger {
	return logger.NewWithConfig(logger.Config{Level: logger.FatalLevel, Writer: io.Discard})
}

func newTestValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	opts = append(opts, WithLogger(quietLogger()))
	return New(testDescriptorSet(), opts...)
}

func testDescriptorSet() *descriptor.Set {
	return &descriptor.Set{
		Modules: &descriptor.ModuleDescriptor{
			Modules: map[string]*descriptor.ModuleCapability{
				"HighLevelBehavior": {
					ValidClassNames: []string{"WaypointFollower"},
					ValidParameters: map[string]map[string]*descriptor.ParameterRule{
						"WaypointFollower": {
							"speed":       {Type: descriptor.TypeFloat, Range: []float64{0, 20}},
							"mode":        {Type: descriptor.TypeString, ValidEntries: descriptor.EntrySet{"Aggressive", "Smooth"}},
							"camera_name": {Type: descriptor.TypeString, ValidEntries: descriptor.EntrySet{"*"}},
							"gains": {
								Type:          descriptor.TypeList,
								Length:        3,
								FieldDataType: descriptor.TypeFloat,
								FieldRange:    []float64{0, 10},
							},
						},
					},
					ValidInputArgs:    map[string][]string{"WaypointFollower": {"position", "velocity"}},
					ValidReturnValues: map[string][]string{"WaypointFollower": {"velocity"}},
					ValidModuleParameters: map[string]*descriptor.ParameterRule{
						"publish_rate": {Type: descriptor.TypeFloat, Range: []float64{1, 100}},
					},
				},
				"ObstacleAvoidance": {
					ValidClassNames: []string{"VFH"},
				},
			},
			ValidModuleSettings: []string{"Algorithm", "Parameters", "Publishes", "Subscribes", "States"},
			ValidMessageTypes:   []string{"Trajectory", "PointCloud", "VehicleState"},
		},
		Environments: &descriptor.EnvironmentDescriptor{
			Environments: map[string]*descriptor.EnvironmentInfo{
				"Warehouse": {
					Levels: []string{"GroundFloor", "Mezzanine"},
					Options: map[string]*descriptor.EnvironmentOption{
						"Weather": {ValidOptions: []string{"Clear", "Rain"}, DefaultValue: "Clear"},
					},
				},
			},
		},
		Scenarios: &descriptor.ScenarioDescriptor{Scenarios: []string{"DataCollection"}},
		Physics:   testPhysicsDescriptor(),
	}
}

func testPhysicsDescriptor() *descriptor.PhysicsDescriptor {
	return &descriptor.PhysicsDescriptor{
		Vehicles: map[string]*descriptor.PhysicsSection{
			"Multirotor": {
				ValidSubSections: []string{"Motors"},
				Rules: map[string]*descriptor.PhysicsRule{
					"Mass":      {Type: descriptor.TypeFloat, Min: 0.1, Max: 25},
					"FrameType": {Type: descriptor.TypeString, ValidEntries: mustJSON(`["X", "Plus"]`)},
				},
				Sections: map[string]*descriptor.PhysicsSection{
					"Motors": {
						Rules: map[string]*descriptor.PhysicsRule{
							"Count":   {Type: descriptor.TypeInteger, ValidEntries: mustJSON(`[4, 6, 8]`)},
							"MaxRPM":  {Type: descriptor.TypeFloat, Min: 1000, Max: 30000},
							"Vendor":  {Type: descriptor.TypeString, ValidEntries: mustJSON(`["*"]`)},
							"Enabled": {Type: descriptor.TypeBoolean},
						},
					},
				},
			},
		},
	}
}

func mustJSON(s string) []byte {
	return []byte(s)
}

func validCamera() map[string]interface{} {
	return map[string]interface{}{
		"Enabled":     true,
		"PublishPose": false,
		"X":           0.2,
		"Y":           0.0,
		"Z":           -0.1,
		"Roll":        0.0,
		"Pitch":       -15.0,
		"Yaw":         0.0,
		"Settings": map[string]interface{}{
			"ImageType":       "Scene",
			"Width":           1280.0,
			"Height":          720.0,
			"FOV_Degrees":     90.0,
			"FramesPerSecond": 20.0,
		},
	}
}

func validLiDAR() map[string]interface{} {
	return map[string]interface{}{
		"Enabled":        true,
		"Method":         "Colosseum",
		"Hardware":       "VLP-16",
		"X":              0.0,
		"Y":              0.0,
		"Z":              -0.2,
		"Roll":           0.0,
		"Pitch":          0.0,
		"Yaw":            0.0,
		"PublishingRate": 10.0,
		"Settings": map[string]interface{}{
			"Range":              100.0,
			"NumberOfChannels":   16.0,
			"RotationsPerSecond": 10.0,
			"PointsPerSecond":    300000.0,
			"VerticalFOVUpper":   15.0,
			"VerticalFOVLower":   -15.0,
			"DataFrame":          "SensorLocalFrame",
		},
	}
}

func validAgent() map[string]interface{} {
	return map[string]interface{}{
		"Vehicle":   "Multirotor",
		"AutoPilot": "SWARM",
		"StartingPosition": map[string]interface{}{
			"X": 0.0, "Y": 0.0, "Z": 0.0,
		},
		"VehicleOptions": map[string]interface{}{},
		"Controller": map[string]interface{}{
			"Name":  "SWARMBase",
			"Gains": map[string]interface{}{"P": 2.5, "D": 0.4},
		},
		"Sensors": map[string]interface{}{
			"IMU": map[string]interface{}{
				"Enabled": true, "Method": "Colosseum", "PublishingRate": 100.0,
			},
			"Cameras": map[string]interface{}{
				"FrontCamera": validCamera(),
			},
		},
		"SoftwareModules": map[string]interface{}{
			"HighLevelBehavior": map[string]interface{}{
				"Algorithm": map[string]interface{}{
					"Level":        1.0,
					"ClassName":    "WaypointFollower",
					"Parameters":   map[string]interface{}{"speed": 5.0, "mode": "Smooth"},
					"InputArgs":    []interface{}{"position"},
					"ReturnValues": []interface{}{"velocity"},
				},
				"Publishes":  []interface{}{"Trajectory"},
				"Subscribes": []interface{}{"VehicleState"},
			},
		},
	}
}

func validDocument() map[string]interface{} {
	return map[string]interface{}{
		"ID":             1.0,
		"RunLength":      120.0,
		"SimulationName": "warehouse-survey",
		"Scenario": map[string]interface{}{
			"Name": "DataCollection",
			"Options": map[string]interface{}{
				"LevelNames": []interface{}{"GroundFloor"},
				"MultiLevel": false,
				"GoalPoint": map[string]interface{}{
					"Drone1": map[string]interface{}{"X": 10.0, "Y": 5.0, "Z": -2.0},
				},
			},
		},
		"Environment": map[string]interface{}{
			"Name":              "Warehouse",
			"StreamVideo":       false,
			"StartingLevelName": "GroundFloor",
			"Options": map[string]interface{}{
				"Weather": "Clear",
			},
		},
		"Agents": map[string]interface{}{
			"Drone1": validAgent(),
		},
	}
}

func agentSection(doc map[string]interface{}, keys ...string) map[string]interface{} {
	section := doc["Agents"].(map[string]interface{})["Drone1"].(map[string]interface{})
	for _, key := range keys {
		section = section[key].(map[string]interface{})
	}
	return section
}

func TestValidateSettingsValidDocument(t *testing.T) {
	v := newTestValidator(t)
	res := v.ValidateSettings(validDocument())
	if !res.OK() {
		t.Fatalf("valid document failed validation: %v", res.First())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("valid document raised warnings: %v", res.Warnings)
	}
}

func TestValidateSettingsViolations(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(doc map[string]interface{})
		wantKind Kind
	}{
		{
			name:     "missing top level section",
			mutate:   func(doc map[string]interface{}) { delete(doc, "RunLength") },
			wantKind: KindStructuralMismatch,
		},
		{
			name:     "unexpected top level section",
			mutate:   func(doc map[string]interface{}) { doc["Extra"] = 1.0 },
			wantKind: KindStructuralMismatch,
		},
		{
			name:     "non integer id",
			mutate:   func(doc map[string]interface{}) { doc["ID"] = "first" },
			wantKind: KindTypeMismatch,
		},
		{
			name:     "run length below minimum",
			mutate:   func(doc map[string]interface{}) { doc["RunLength"] = 10.0 },
			wantKind: KindRangeViolation,
		},
		{
			name:     "run length just below minimum",
			mutate:   func(doc map[string]interface{}) { doc["RunLength"] = 29.999 },
			wantKind: KindRangeViolation,
		},
		{
			name:     "run length just above maximum",
			mutate:   func(doc map[string]interface{}) { doc["RunLength"] = 9999.01 },
			wantKind: KindRangeViolation,
		},
		{
			name: "unsupported scenario",
			mutate: func(doc map[string]interface{}) {
				doc["Scenario"].(map[string]interface{})["Name"] = "Racing"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "level missing from environment",
			mutate: func(doc map[string]interface{}) {
				options := doc["Scenario"].(map[string]interface{})["Options"].(map[string]interface{})
				options["LevelNames"] = []interface{}{"Basement"}
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "goal point count does not match agents",
			mutate: func(doc map[string]interface{}) {
				options := doc["Scenario"].(map[string]interface{})["Options"].(map[string]interface{})
				options["GoalPoint"].(map[string]interface{})["Drone2"] = map[string]interface{}{
					"X": 0.0, "Y": 0.0, "Z": 0.0,
				}
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "goal point with extra key",
			mutate: func(doc map[string]interface{}) {
				options := doc["Scenario"].(map[string]interface{})["Options"].(map[string]interface{})
				options["GoalPoint"].(map[string]interface{})["Drone1"].(map[string]interface{})["Heading"] = 90.0
			},
			wantKind: KindStructuralMismatch,
		},
		{
			name: "goal point out of bounds",
			mutate: func(doc map[string]interface{}) {
				options := doc["Scenario"].(map[string]interface{})["Options"].(map[string]interface{})
				options["GoalPoint"].(map[string]interface{})["Drone1"].(map[string]interface{})["X"] = 5000.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "unsupported environment",
			mutate: func(doc map[string]interface{}) {
				doc["Environment"].(map[string]interface{})["Name"] = "Mars"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "starting level not listed in scenario",
			mutate: func(doc map[string]interface{}) {
				doc["Environment"].(map[string]interface{})["StartingLevelName"] = "Mezzanine"
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "unknown environment option",
			mutate: func(doc map[string]interface{}) {
				env := doc["Environment"].(map[string]interface{})
				env["Options"].(map[string]interface{})["TimeOfDay"] = "Night"
			},
			wantKind: KindUnknownField,
		},
		{
			name: "environment option outside valid set",
			mutate: func(doc map[string]interface{}) {
				env := doc["Environment"].(map[string]interface{})
				env["Options"].(map[string]interface{})["Weather"] = "Snow"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "too many agents",
			mutate: func(doc map[string]interface{}) {
				agents := doc["Agents"].(map[string]interface{})
				options := doc["Scenario"].(map[string]interface{})["Options"].(map[string]interface{})
				goals := options["GoalPoint"].(map[string]interface{})
				for _, name := range []string{"Drone2", "Drone3", "Drone4", "Drone5", "Drone6"} {
					agents[name] = validAgent()
					goals[name] = map[string]interface{}{"X": 10.0, "Y": 5.0, "Z": -2.0}
				}
			},
			wantKind: KindStructuralMismatch,
		},
		{
			name: "unsupported vehicle",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc)["Vehicle"] = "Rover"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "px4 without magnetometers",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc)["AutoPilot"] = "PX4"
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "starting position out of bounds",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "StartingPosition")["X"] = -2000.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "ros node without coordinate frame",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "VehicleOptions")["RunROSNode"] = true
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "invalid host ip",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "VehicleOptions")["LocalHostIP"] = "999.1.1.1"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "unsupported controller",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "Controller")["Name"] = "PID"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "controller gain out of range",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "Controller", "Gains")["P"] = 25.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "camera width out of range",
			mutate: func(doc map[string]interface{}) {
				camera := agentSection(doc, "Sensors", "Cameras", "FrontCamera")
				camera["Settings"].(map[string]interface{})["Width"] = 320.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "unsupported sensor type",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "Sensors")["Sonar"] = map[string]interface{}{}
			},
			wantKind: KindUnknownField,
		},
		{
			name: "imu rate above ceiling",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "Sensors", "IMU")["PublishingRate"] = 500.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "lidar distance bounds inverted",
			mutate: func(doc map[string]interface{}) {
				lidar := validLiDAR()
				settings := lidar["Settings"].(map[string]interface{})
				settings["MinDistance"] = 5.0
				settings["MaxDistance"] = 3.0
				agentSection(doc, "Sensors")["LiDAR"] = lidar
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "lidar channel count out of range",
			mutate: func(doc map[string]interface{}) {
				lidar := validLiDAR()
				lidar["Settings"].(map[string]interface{})["NumberOfChannels"] = 64.0
				agentSection(doc, "Sensors")["LiDAR"] = lidar
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "unsupported software module",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "SoftwareModules")["Teleport"] = map[string]interface{}{}
			},
			wantKind: KindUnknownField,
		},
		{
			name: "obstacle avoidance without lidar",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "SoftwareModules")["ObstacleAvoidance"] = map[string]interface{}{
					"Algorithm": map[string]interface{}{"Level": 1.0, "ClassName": "VFH"},
				}
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "algorithm level out of range",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm")["Level"] = 5.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "unknown class name",
			mutate: func(doc map[string]interface{}) {
				agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm")["ClassName"] = "Sprinter"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "unknown algorithm parameter",
			mutate: func(doc map[string]interface{}) {
				params := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm", "Parameters")
				params["turbo"] = true
			},
			wantKind: KindUnknownField,
		},
		{
			name: "algorithm parameter out of range",
			mutate: func(doc map[string]interface{}) {
				params := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm", "Parameters")
				params["speed"] = 50.0
			},
			wantKind: KindRangeViolation,
		},
		{
			name: "algorithm parameter outside enum",
			mutate: func(doc map[string]interface{}) {
				params := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm", "Parameters")
				params["mode"] = "Reckless"
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "invalid input argument",
			mutate: func(doc map[string]interface{}) {
				algo := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm")
				algo["InputArgs"] = []interface{}{"attitude"}
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "unsupported published message",
			mutate: func(doc map[string]interface{}) {
				module := agentSection(doc, "SoftwareModules", "HighLevelBehavior")
				module["Publishes"] = []interface{}{"Telepathy"}
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "camera reference to missing camera",
			mutate: func(doc map[string]interface{}) {
				params := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm", "Parameters")
				params["camera_name"] = "RearCamera"
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "camera reference without image subscription",
			mutate: func(doc map[string]interface{}) {
				params := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm", "Parameters")
				params["camera_name"] = "FrontCamera"
			},
			wantKind: KindCrossFieldViolation,
		},
		{
			name: "image collection format",
			mutate: func(doc map[string]interface{}) {
				doc["Data"] = map[string]interface{}{
					"Images": map[string]interface{}{"Format": "JPEG", "ImagesPerSecond": 10.0},
				}
			},
			wantKind: KindInvalidEnumValue,
		},
		{
			name: "video references missing camera",
			mutate: func(doc map[string]interface{}) {
				doc["Data"] = map[string]interface{}{
					"Video": map[string]interface{}{
						"Format": "MP4", "VideoName": "run1", "CameraName": "RearCamera",
					},
				}
			},
			wantKind: KindCrossFieldViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)
			res := newTestValidator(t).ValidateSettings(doc)
			if res.OK() {
				t.Fatal("expected a violation, document validated")
			}
			if res.First().Kind != tt.wantKind {
				t.Errorf("expected %v, got %v (%s)", tt.wantKind, res.First().Kind, res.First())
			}
		})
	}
}

func TestValidateSettingsRunLengthBoundaries(t *testing.T) {
	for _, runLength := range []float64{30.0, 9999.0} {
		doc := validDocument()
		doc["RunLength"] = runLength
		res := newTestValidator(t).ValidateSettings(doc)
		if !res.OK() {
			t.Errorf("RunLength %v at the bound should pass, got %v", runLength, res.First())
		}
	}
}

func TestValidateSettingsLevelThreeSkipsAlgorithmChecks(t *testing.T) {
	doc := validDocument()
	algo := agentSection(doc, "SoftwareModules", "HighLevelBehavior", "Algorithm")
	algo["Level"] = 3.0
	algo["ClassName"] = "UserDefined"
	algo["Parameters"].(map[string]interface{})["anything"] = "goes"

	res := newTestValidator(t).ValidateSettings(doc)
	if !res.OK() {
		t.Fatalf("level 3 module should skip class checks, got %v", res.First())
	}
}

func TestValidateSettingsFailFastStopsAtFirst(t *testing.T) {
	doc := validDocument()
	doc["RunLength"] = 1.0
	doc["Scenario"].(map[string]interface{})["Name"] = "Racing"

	res := newTestValidator(t).ValidateSettings(doc)
	if len(res.Violations) != 1 {
		t.Fatalf("fail-fast should stop at the first violation, got %d", len(res.Violations))
	}
	if res.First().Kind != KindRangeViolation {
		t.Errorf("expected the RunLength violation first, got %v", res.First())
	}
}

func TestValidateSettingsAggregateCollectsAll(t *testing.T) {
	doc := validDocument()
	doc["RunLength"] = 1.0
	doc["Scenario"].(map[string]interface{})["Name"] = "Racing"
	agentSection(doc, "Controller", "Gains")["P"] = 99.0

	res := newTestValidator(t, WithAggregation()).ValidateSettings(doc)
	if len(res.Violations) != 3 {
		t.Fatalf("expected 3 violations in aggregate mode, got %d: %v", len(res.Violations), res.Violations)
	}
}

func TestValidateSettingsMissingDescriptors(t *testing.T) {
	v := New(nil, WithLogger(quietLogger()))
	res := v.ValidateSettings(validDocument())
	if res.OK() {
		t.Fatal("expected a violation without descriptors")
	}
	if res.First().Kind != KindMissingDescriptor {
		t.Errorf("expected missing descriptor violation, got %v", res.First())
	}
}
