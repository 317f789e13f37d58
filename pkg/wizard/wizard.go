// Package wizard interactively assembles simulation settings and
// trajectory files. Every choice it offers comes from the loaded
// capability descriptors, so a finished document always passes
// validation.
package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
	"github.com/codexlabs/swarm-rds-client/pkg/settings"
)

const (
	runLengthMin = 30
	runLengthMax = 9999
	maxAgents    = 5

	positionBound = 999.0
	headingBound  = 360.0
	speedMax      = 20.0
)

// Sensors a module depends on. Selecting the module pulls the sensor
// into the agent automatically.
var moduleSensorNeeds = map[string]string{
	"VideoRecord":       "Cameras",
	"Detector":          "Cameras",
	"ObstacleAvoidance": "LiDAR",
}

var sensorKinds = []string{
	"IMU", "GPS", "Barometers", "Magnetometers", "AirSpeed", "Odometers",
	"Cameras", "LiDAR", "Distance",
}

// Wizard walks the user through building a simulation package.
type Wizard struct {
	caps *descriptor.Set
}

// New creates a wizard over a loaded descriptor snapshot.
func New(caps *descriptor.Set) *Wizard {
	return &Wizard{caps: caps}
}

// BuildSettings prompts for a full settings document. The simulation
// name is left as a placeholder; building the package assigns the real
// one.
func (w *Wizard) BuildSettings() (settings.Document, error) {
	runLength, err := askFloat("Simulation run length in seconds", 120, runLengthMin, runLengthMax)
	if err != nil {
		return nil, err
	}

	envName, err := askSelect("Environment", w.caps.Environments.Names())
	if err != nil {
		return nil, err
	}
	env, _ := w.caps.Environments.Environment(envName)

	var startingLevel string
	levels := env.Levels
	switch len(levels) {
	case 0:
		// List-form descriptors carry no level detail.
		if startingLevel, err = askString("Starting level name", "MainLevel"); err != nil {
			return nil, err
		}
	case 1:
		startingLevel = levels[0]
	default:
		if startingLevel, err = askSelect("Starting level", levels); err != nil {
			return nil, err
		}
	}
	levelNames := []string{startingLevel}
	multiLevel := false
	if len(levels) > 1 {
		if multiLevel, err = askConfirm("Use multiple levels?", false); err != nil {
			return nil, err
		}
		if multiLevel {
			if levelNames, err = askMultiSelect("Levels to use", levels, levels); err != nil {
				return nil, err
			}
		}
	}

	scenarioName, err := askSelect("Scenario", w.caps.Scenarios.Scenarios)
	if err != nil {
		return nil, err
	}
	streamVideo, err := askConfirm("Stream video back during the run?", false)
	if err != nil {
		return nil, err
	}

	agentCount, err := askInt("Number of agents", 1, 1, maxAgents)
	if err != nil {
		return nil, err
	}
	agents := map[string]interface{}{}
	for i := 1; i <= agentCount; i++ {
		name := fmt.Sprintf("Drone%d", i)
		agent, err := w.buildAgent(name)
		if err != nil {
			return nil, err
		}
		agents[name] = agent
	}

	return settings.Document{
		"ID":             1.0,
		"RunLength":      runLength,
		"SimulationName": "unnamed",
		"Scenario": map[string]interface{}{
			"Name": scenarioName,
			"Options": map[string]interface{}{
				"LevelNames": toInterfaceList(levelNames),
				"MultiLevel": multiLevel,
			},
		},
		"Environment": map[string]interface{}{
			"Name":              envName,
			"StreamVideo":       streamVideo,
			"StartingLevelName": startingLevel,
		},
		"Agents": agents,
	}, nil
}

func (w *Wizard) buildAgent(name string) (map[string]interface{}, error) {
	autopilot, err := askSelect(fmt.Sprintf("%s autopilot", name), []string{"SWARM", "PX4"})
	if err != nil {
		return nil, err
	}

	x, err := askFloat(fmt.Sprintf("%s starting X in meters", name), 0, -positionBound, positionBound)
	if err != nil {
		return nil, err
	}
	y, err := askFloat(fmt.Sprintf("%s starting Y in meters", name), 0, -positionBound, positionBound)
	if err != nil {
		return nil, err
	}

	defaults := []string{"IMU", "GPS"}
	if autopilot == "PX4" {
		defaults = append(defaults, "Magnetometers", "Barometers")
	}
	selected, err := askMultiSelect(fmt.Sprintf("%s sensors", name), sensorKinds, defaults)
	if err != nil {
		return nil, err
	}
	if autopilot == "PX4" {
		selected = appendMissing(selected, "IMU", "Magnetometers", "Barometers")
	}

	moduleNames, err := askMultiSelect(fmt.Sprintf("%s software modules", name),
		w.caps.Modules.ModuleNames(), nil)
	if err != nil {
		return nil, err
	}
	for _, moduleName := range moduleNames {
		if need, ok := moduleSensorNeeds[moduleName]; ok {
			selected = appendMissing(selected, need)
		}
	}

	sensors := map[string]interface{}{}
	for _, kind := range selected {
		sensors[kind] = DefaultSensor(kind)
	}

	modules := map[string]interface{}{}
	for _, moduleName := range moduleNames {
		module, err := w.buildModule(moduleName, sensors)
		if err != nil {
			return nil, err
		}
		modules[moduleName] = module
	}

	return map[string]interface{}{
		"Vehicle":   "Multirotor",
		"AutoPilot": autopilot,
		"StartingPosition": map[string]interface{}{
			"X": x, "Y": y, "Z": 0.0,
		},
		"VehicleOptions":  map[string]interface{}{},
		"Controller":      DefaultController(),
		"Sensors":         sensors,
		"SoftwareModules": modules,
	}, nil
}

func (w *Wizard) buildModule(moduleName string, sensors map[string]interface{}) (map[string]interface{}, error) {
	mc, _ := w.caps.Modules.Module(moduleName)

	level, err := askInt(fmt.Sprintf("%s algorithm level (3 = user defined)", moduleName), 1, 1, 3)
	if err != nil {
		return nil, err
	}
	algorithm := map[string]interface{}{"Level": float64(level)}
	module := map[string]interface{}{"Algorithm": algorithm}
	if level == 3 {
		return module, nil
	}

	className, err := askSelect(fmt.Sprintf("%s algorithm class", moduleName), mc.ValidClassNames)
	if err != nil {
		return nil, err
	}
	algorithm["ClassName"] = className

	params := map[string]interface{}{}
	rules := mc.ValidParameters[className]
	for _, paramName := range sortedRuleNames(rules) {
		value, err := w.askParameter(moduleName, paramName, rules[paramName], sensors, module)
		if err != nil {
			return nil, err
		}
		params[paramName] = value
	}
	if len(params) > 0 {
		algorithm["Parameters"] = params
	}
	if args := mc.ValidInputArgs[className]; len(args) > 0 {
		algorithm["InputArgs"] = toInterfaceList(args)
	}
	if returns := mc.ValidReturnValues[className]; len(returns) > 0 {
		algorithm["ReturnValues"] = toInterfaceList(returns)
	}
	return module, nil
}

// askParameter prompts for one algorithm parameter according to its
// descriptor rule. A camera_name parameter also wires the Image
// subscription the validator expects.
func (w *Wizard) askParameter(moduleName, paramName string, rule *descriptor.ParameterRule,
	sensors map[string]interface{}, module map[string]interface{}) (interface{}, error) {
	message := fmt.Sprintf("%s parameter %s", moduleName, paramName)

	if paramName == "camera_name" {
		cameraName, err := askCameraName(message, sensors)
		if err != nil {
			return nil, err
		}
		module["Subscribes"] = []interface{}{
			map[string]interface{}{"Image": cameraName},
		}
		return cameraName, nil
	}

	switch rule.Type {
	case descriptor.TypeBoolean:
		return askConfirm(message, false)
	case descriptor.TypeInteger, descriptor.TypeFloat:
		if options := numberOptions(rule.ValidEntries); len(options) > 0 {
			choice, err := askSelect(message, options)
			if err != nil {
				return nil, err
			}
			return strconv.ParseFloat(choice, 64)
		}
		min, max := -positionBound, positionBound
		if rule.HasRange() {
			min, max = rule.Range[0], rule.Range[1]
		}
		return askFloat(message, min, min, max)
	case descriptor.TypeString:
		if options := stringOptions(rule.ValidEntries); len(options) > 0 {
			return askSelect(message, options)
		}
		return askString(message, "")
	case descriptor.TypeList:
		return askFloatList(message, rule.Length)
	default:
		return nil, fmt.Errorf("parameter %s has an unsupported type %s", paramName, rule.Type)
	}
}

func askCameraName(message string, sensors map[string]interface{}) (string, error) {
	cameras, _ := sensors["Cameras"].(map[string]interface{})
	if len(cameras) == 0 {
		sensors["Cameras"] = DefaultSensor("Cameras")
		cameras = sensors["Cameras"].(map[string]interface{})
	}
	names := make([]string, 0, len(cameras))
	for name := range cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 1 {
		return names[0], nil
	}
	return askSelect(message, names)
}

// BuildTrajectory prompts for a flat waypoint list in NED coordinates.
func (w *Wizard) BuildTrajectory() (map[string]interface{}, error) {
	count, err := askInt("Number of waypoints", 2, 1, 100)
	if err != nil {
		return nil, err
	}
	points := make([]interface{}, 0, count)
	for i := 1; i <= count; i++ {
		point, err := askWaypoint(i)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return map[string]interface{}{"Trajectory": points}, nil
}

func askWaypoint(index int) (map[string]interface{}, error) {
	point := map[string]interface{}{}
	fields := []struct {
		key      string
		def      float64
		min, max float64
	}{
		{"X", 0, -positionBound - 1, positionBound + 1},
		{"Y", 0, -positionBound - 1, positionBound + 1},
		{"Z", -2, -positionBound - 1, positionBound + 1},
		{"Heading", 0, -headingBound, headingBound},
		{"Speed", 5, 0, speedMax},
	}
	for _, f := range fields {
		value, err := askFloat(fmt.Sprintf("Waypoint %d %s", index, f.key), f.def, f.min, f.max)
		if err != nil {
			return nil, err
		}
		point[f.key] = value
	}
	return point, nil
}

func askFloat(message string, def, min, max float64) (float64, error) {
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s [%g, %g]:", message, min, max),
		Default: strconv.FormatFloat(def, 'f', -1, 64),
	}
	var raw string
	err := survey.AskOne(prompt, &raw, survey.WithValidator(survey.Required),
		survey.WithValidator(func(val interface{}) error {
			value, err := strconv.ParseFloat(val.(string), 64)
			if err != nil {
				return fmt.Errorf("enter a number")
			}
			if value < min || value > max {
				return fmt.Errorf("value must be between %g and %g", min, max)
			}
			return nil
		}))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(raw, 64)
}

func askInt(message string, def, min, max int) (int, error) {
	value, err := askFloat(message, float64(def), float64(min), float64(max))
	if err != nil {
		return 0, err
	}
	return int(value), nil
}

func askString(message, def string) (string, error) {
	var result string
	err := survey.AskOne(&survey.Input{Message: message + ":", Default: def}, &result,
		survey.WithValidator(survey.Required))
	return result, err
}

func askSelect(message string, options []string) (string, error) {
	var result string
	err := survey.AskOne(&survey.Select{Message: message + ":", Options: options}, &result)
	return result, err
}

func askMultiSelect(message string, options, defaults []string) ([]string, error) {
	var result []string
	err := survey.AskOne(&survey.MultiSelect{
		Message: message + ":",
		Options: options,
		Default: defaults,
	}, &result)
	return result, err
}

func askConfirm(message string, def bool) (bool, error) {
	var result bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &result)
	return result, err
}

func askFloatList(message string, length int) ([]interface{}, error) {
	hint := message
	if length > 0 {
		hint = fmt.Sprintf("%s (%d comma separated numbers)", message, length)
	}
	var raw string
	err := survey.AskOne(&survey.Input{Message: hint + ":"}, &raw,
		survey.WithValidator(survey.Required),
		survey.WithValidator(func(val interface{}) error {
			values, err := parseFloatList(val.(string))
			if err != nil {
				return err
			}
			if length > 0 && len(values) != length {
				return fmt.Errorf("enter exactly %d values", length)
			}
			return nil
		}))
	if err != nil {
		return nil, err
	}
	return parseFloatList(raw)
}

func parseFloatList(raw string) ([]interface{}, error) {
	parts := strings.Split(raw, ",")
	values := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("enter comma separated numbers")
		}
		values = append(values, value)
	}
	return values, nil
}

func numberOptions(entries descriptor.EntrySet) []string {
	var options []string
	for _, entry := range entries {
		if value, ok := entry.(float64); ok {
			options = append(options, strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
	return options
}

func stringOptions(entries descriptor.EntrySet) []string {
	if entries.HasWildcard() {
		return nil
	}
	var options []string
	for _, entry := range entries {
		if value, ok := entry.(string); ok {
			options = append(options, value)
		}
	}
	return options
}

func sortedRuleNames(rules map[string]*descriptor.ParameterRule) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func appendMissing(list []string, values ...string) []string {
	for _, value := range values {
		found := false
		for _, existing := range list {
			if existing == value {
				found = true
				break
			}
		}
		if !found {
			list = append(list, value)
		}
	}
	return list
}

func toInterfaceList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
