package validation

// Top-level sections a settings document must carry. Data is the only
// optional one.
var (
	requiredDocumentKeys = []string{"ID", "RunLength", "SimulationName", "Scenario", "Environment", "Agents"}
	optionalDocumentKeys = []string{"Data"}
)

const (
	runLengthMin = 30.0
	runLengthMax = 9999.0

	goalPointBound = 999.0
)

// ValidateSettings validates a decoded simulation settings document
// against the loaded capability descriptors.
func (v *Validator) ValidateSettings(doc map[string]interface{}) *Result {
	r := v.newRun()
	if v.caps == nil || v.caps.Modules == nil || v.caps.Environments == nil || v.caps.Scenarios == nil {
		r.violate(KindMissingDescriptor, "", "capability descriptors are not loaded; fetch them from the server first")
		return r.res
	}
	r.validateDocument(doc)
	return r.res
}

func (r *run) validateDocument(doc map[string]interface{}) {
	if !r.keySet("", doc, requiredDocumentKeys, optionalDocumentKeys) {
		return
	}

	if !isInteger(doc["ID"]) {
		r.violate(KindTypeMismatch, "ID", "expected int, found %s", typeName(doc["ID"]))
	}
	if r.done() {
		return
	}

	r.checkFloatRange("RunLength", doc["RunLength"], runLengthMin, runLengthMax)
	if r.done() {
		return
	}

	r.checkString("SimulationName", doc["SimulationName"])
	if r.done() {
		return
	}

	r.validateScenario(doc)
	if r.done() {
		return
	}

	r.validateEnvironment(doc)
	if r.done() {
		return
	}

	if data, ok := doc["Data"]; ok {
		r.validateDataCollection(data, doc)
		if r.done() {
			return
		}
	}

	r.validateAgents(doc)
}

// keySet verifies a section carries every required key and nothing
// outside required+optional.
func (r *run) keySet(path string, section map[string]interface{}, required, optional []string) bool {
	allowed := make(map[string]interface{}, len(section))
	for k, val := range section {
		if !containsString(optional, k) {
			allowed[k] = val
		}
	}
	return r.exactKeySet(path, allowed, required)
}

func (r *run) validateScenario(doc map[string]interface{}) {
	scenario, ok := r.asSection("Scenario", doc["Scenario"])
	if !ok {
		return
	}
	if !r.exactKeySet("Scenario", scenario, []string{"Name", "Options"}) {
		return
	}

	name, ok := r.checkString("Scenario.Name", scenario["Name"])
	if ok && !r.caps.Scenarios.Supports(name) {
		r.violate(KindInvalidEnumValue, "Scenario.Name", "scenario %q is not supported by the server", name)
	}
	if r.done() {
		return
	}

	options, ok := r.asSection("Scenario.Options", scenario["Options"])
	if !ok {
		return
	}

	envName := documentEnvironmentName(doc)
	for _, optName := range sortedKeys(options) {
		path := joinPath("Scenario.Options", optName)
		switch optName {
		case "LevelNames":
			r.validateLevelNames(path, options[optName], envName)
		case "MultiLevel":
			r.checkBool(path, options[optName])
		case "GoalPoint":
			r.validateGoalPoints(path, options[optName], doc)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateLevelNames(path string, value interface{}, envName string) {
	levels, ok := value.([]interface{})
	if !ok {
		r.violate(KindTypeMismatch, path, "expected list, found %s", typeName(value))
		return
	}
	for i, level := range levels {
		levelPath := joinPath(path, indexSegment(i))
		name, ok := r.checkString(levelPath, level)
		if ok && envName != "" && r.caps.Environments.HasLevelInfo(envName) &&
			!r.caps.Environments.SupportsLevel(envName, name) {
			r.violate(KindCrossFieldViolation, levelPath, "level %q does not exist in environment %q", name, envName)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateGoalPoints(path string, value interface{}, doc map[string]interface{}) {
	points, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if agents, ok := doc["Agents"].(map[string]interface{}); ok && len(points) != len(agents) {
		r.violate(KindCrossFieldViolation, path, "%d goal points declared for %d agents", len(points), len(agents))
		if r.done() {
			return
		}
	}
	for _, agentName := range sortedKeys(points) {
		pointPath := joinPath(path, agentName)
		point, ok := r.asSection(pointPath, points[agentName])
		if !ok {
			if r.done() {
				return
			}
			continue
		}
		if !r.exactKeySet(pointPath, point, []string{"X", "Y", "Z"}) {
			if r.done() {
				return
			}
			continue
		}
		for _, axis := range []string{"X", "Y", "Z"} {
			r.checkFloatRange(joinPath(pointPath, axis), point[axis], -goalPointBound, goalPointBound)
			if r.done() {
				return
			}
		}
	}
}

func (r *run) validateEnvironment(doc map[string]interface{}) {
	env, ok := r.asSection("Environment", doc["Environment"])
	if !ok {
		return
	}
	if !r.keySet("Environment", env, []string{"Name", "StreamVideo", "StartingLevelName"}, []string{"Options"}) {
		return
	}

	name, nameOK := r.checkString("Environment.Name", env["Name"])
	if nameOK && !r.caps.Environments.Supports(name) {
		r.violate(KindInvalidEnumValue, "Environment.Name", "environment %q is not supported by the server", name)
		nameOK = false
	}
	if r.done() {
		return
	}

	r.checkBool("Environment.StreamVideo", env["StreamVideo"])
	if r.done() {
		return
	}

	if level, ok := r.checkString("Environment.StartingLevelName", env["StartingLevelName"]); ok {
		if names := scenarioLevelNames(doc); names != nil && !containsString(names, level) {
			r.violate(KindCrossFieldViolation, "Environment.StartingLevelName",
				"starting level %q is not listed in Scenario.Options.LevelNames", level)
		}
		if nameOK && r.caps.Environments.HasLevelInfo(name) && !r.caps.Environments.SupportsLevel(name, level) {
			r.violate(KindCrossFieldViolation, "Environment.StartingLevelName",
				"level %q does not exist in environment %q", level, name)
		}
	}
	if r.done() {
		return
	}

	if options, ok := env["Options"]; ok && nameOK {
		r.validateEnvironmentOptions(name, options)
	}
}

func (r *run) validateEnvironmentOptions(envName string, value interface{}) {
	options, ok := r.asSection("Environment.Options", value)
	if !ok {
		return
	}
	info := r.caps.Environments.Environments[envName]
	if info == nil || len(info.Options) == 0 {
		r.violate(KindStructuralMismatch, "Environment.Options", "environment %q offers no options", envName)
		return
	}
	for _, optName := range sortedKeys(options) {
		path := joinPath("Environment.Options", optName)
		opt, ok := info.Options[optName]
		if !ok {
			r.violate(KindUnknownField, path, "environment %q has no option %q", envName, optName)
			if r.done() {
				return
			}
			continue
		}
		if len(opt.ValidOptions) > 0 {
			r.checkStringEnum(path, options[optName], opt.ValidOptions)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateDataCollection(value interface{}, doc map[string]interface{}) {
	data, ok := r.asSection("Data", value)
	if !ok {
		return
	}
	for _, kind := range sortedKeys(data) {
		path := joinPath("Data", kind)
		switch kind {
		case "Images":
			r.validateImageCollection(path, data[kind])
		case "Video":
			r.validateVideoCollection(path, data[kind], doc)
		case "VehicleState":
			r.asSection(path, data[kind])
		default:
			r.violate(KindUnknownField, path, "unsupported data collection type %q", kind)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateImageCollection(path string, value interface{}) {
	images, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, images, []string{"Format", "ImagesPerSecond"}) {
		return
	}
	r.checkStringEnum(joinPath(path, "Format"), images["Format"], []string{"PNG"})
	if r.done() {
		return
	}
	ipsPath := joinPath(path, "ImagesPerSecond")
	if !isInteger(images["ImagesPerSecond"]) {
		r.violate(KindTypeMismatch, ipsPath, "expected int, found %s", typeName(images["ImagesPerSecond"]))
		return
	}
	r.checkFloatRange(ipsPath, images["ImagesPerSecond"], 1, 20)
}

func (r *run) validateVideoCollection(path string, value interface{}, doc map[string]interface{}) {
	video, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, video, []string{"Format", "VideoName", "CameraName"}) {
		return
	}
	r.checkStringEnum(joinPath(path, "Format"), video["Format"], []string{"MP4"})
	if r.done() {
		return
	}
	r.checkString(joinPath(path, "VideoName"), video["VideoName"])
	if r.done() {
		return
	}
	camera, ok := r.checkString(joinPath(path, "CameraName"), video["CameraName"])
	if !ok || r.done() {
		return
	}

	// Every agent must record through the named camera, so each one has
	// to declare it.
	agents, ok := doc["Agents"].(map[string]interface{})
	if !ok {
		return
	}
	for _, agentName := range sortedKeys(agents) {
		if !agentHasCamera(agents[agentName], camera) {
			r.violate(KindCrossFieldViolation, joinPath(path, "CameraName"),
				"camera %q is not declared in %s.Sensors.Cameras", camera, agentName)
		}
		if r.done() {
			return
		}
	}
}

// documentEnvironmentName digs the environment name out of a settings
// document without validating it. Cross checks fall back to skipping
// when the name is absent or malformed.
func documentEnvironmentName(doc map[string]interface{}) string {
	env, ok := doc["Environment"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := env["Name"].(string)
	return name
}

// scenarioLevelNames extracts Scenario.Options.LevelNames as strings,
// or nil when the section is absent or malformed.
func scenarioLevelNames(doc map[string]interface{}) []string {
	scenario, ok := doc["Scenario"].(map[string]interface{})
	if !ok {
		return nil
	}
	options, ok := scenario["Options"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := options["LevelNames"].([]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(raw))
	for _, l := range raw {
		if s, ok := l.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// agentHasCamera reports whether an agent declares a camera with the
// given name under Sensors.Cameras.
func agentHasCamera(agent interface{}, camera string) bool {
	section, ok := agent.(map[string]interface{})
	if !ok {
		return false
	}
	sensors, ok := section["Sensors"].(map[string]interface{})
	if !ok {
		return false
	}
	cameras, ok := sensors["Cameras"].(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = cameras[camera]
	return ok
}
