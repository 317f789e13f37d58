package validation

import "github.com/codexlabs/swarm-rds-client/pkg/descriptor"

// Modules that only work with a particular sensor on the vehicle.
var moduleSensorNeeds = map[string]string{
	"VideoRecord":       "Cameras",
	"Detector":          "Cameras",
	"ObstacleAvoidance": "LiDAR",
}

// Algorithm levels the server accepts. Level 3 runs fully user-defined
// code, so the client cannot check anything beyond the level itself.
const (
	algorithmLevelMin      = 1
	algorithmLevelMax      = 3
	userDefinedLevel       = 3
	cameraNameParameter    = "camera_name"
	imageSubscriptionField = "Image"
)

func (r *run) validateSoftwareModules(path string, modules, sensors map[string]interface{}) {
	for _, name := range sortedKeys(modules) {
		r.validateSoftwareModule(joinPath(path, name), name, modules[name], sensors)
		if r.done() {
			return
		}
	}
}

func (r *run) validateSoftwareModule(path, name string, value interface{}, sensors map[string]interface{}) {
	capability, ok := r.caps.Modules.Module(name)
	if !ok {
		r.violate(KindUnknownField, path, "module %q is not supported by the server", name)
		return
	}

	if sensorKind, needs := moduleSensorNeeds[name]; needs {
		if !sensorPresent(sensors, sensorKind) {
			r.violate(KindCrossFieldViolation, path, "module %q requires a %s sensor", name, sensorKind)
		}
		if r.done() {
			return
		}
	}

	settings, ok := r.asSection(path, value)
	if !ok {
		return
	}

	for _, section := range sortedKeys(settings) {
		if !r.caps.Modules.AllowsSetting(section) {
			r.violate(KindUnknownField, joinPath(path, section), "unsupported module section %q", section)
			if r.done() {
				return
			}
		}
	}

	algoPath := joinPath(path, "Algorithm")
	algoRaw, ok := settings["Algorithm"]
	if !ok {
		r.violate(KindStructuralMismatch, path, "module has no Algorithm section")
		return
	}
	algo, ok := r.asSection(algoPath, algoRaw)
	if !ok {
		return
	}

	level, ok := algo["Level"]
	if !ok {
		r.violate(KindStructuralMismatch, algoPath, "Algorithm has no Level")
		return
	}
	if !isInteger(level) {
		r.violate(KindTypeMismatch, joinPath(algoPath, "Level"), "expected int, found %s", typeName(level))
		return
	}
	levelValue, _ := asFloat(level)
	if levelValue < algorithmLevelMin || levelValue > algorithmLevelMax {
		r.violate(KindRangeViolation, joinPath(algoPath, "Level"), "level %v outside range [%d, %d]",
			levelValue, algorithmLevelMin, algorithmLevelMax)
		return
	}
	if int(levelValue) == userDefinedLevel {
		return
	}

	className, ok := r.checkString(joinPath(algoPath, "ClassName"), algo["ClassName"])
	if !ok {
		return
	}
	if !capability.HasClass(className) {
		r.violate(KindInvalidEnumValue, joinPath(algoPath, "ClassName"),
			"class %q is not offered by module %q", className, name)
		return
	}

	subscribes, _ := settings["Subscribes"].([]interface{})
	for _, section := range sortedKeys(algo) {
		switch section {
		case "Parameters":
			r.validateAlgorithmParameters(joinPath(algoPath, section), algo[section], capability, className, sensors, subscribes)
		case "InputArgs":
			r.validateNameList(joinPath(algoPath, section), algo[section], capability.ValidInputArgs[className], "input argument")
		case "ReturnValues":
			r.validateNameList(joinPath(algoPath, section), algo[section], capability.ValidReturnValues[className], "return value")
		}
		if r.done() {
			return
		}
	}

	for _, section := range []string{"Publishes", "Subscribes"} {
		if raw, ok := settings[section]; ok {
			r.validateMessageList(joinPath(path, section), raw, sensors)
			if r.done() {
				return
			}
		}
	}

	if raw, ok := settings["Parameters"]; ok {
		r.validateModuleParameters(joinPath(path, "Parameters"), raw, capability)
	}
}

func (r *run) validateAlgorithmParameters(path string, value interface{}, capability *descriptor.ModuleCapability,
	className string, sensors map[string]interface{}, subscribes []interface{}) {
	params, ok := r.asSection(path, value)
	if !ok {
		return
	}
	rules := capability.ValidParameters[className]
	for _, name := range sortedKeys(params) {
		paramPath := joinPath(path, name)
		rule, ok := rules[name]
		if !ok {
			r.violate(KindUnknownField, paramPath, "class %q takes no parameter %q", className, name)
			if r.done() {
				return
			}
			continue
		}
		if name == cameraNameParameter {
			r.validateCameraReference(paramPath, params[name], sensors, subscribes)
			if r.done() {
				return
			}
			continue
		}
		r.checkRule(paramPath, params[name], rule)
		if r.done() {
			return
		}
	}
}

// validateCameraReference checks a camera_name parameter: the camera
// must exist on the vehicle and the module must subscribe to its image
// stream, otherwise the algorithm never receives a frame.
func (r *run) validateCameraReference(path string, value interface{}, sensors map[string]interface{}, subscribes []interface{}) {
	camera, ok := r.checkString(path, value)
	if !ok {
		return
	}
	cameras, _ := sensors["Cameras"].(map[string]interface{})
	if _, ok := cameras[camera]; !ok {
		r.violate(KindCrossFieldViolation, path, "camera %q is not declared in Sensors.Cameras", camera)
		if r.done() {
			return
		}
	}
	for _, entry := range subscribes {
		if m, ok := entry.(map[string]interface{}); ok {
			if subscribed, ok := m[imageSubscriptionField].(string); ok && subscribed == camera {
				return
			}
		}
	}
	r.violate(KindCrossFieldViolation, path, "module does not subscribe to images from camera %q", camera)
}

func (r *run) validateNameList(path string, value interface{}, allowed []string, what string) {
	list, ok := value.([]interface{})
	if !ok {
		r.violate(KindTypeMismatch, path, "expected list, found %s", typeName(value))
		return
	}
	for i, entry := range list {
		entryPath := joinPath(path, indexSegment(i))
		name, ok := r.checkString(entryPath, entry)
		if ok && !containsString(allowed, name) {
			r.violate(KindInvalidEnumValue, entryPath, "%q is not a valid %s", name, what)
		}
		if r.done() {
			return
		}
	}
}

// validateMessageList checks a Publishes or Subscribes list. String
// entries name a message type; mapping entries bind a message type to
// a source, of which only camera image bindings carry a cross check.
func (r *run) validateMessageList(path string, value interface{}, sensors map[string]interface{}) {
	list, ok := value.([]interface{})
	if !ok {
		r.violate(KindTypeMismatch, path, "expected list, found %s", typeName(value))
		return
	}
	for i, entry := range list {
		entryPath := joinPath(path, indexSegment(i))
		switch e := entry.(type) {
		case string:
			if !r.caps.Modules.AllowsMessageType(e) {
				r.violate(KindInvalidEnumValue, entryPath, "message type %q is not supported", e)
			}
		case map[string]interface{}:
			for _, key := range sortedKeys(e) {
				if key == imageSubscriptionField {
					camera, ok := e[key].(string)
					if !ok {
						r.violate(KindTypeMismatch, joinPath(entryPath, key), "expected str, found %s", typeName(e[key]))
						break
					}
					cameras, _ := sensors["Cameras"].(map[string]interface{})
					if _, ok := cameras[camera]; !ok {
						r.violate(KindCrossFieldViolation, joinPath(entryPath, key),
							"camera %q is not declared in Sensors.Cameras", camera)
					}
					continue
				}
				if !r.caps.Modules.AllowsMessageType(key) {
					r.violate(KindInvalidEnumValue, joinPath(entryPath, key), "message type %q is not supported", key)
				}
				if r.done() {
					return
				}
			}
		default:
			r.violate(KindTypeMismatch, entryPath, "expected str or dict, found %s", typeName(entry))
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateModuleParameters(path string, value interface{}, capability *descriptor.ModuleCapability) {
	params, ok := r.asSection(path, value)
	if !ok {
		return
	}
	for _, name := range sortedKeys(params) {
		paramPath := joinPath(path, name)
		rule, ok := capability.ValidModuleParameters[name]
		if !ok {
			r.violate(KindUnknownField, paramPath, "module takes no parameter %q", name)
			if r.done() {
				return
			}
			continue
		}
		r.checkRule(paramPath, params[name], rule)
		if r.done() {
			return
		}
	}
}

func sensorPresent(sensors map[string]interface{}, kind string) bool {
	section, ok := sensors[kind]
	if !ok {
		return false
	}
	if kind == "Cameras" {
		cameras, ok := section.(map[string]interface{})
		return ok && len(cameras) > 0
	}
	return true
}
