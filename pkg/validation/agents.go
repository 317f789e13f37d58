package validation

import "net"

// Sections every agent entry must carry, and nothing else.
var agentSections = []string{
	"Vehicle",
	"AutoPilot",
	"Sensors",
	"Controller",
	"SoftwareModules",
	"StartingPosition",
	"VehicleOptions",
}

var vehicleOptionKeys = []string{
	"RunROSNode",
	"UseLocalPX4",
	"PlanningCoordinateFrame",
	"LocalHostIP",
}

const (
	minAgents = 1
	maxAgents = 5

	startingPositionBound = 999.0
	controllerGainMin     = 0.0
	controllerGainMax     = 20.0
)

func (r *run) validateAgents(doc map[string]interface{}) {
	agents, ok := r.asSection("Agents", doc["Agents"])
	if !ok {
		return
	}
	if len(agents) < minAgents || len(agents) > maxAgents {
		r.violate(KindStructuralMismatch, "Agents", "%d agents declared, supported range is %d to %d",
			len(agents), minAgents, maxAgents)
		if r.done() {
			return
		}
	}
	for _, name := range sortedKeys(agents) {
		r.validateAgent(joinPath("Agents", name), agents[name])
		if r.done() {
			return
		}
	}
}

func (r *run) validateAgent(path string, value interface{}) {
	agent, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, agent, agentSections) {
		return
	}

	r.checkStringEnum(joinPath(path, "Vehicle"), agent["Vehicle"], []string{"Multirotor"})
	if r.done() {
		return
	}

	autopilot, _ := agent["AutoPilot"].(string)
	r.checkStringEnum(joinPath(path, "AutoPilot"), agent["AutoPilot"], []string{"SWARM", "PX4"})
	if r.done() {
		return
	}

	r.validateStartingPosition(joinPath(path, "StartingPosition"), agent["StartingPosition"])
	if r.done() {
		return
	}

	r.validateVehicleOptions(joinPath(path, "VehicleOptions"), agent["VehicleOptions"])
	if r.done() {
		return
	}

	r.validateController(joinPath(path, "Controller"), agent["Controller"])
	if r.done() {
		return
	}

	sensors, ok := r.asSection(joinPath(path, "Sensors"), agent["Sensors"])
	if !ok {
		return
	}
	r.validateSensors(joinPath(path, "Sensors"), sensors)
	if r.done() {
		return
	}

	// The PX4 autopilot needs inertial and pressure sensing to run its
	// estimator; a configuration without them stalls on the server.
	if autopilot == "PX4" {
		for _, required := range []string{"IMU", "Magnetometers", "Barometers"} {
			if _, ok := sensors[required]; !ok {
				r.violate(KindCrossFieldViolation, joinPath(path, "Sensors"),
					"AutoPilot PX4 requires a %s sensor", required)
			}
			if r.done() {
				return
			}
		}
	}

	modules, ok := r.asSection(joinPath(path, "SoftwareModules"), agent["SoftwareModules"])
	if !ok {
		return
	}
	r.validateSoftwareModules(joinPath(path, "SoftwareModules"), modules, sensors)
}

func (r *run) validateStartingPosition(path string, value interface{}) {
	position, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, position, []string{"X", "Y", "Z"}) {
		return
	}
	for _, axis := range []string{"X", "Y", "Z"} {
		r.checkFloatRange(joinPath(path, axis), position[axis], -startingPositionBound, startingPositionBound)
		if r.done() {
			return
		}
	}
}

func (r *run) validateVehicleOptions(path string, value interface{}) {
	options, ok := r.asSection(path, value)
	if !ok {
		return
	}
	for _, name := range sortedKeys(options) {
		optPath := joinPath(path, name)
		switch name {
		case "RunROSNode":
			r.checkBool(optPath, options[name])
			if enabled, ok := options[name].(bool); ok && enabled {
				if _, ok := options["PlanningCoordinateFrame"]; !ok {
					r.violate(KindCrossFieldViolation, optPath,
						"RunROSNode requires PlanningCoordinateFrame to be set")
				}
			}
		case "UseLocalPX4":
			r.checkBool(optPath, options[name])
		case "PlanningCoordinateFrame":
			r.checkStringEnum(optPath, options[name], []string{"NED", "ENU"})
		case "LocalHostIP":
			if addr, ok := r.checkString(optPath, options[name]); ok {
				if net.ParseIP(addr) == nil {
					r.violate(KindInvalidEnumValue, optPath, "%q is not a valid IP address", addr)
				}
			}
		default:
			r.violate(KindUnknownField, optPath, "unknown vehicle option; valid options are %v", vehicleOptionKeys)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateController(path string, value interface{}) {
	controller, ok := r.asSection(path, value)
	if !ok {
		return
	}
	for _, name := range sortedKeys(controller) {
		fieldPath := joinPath(path, name)
		switch name {
		case "Name":
			r.checkStringEnum(fieldPath, controller[name], []string{"SWARMBase"})
		case "Gains":
			gains, ok := r.asSection(fieldPath, controller[name])
			if !ok {
				break
			}
			for _, gain := range sortedKeys(gains) {
				r.checkFloatRange(joinPath(fieldPath, gain), gains[gain], controllerGainMin, controllerGainMax)
				if r.done() {
					return
				}
			}
		default:
			r.violate(KindUnknownField, fieldPath, "unknown controller field")
		}
		if r.done() {
			return
		}
	}
}
