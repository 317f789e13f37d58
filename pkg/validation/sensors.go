package validation

// Sensor schemas. Cameras hold one config per camera name; every other
// sensor type is a single config section. Mounted sensors share the
// same pose bounds: offsets within 50 meters of the body frame,
// rotations within a full turn.
const (
	sensorOffsetBound   = 50.0
	sensorRotationBound = 360.0

	lidarRangeMin = 0.2
	lidarRangeMax = 250.0

	distanceMin      = 0.2
	distanceMax      = 1000.0
	distanceRateMin  = 1.0
	distanceRateMax  = 20.0
	lidarRateMin     = 1.0
	lidarRateMax     = 30.0
	simpleSensorRate = 1.0
)

var sensorMethods = []string{"Colosseum"}

// Publishing rate ceilings per single-section sensor type. The floor
// is 1 Hz for all of them.
var simpleSensorRates = map[string]float64{
	"IMU":           150,
	"GPS":           20,
	"Barometers":    20,
	"Magnetometers": 20,
	"AirSpeed":      20,
	"Odometers":     50,
}

var (
	cameraSections = []string{"Enabled", "PublishPose", "X", "Y", "Z", "Settings", "Roll", "Pitch", "Yaw"}
	cameraSettings = []string{"ImageType", "Width", "Height", "FOV_Degrees", "FramesPerSecond"}
	lidarSections  = []string{"Enabled", "Method", "X", "Y", "Z", "Settings", "Roll", "Pitch", "Yaw", "PublishingRate", "Hardware"}
	simpleSections = []string{"Enabled", "Method", "PublishingRate"}
	distanceFields = []string{"Enabled", "Method", "X", "Y", "Z", "Roll", "Pitch", "Yaw", "PublishingRate", "MinDistance", "MaxDistance"}
)

// Per-field numeric ranges of the LiDAR Settings section. Unlisted
// fields are rejected; DataFrame is the lone non-numeric field.
type lidarSetting struct {
	min, max float64
	integer  bool
}

var lidarSettingRanges = map[string]lidarSetting{
	"Range":              {min: lidarRangeMin, max: lidarRangeMax},
	"NumberOfChannels":   {min: 6, max: 32, integer: true},
	"RotationsPerSecond": {min: 5, max: 20},
	"PointsPerSecond":    {min: 10000, max: 1000000, integer: true},
	"VerticalFOVUpper":   {min: -85, max: 90},
	"VerticalFOVLower":   {min: -90, max: 85},
	"HorizontalFOVStart": {min: -60, max: -5},
	"HorizontalFOVEnd":   {min: 5, max: 60},
	"MinDistance":        {min: lidarRangeMin, max: lidarRangeMax},
	"MaxDistance":        {min: lidarRangeMin, max: lidarRangeMax},
}

func (r *run) validateSensors(path string, sensors map[string]interface{}) {
	for _, kind := range sortedKeys(sensors) {
		sensorPath := joinPath(path, kind)
		switch kind {
		case "Cameras":
			r.validateCameras(sensorPath, sensors[kind])
		case "LiDAR":
			r.validateLiDAR(sensorPath, sensors[kind])
		case "Distance":
			r.validateDistance(sensorPath, sensors[kind])
		case "IMU", "GPS", "Barometers", "Magnetometers", "AirSpeed", "Odometers":
			r.validateSimpleSensor(sensorPath, sensors[kind], simpleSensorRates[kind])
		default:
			r.violate(KindUnknownField, sensorPath, "unsupported sensor type %q", kind)
		}
		if r.done() {
			return
		}
	}
}

func (r *run) validateCameras(path string, value interface{}) {
	cameras, ok := r.asSection(path, value)
	if !ok {
		return
	}
	for _, name := range sortedKeys(cameras) {
		r.validateCamera(joinPath(path, name), cameras[name])
		if r.done() {
			return
		}
	}
}

func (r *run) validateCamera(path string, value interface{}) {
	camera, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, camera, cameraSections) {
		return
	}
	r.checkBool(joinPath(path, "Enabled"), camera["Enabled"])
	r.checkBool(joinPath(path, "PublishPose"), camera["PublishPose"])
	if r.done() {
		return
	}
	r.checkPose(path, camera)
	if r.done() {
		return
	}

	settingsPath := joinPath(path, "Settings")
	settings, ok := r.asSection(settingsPath, camera["Settings"])
	if !ok {
		return
	}
	if !r.exactKeySet(settingsPath, settings, cameraSettings) {
		return
	}
	r.checkStringEnum(joinPath(settingsPath, "ImageType"), settings["ImageType"],
		[]string{"Scene", "Segmentation", "Depth"})
	if r.done() {
		return
	}
	r.checkFloatRange(joinPath(settingsPath, "Width"), settings["Width"], 640, 1280)
	r.checkFloatRange(joinPath(settingsPath, "Height"), settings["Height"], 480, 720)
	r.checkFloatRange(joinPath(settingsPath, "FOV_Degrees"), settings["FOV_Degrees"], 10, 180)
	r.checkFloatRange(joinPath(settingsPath, "FramesPerSecond"), settings["FramesPerSecond"], 1, 30)
}

// checkPose validates the X/Y/Z mounting offset and Roll/Pitch/Yaw
// rotation fields shared by mounted sensors.
func (r *run) checkPose(path string, section map[string]interface{}) {
	for _, axis := range []string{"X", "Y", "Z"} {
		r.checkFloatRange(joinPath(path, axis), section[axis], -sensorOffsetBound, sensorOffsetBound)
		if r.done() {
			return
		}
	}
	for _, axis := range []string{"Roll", "Pitch", "Yaw"} {
		r.checkFloatRange(joinPath(path, axis), section[axis], -sensorRotationBound, sensorRotationBound)
		if r.done() {
			return
		}
	}
}

func (r *run) validateSimpleSensor(path string, value interface{}, rateMax float64) {
	sensor, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, sensor, simpleSections) {
		return
	}
	r.checkBool(joinPath(path, "Enabled"), sensor["Enabled"])
	if r.done() {
		return
	}
	r.checkStringEnum(joinPath(path, "Method"), sensor["Method"], sensorMethods)
	if r.done() {
		return
	}
	r.checkFloatRange(joinPath(path, "PublishingRate"), sensor["PublishingRate"], simpleSensorRate, rateMax)
}

func (r *run) validateLiDAR(path string, value interface{}) {
	lidar, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, lidar, lidarSections) {
		return
	}
	r.checkBool(joinPath(path, "Enabled"), lidar["Enabled"])
	r.checkStringEnum(joinPath(path, "Method"), lidar["Method"], sensorMethods)
	r.checkString(joinPath(path, "Hardware"), lidar["Hardware"])
	if r.done() {
		return
	}
	r.checkPose(path, lidar)
	if r.done() {
		return
	}
	r.checkFloatRange(joinPath(path, "PublishingRate"), lidar["PublishingRate"], lidarRateMin, lidarRateMax)
	if r.done() {
		return
	}

	settingsPath := joinPath(path, "Settings")
	settings, ok := r.asSection(settingsPath, lidar["Settings"])
	if !ok {
		return
	}
	for _, name := range sortedKeys(settings) {
		fieldPath := joinPath(settingsPath, name)
		if name == "DataFrame" {
			r.checkString(fieldPath, settings[name])
			if r.done() {
				return
			}
			continue
		}
		rng, ok := lidarSettingRanges[name]
		if !ok {
			r.violate(KindUnknownField, fieldPath, "unsupported LiDAR setting %q", name)
			if r.done() {
				return
			}
			continue
		}
		if rng.integer && !isInteger(settings[name]) {
			r.violate(KindTypeMismatch, fieldPath, "expected int, found %s", typeName(settings[name]))
			if r.done() {
				return
			}
			continue
		}
		r.checkFloatRange(fieldPath, settings[name], rng.min, rng.max)
		if r.done() {
			return
		}
	}

	r.checkOrderedPair(settingsPath, settings, "VerticalFOVLower", "VerticalFOVUpper")
	if r.done() {
		return
	}
	r.checkOrderedPair(settingsPath, settings, "HorizontalFOVStart", "HorizontalFOVEnd")
	if r.done() {
		return
	}
	r.checkOrderedPair(settingsPath, settings, "MinDistance", "MaxDistance")
}

// checkOrderedPair verifies that when both bounds of a paired setting
// are present, the lower one is strictly below the upper one.
func (r *run) checkOrderedPair(path string, section map[string]interface{}, lowKey, highKey string) {
	low, lowOK := asFloat(section[lowKey])
	high, highOK := asFloat(section[highKey])
	if lowOK && highOK && low >= high {
		r.violate(KindCrossFieldViolation, joinPath(path, lowKey),
			"%s (%v) must be below %s (%v)", lowKey, low, highKey, high)
	}
}

func (r *run) validateDistance(path string, value interface{}) {
	distance, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, distance, distanceFields) {
		return
	}
	r.checkBool(joinPath(path, "Enabled"), distance["Enabled"])
	r.checkStringEnum(joinPath(path, "Method"), distance["Method"], sensorMethods)
	if r.done() {
		return
	}
	r.checkPose(path, distance)
	if r.done() {
		return
	}
	r.checkFloatRange(joinPath(path, "PublishingRate"), distance["PublishingRate"], distanceRateMin, distanceRateMax)
	r.checkFloatRange(joinPath(path, "MinDistance"), distance["MinDistance"], distanceMin, distanceMax)
	r.checkFloatRange(joinPath(path, "MaxDistance"), distance["MaxDistance"], distanceMin, distanceMax)
	if r.done() {
		return
	}
	r.checkOrderedPair(path, distance, "MinDistance", "MaxDistance")
}
