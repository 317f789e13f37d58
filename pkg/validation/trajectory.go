package validation

// Trajectory bounds. Positions use NED coordinates, so a positive Z
// sits below the origin.
const (
	trajectoryBound    = 1000.0
	trajectoryHeading  = 360.0
	trajectorySpeedMin = 0.0
	trajectorySpeedMax = 20.0
	groundLevelZ       = 0.5
)

var trajectoryPointKeys = []string{"X", "Y", "Z", "Heading", "Speed"}

// ValidateTrajectory validates a decoded trajectory document. The flat
// form is a list of points; the multi-level form maps level names to
// their own point lists. Heading wrap and below-ground points raise
// warnings only.
func (v *Validator) ValidateTrajectory(trajectory interface{}) *Result {
	r := v.newRun()
	switch t := trajectory.(type) {
	case []interface{}:
		r.validatePointList("Trajectory", t)
	case map[string]interface{}:
		if len(t) == 0 {
			r.violate(KindStructuralMismatch, "Trajectory", "multi-level trajectory has no levels")
			return r.res
		}
		for _, level := range sortedKeys(t) {
			path := joinPath("Trajectory", level)
			points, ok := t[level].([]interface{})
			if !ok {
				r.violate(KindTypeMismatch, path, "expected list of points, found %s", typeName(t[level]))
				if r.done() {
					return r.res
				}
				continue
			}
			r.validatePointList(path, points)
			if r.done() {
				return r.res
			}
		}
	default:
		r.violate(KindTypeMismatch, "Trajectory", "expected list or dict, found %s", typeName(trajectory))
	}
	return r.res
}

func (r *run) validatePointList(path string, points []interface{}) {
	if len(points) == 0 {
		r.violate(KindStructuralMismatch, path, "trajectory has no points")
		return
	}
	for i, point := range points {
		r.validateTrajectoryPoint(joinPath(path, indexSegment(i)), point)
		if r.done() {
			return
		}
	}
}

func (r *run) validateTrajectoryPoint(path string, value interface{}) {
	point, ok := r.asSection(path, value)
	if !ok {
		return
	}
	if !r.exactKeySet(path, point, trajectoryPointKeys) {
		return
	}
	for _, key := range trajectoryPointKeys {
		if _, ok := asFloat(point[key]); !ok {
			r.violate(KindTypeMismatch, joinPath(path, key), "expected number, found %s", typeName(point[key]))
			if r.done() {
				return
			}
		}
	}
	if r.done() {
		return
	}

	for _, axis := range []string{"X", "Y", "Z"} {
		r.checkFloatRange(joinPath(path, axis), point[axis], -trajectoryBound, trajectoryBound)
		if r.done() {
			return
		}
	}
	if z, ok := asFloat(point["Z"]); ok && z > groundLevelZ {
		r.warn(joinPath(path, "Z"), "point sits below ground level (Z=%v in NED coordinates)", z)
	}
	if heading, ok := asFloat(point["Heading"]); ok && (heading < -trajectoryHeading || heading > trajectoryHeading) {
		r.warn(joinPath(path, "Heading"), "heading %v is outside [-360, 360] and will be wrapped", heading)
	}
	r.checkFloatRange(joinPath(path, "Speed"), point["Speed"], trajectorySpeedMin, trajectorySpeedMax)
}
