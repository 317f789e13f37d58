package validation

import "github.com/codexlabs/swarm-rds-client/pkg/descriptor"

// ValidateVehicleProfile validates a vehicle physics profile against
// the physics parameter descriptor for the given vehicle type. The
// rule tree nests at most two subsection levels below Physics.
func (v *Validator) ValidateVehicleProfile(profile map[string]interface{}, vehicleType string) *Result {
	r := v.newRun()
	if v.caps == nil || v.caps.Physics == nil {
		r.violate(KindMissingDescriptor, "", "vehicle physics descriptor is not loaded; fetch it from the server first")
		return r.res
	}
	tree, ok := v.caps.Physics.Vehicle(vehicleType)
	if !ok {
		r.violate(KindInvalidEnumValue, "", "vehicle type %q has no physics parameters", vehicleType)
		return r.res
	}
	physicsRaw, ok := profile["Physics"]
	if !ok {
		r.violate(KindStructuralMismatch, "", "profile has no Physics section")
		return r.res
	}
	physics, ok := r.asSection("Physics", physicsRaw)
	if !ok {
		return r.res
	}
	r.walkPhysicsSection("Physics", physics, tree, 0)
	return r.res
}

// walkPhysicsSection validates one level of a profile against one
// level of the rule tree, descending into declared subsections.
func (r *run) walkPhysicsSection(path string, section map[string]interface{}, rules *descriptor.PhysicsSection, depth int) {
	for _, name := range sortedKeys(section) {
		entryPath := joinPath(path, name)
		if depth < 2 && rules.IsSubSection(name) {
			sub, ok := rules.Sections[name]
			if !ok {
				r.violate(KindUnknownField, entryPath, "descriptor declares no rules for subsection %q", name)
				if r.done() {
					return
				}
				continue
			}
			inner, ok := r.asSection(entryPath, section[name])
			if !ok {
				if r.done() {
					return
				}
				continue
			}
			r.walkPhysicsSection(entryPath, inner, sub, depth+1)
			if r.done() {
				return
			}
			continue
		}
		r.checkPhysicsRule(entryPath, name, section[name], rules)
		if r.done() {
			return
		}
	}
}

func (r *run) checkPhysicsRule(path, name string, value interface{}, rules *descriptor.PhysicsSection) {
	rule, ok := rules.Rules[name]
	if !ok {
		r.violate(KindUnknownField, path, "parameter %q is not a supported physics parameter", name)
		return
	}
	if !matchesType(value, rule.Type) {
		r.violate(KindTypeMismatch, path, "expected %s, found %s", rule.Type, typeName(value))
		return
	}
	switch rule.Type {
	case descriptor.TypeInteger, descriptor.TypeFloat:
		n, _ := asFloat(value)
		if rule.Max > rule.Min && (n < rule.Min || n > rule.Max) {
			r.violate(KindRangeViolation, path, "value %v outside range [%v, %v]", n, rule.Min, rule.Max)
			return
		}
		if entries := rule.NumericEntries(); len(entries) > 0 && !containsFloat(entries, n) {
			r.violate(KindInvalidEnumValue, path, "value %v is not an accepted entry", n)
		}
	case descriptor.TypeString:
		s := value.(string)
		entries := rule.StringEntries()
		if len(entries) > 0 && !containsString(entries, descriptor.Wildcard) && !containsString(entries, s) {
			r.violate(KindInvalidEnumValue, path, "value %q is not an accepted entry", s)
		}
	}
}

func containsFloat(list []float64, v float64) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
