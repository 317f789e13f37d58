package validation

import (
	"math"
	"strconv"

	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
)

// typeName names the runtime type of a decoded JSON value using the
// descriptor's own type vocabulary, for diagnostics.
func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64, int, int64, float32:
		return "number"
	case string:
		return "str"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "dict"
	default:
		return "unknown"
	}
}

// asFloat extracts a numeric value from a decoded JSON field.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// isInteger reports whether the value is a whole number. JSON decoding
// yields float64 for every number, so 3.0 counts as an integer.
func isInteger(v interface{}) bool {
	n, ok := asFloat(v)
	return ok && math.Trunc(n) == n
}

// matchesType checks a decoded JSON value against a declared type tag.
// Integers accept whole floats; floats accept any number.
func matchesType(v interface{}, t descriptor.DataType) bool {
	switch t {
	case descriptor.TypeInteger:
		return isInteger(v)
	case descriptor.TypeFloat:
		_, ok := asFloat(v)
		return ok
	case descriptor.TypeString:
		_, ok := v.(string)
		return ok
	case descriptor.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case descriptor.TypeList:
		_, ok := v.([]interface{})
		return ok
	case descriptor.TypeMapping:
		_, ok := v.(map[string]interface{})
		return ok
	default:
		return false
	}
}

// checkRule evaluates one parameter value against its descriptor rule.
// Checks run in order: type, then numeric range and enum membership,
// then enum membership for strings, then element rules for lists, then
// field rules for mappings. The first failing check wins for the field
// even in aggregate mode; distinct fields still accumulate.
func (r *run) checkRule(path string, value interface{}, rule *descriptor.ParameterRule) {
	if !matchesType(value, rule.Type) {
		r.violate(KindTypeMismatch, path, "expected %s, found %s", rule.Type, typeName(value))
		return
	}
	switch rule.Type {
	case descriptor.TypeInteger, descriptor.TypeFloat:
		n, _ := asFloat(value)
		if rule.HasRange() && (n < rule.Range[0] || n > rule.Range[1]) {
			r.violate(KindRangeViolation, path, "value %v outside range [%v, %v]", n, rule.Range[0], rule.Range[1])
			return
		}
		if len(rule.ValidEntries) > 0 && !rule.AcceptsAnyEntry() && !rule.ValidEntries.ContainsNumber(n) {
			r.violate(KindInvalidEnumValue, path, "value %v is not an accepted entry", n)
		}
	case descriptor.TypeString:
		s := value.(string)
		if len(rule.ValidEntries) > 0 && !rule.AcceptsAnyEntry() && !rule.ValidEntries.ContainsString(s) {
			r.violate(KindInvalidEnumValue, path, "value %q is not an accepted entry", s)
		}
	case descriptor.TypeList:
		r.checkListRule(path, value.([]interface{}), rule)
	case descriptor.TypeMapping:
		r.checkMappingRule(path, value.(map[string]interface{}), rule)
	}
}

func (r *run) checkListRule(path string, list []interface{}, rule *descriptor.ParameterRule) {
	if rule.Length > 0 && len(list) != rule.Length {
		r.violate(KindStructuralMismatch, path, "list has %d elements, requires %d", len(list), rule.Length)
		return
	}
	for i, elem := range list {
		elemPath := joinPath(path, indexSegment(i))
		if rule.FieldDataType != descriptor.TypeInvalid && !matchesType(elem, rule.FieldDataType) {
			r.violate(KindTypeMismatch, elemPath, "expected %s, found %s", rule.FieldDataType, typeName(elem))
			if r.done() {
				return
			}
			continue
		}
		if rule.HasFieldRange() {
			if n, ok := asFloat(elem); ok && (n < rule.FieldRange[0] || n > rule.FieldRange[1]) {
				r.violate(KindRangeViolation, elemPath, "value %v outside range [%v, %v]", n, rule.FieldRange[0], rule.FieldRange[1])
			}
		}
		if r.done() {
			return
		}
	}
}

func (r *run) checkMappingRule(path string, m map[string]interface{}, rule *descriptor.ParameterRule) {
	anyField := rule.AcceptsAnyField()
	for _, key := range sortedKeys(m) {
		fieldPath := joinPath(path, key)
		if !anyField && len(rule.ValidFields) > 0 && !containsString(rule.ValidFields, key) {
			r.violate(KindUnknownField, fieldPath, "field is not an accepted key")
			if r.done() {
				return
			}
			continue
		}
		elem := m[key]
		if rule.FieldDataType != descriptor.TypeInvalid && !matchesType(elem, rule.FieldDataType) {
			r.violate(KindTypeMismatch, fieldPath, "expected %s, found %s", rule.FieldDataType, typeName(elem))
			if r.done() {
				return
			}
			continue
		}
		if rule.HasFieldRange() {
			if n, ok := asFloat(elem); ok && (n < rule.FieldRange[0] || n > rule.FieldRange[1]) {
				r.violate(KindRangeViolation, fieldPath, "value %v outside range [%v, %v]", n, rule.FieldRange[0], rule.FieldRange[1])
			}
		}
		if r.done() {
			return
		}
	}
}

// checkFloatRange asserts a numeric field lies within a closed range.
func (r *run) checkFloatRange(path string, value interface{}, min, max float64) {
	n, ok := asFloat(value)
	if !ok {
		r.violate(KindTypeMismatch, path, "expected number, found %s", typeName(value))
		return
	}
	if n < min || n > max {
		r.violate(KindRangeViolation, path, "value %v outside range [%v, %v]", n, min, max)
	}
}

// checkBool asserts a field is a boolean.
func (r *run) checkBool(path string, value interface{}) {
	if _, ok := value.(bool); !ok {
		r.violate(KindTypeMismatch, path, "expected bool, found %s", typeName(value))
	}
}

// checkString asserts a field is a string and returns it.
func (r *run) checkString(path string, value interface{}) (string, bool) {
	s, ok := value.(string)
	if !ok {
		r.violate(KindTypeMismatch, path, "expected str, found %s", typeName(value))
		return "", false
	}
	return s, true
}

// checkStringEnum asserts a field is a string from a closed set.
func (r *run) checkStringEnum(path string, value interface{}, allowed []string) {
	s, ok := r.checkString(path, value)
	if !ok {
		return
	}
	if !containsString(allowed, s) {
		r.violate(KindInvalidEnumValue, path, "value %q is not one of %v", s, allowed)
	}
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
