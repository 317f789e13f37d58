// Package validation checks simulation settings documents, trajectory
// files and vehicle physics profiles against the capability descriptors
// published by a SWARM RDS server. Validation is fail-fast by default:
// the first violation stops the walk and is reported with the path that
// produced it. Aggregate mode keeps walking and collects every
// violation instead.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codexlabs/swarm-rds-client/pkg/descriptor"
	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

// Kind classifies a violation.
type Kind int

const (
	// KindUnknownField marks a configuration field with no entry in the
	// capability descriptor.
	KindUnknownField Kind = iota
	// KindTypeMismatch marks a value whose runtime type differs from the
	// declared type.
	KindTypeMismatch
	// KindRangeViolation marks a numeric value outside its closed range.
	KindRangeViolation
	// KindInvalidEnumValue marks a value outside its enumerated set.
	KindInvalidEnumValue
	// KindStructuralMismatch marks a section whose key set or shape does
	// not match the required structure.
	KindStructuralMismatch
	// KindCrossFieldViolation marks a consistency failure between fields
	// that are individually valid.
	KindCrossFieldViolation
	// KindMissingDescriptor marks validation attempted without the
	// needed capability descriptor.
	KindMissingDescriptor
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnknownField:
		return "unknown field"
	case KindTypeMismatch:
		return "type mismatch"
	case KindRangeViolation:
		return "range violation"
	case KindInvalidEnumValue:
		return "invalid enum value"
	case KindStructuralMismatch:
		return "structural mismatch"
	case KindCrossFieldViolation:
		return "cross-field violation"
	case KindMissingDescriptor:
		return "missing descriptor"
	default:
		return "unknown"
	}
}

// Violation is one validation failure, located by the dotted path of
// the field that produced it.
type Violation struct {
	Kind    Kind
	Path    string
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s at %s: %s", v.Kind, v.Path, v.Message)
}

// Warning is a non-fatal advisory raised during validation.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Result collects the outcome of one validation pass. In fail-fast
// mode Violations holds at most one entry; in aggregate mode it holds
// every violation found. Warnings never fail a pass.
type Result struct {
	Violations []Violation
	Warnings   []Warning
}

// OK reports whether the document validated with no violations.
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

// First returns the first violation, or nil when the pass succeeded.
func (r *Result) First() *Violation {
	if len(r.Violations) == 0 {
		return nil
	}
	return &r.Violations[0]
}

// Err returns the first violation as an error, or nil.
func (r *Result) Err() error {
	if v := r.First(); v != nil {
		return v
	}
	return nil
}

// Validator validates documents against a loaded descriptor set.
type Validator struct {
	caps      *descriptor.Set
	aggregate bool
	log       logger.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithAggregation makes the validator collect every violation instead
// of stopping at the first.
func WithAggregation() Option {
	return func(v *Validator) { v.aggregate = true }
}

// WithLogger sets the logger used for per-violation diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(v *Validator) { v.log = log }
}

// New creates a validator over the given descriptor set.
func New(caps *descriptor.Set, opts ...Option) *Validator {
	v := &Validator{
		caps: caps,
		log:  logger.Default().WithPrefix("validation"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) newRun() *run {
	return &run{
		res:       &Result{},
		caps:      v.caps,
		aggregate: v.aggregate,
		log:       v.log,
	}
}

// run carries the mutable state of one validation pass.
type run struct {
	res       *Result
	caps      *descriptor.Set
	aggregate bool
	log       logger.Logger
}

// violate records a violation. Walkers consult done() at loop and
// section boundaries to honor fail-fast mode.
func (r *run) violate(kind Kind, path, format string, args ...interface{}) {
	v := Violation{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
	r.res.Violations = append(r.res.Violations, v)
	r.log.Error(v.Error())
}

// warn records a non-fatal advisory.
func (r *run) warn(path, format string, args ...interface{}) {
	w := Warning{Path: path, Message: fmt.Sprintf(format, args...)}
	r.res.Warnings = append(r.res.Warnings, w)
	r.log.Warn(w.String())
}

// done reports whether the walk should stop.
func (r *run) done() bool {
	return !r.aggregate && len(r.res.Violations) > 0
}

// joinPath builds a dotted field path, skipping empty segments.
func joinPath(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

// sortedKeys returns the keys of a settings mapping in stable order so
// repeated runs over the same document report the same first failure.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// exactKeySet verifies a section carries exactly the required keys.
// Returns false after recording a structural violation.
func (r *run) exactKeySet(path string, section map[string]interface{}, required []string) bool {
	missing := make([]string, 0)
	for _, k := range required {
		if _, ok := section[k]; !ok {
			missing = append(missing, k)
		}
	}
	extra := make([]string, 0)
	want := make(map[string]bool, len(required))
	for _, k := range required {
		want[k] = true
	}
	for _, k := range sortedKeys(section) {
		if !want[k] {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return true
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ", "))
	}
	r.violate(KindStructuralMismatch, path, "section keys do not match: %s", strings.Join(parts, "; "))
	return false
}

// asSection asserts a value is a JSON object.
func (r *run) asSection(path string, value interface{}) (map[string]interface{}, bool) {
	section, ok := value.(map[string]interface{})
	if !ok {
		r.violate(KindTypeMismatch, path, "expected a section, found %s", typeName(value))
		return nil, false
	}
	return section, true
}
