package descriptor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DataType identifies the declared type of a configuration parameter.
// Descriptor files spell types the way the server does ("int", "float",
// "str", "bool", "list", "dict"); we decode them once into a closed set
// and compare tags from then on.
type DataType int

const (
	TypeInvalid DataType = iota
	TypeInteger
	TypeFloat
	TypeString
	TypeBoolean
	TypeList
	TypeMapping
)

// ParseDataType maps a descriptor type name to its DataType tag.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(name) {
	case "int", "integer":
		return TypeInteger, nil
	case "float", "double":
		return TypeFloat, nil
	case "str", "string":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBoolean, nil
	case "list":
		return TypeList, nil
	case "dict", "mapping":
		return TypeMapping, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown parameter type %q", name)
	}
}

// String returns the canonical descriptor spelling for the type.
func (t DataType) String() string {
	switch t {
	case TypeInteger:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeBoolean:
		return "bool"
	case TypeList:
		return "list"
	case TypeMapping:
		return "dict"
	default:
		return "invalid"
	}
}

// UnmarshalJSON decodes a descriptor type name into its tag.
func (t *DataType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDataType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON writes the canonical type name.
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Wildcard is the valid-entries sentinel that accepts any value.
const Wildcard = "*"

// EntrySet is a closed set of acceptable values for a parameter. The
// descriptor files mix string and numeric members, so entries stay
// loosely typed and membership is checked per kind.
type EntrySet []interface{}

// ContainsString reports membership of a string value.
func (s EntrySet) ContainsString(v string) bool {
	for _, e := range s {
		if str, ok := e.(string); ok && str == v {
			return true
		}
	}
	return false
}

// ContainsNumber reports membership of a numeric value.
func (s EntrySet) ContainsNumber(v float64) bool {
	for _, e := range s {
		if n, ok := e.(float64); ok && n == v {
			return true
		}
	}
	return false
}

// HasWildcard reports whether the set contains the wildcard sentinel.
// The server files are inconsistent about where the sentinel sits
// (sole element vs. last element), so membership anywhere counts.
func (s EntrySet) HasWildcard() bool {
	return s.ContainsString(Wildcard)
}

// ParameterRule is a single leaf rule inside a capability descriptor:
// a declared type plus the constraints that apply to it.
type ParameterRule struct {
	Type          DataType  `json:"type"`
	Description   string    `json:"description,omitempty"`
	Range         []float64 `json:"range,omitempty"`
	ValidEntries  EntrySet  `json:"valid_entries,omitempty"`
	Length        int       `json:"length,omitempty"`
	FieldDataType DataType  `json:"field_data_type,omitempty"`
	FieldRange    []float64 `json:"field_range,omitempty"`
	ValidFields   []string  `json:"valid_fields,omitempty"`
}

// AcceptsAnyEntry reports whether the rule's valid-entries set is
// wildcarded.
func (r *ParameterRule) AcceptsAnyEntry() bool {
	return r.ValidEntries.HasWildcard()
}

// AcceptsAnyField reports whether the rule's valid-fields set is
// wildcarded for mapping parameters.
func (r *ParameterRule) AcceptsAnyField() bool {
	for _, f := range r.ValidFields {
		if f == Wildcard {
			return true
		}
	}
	return false
}

// HasRange reports whether the rule declares a closed numeric interval.
func (r *ParameterRule) HasRange() bool {
	return len(r.Range) == 2
}

// HasFieldRange reports whether list/mapping elements carry a numeric
// interval of their own.
func (r *ParameterRule) HasFieldRange() bool {
	return len(r.FieldRange) == 2
}

// ModuleCapability describes one supported software module: which
// algorithm classes it offers and the rules for their parameters.
type ModuleCapability struct {
	ValidClassNames   []string                             `json:"ValidClassNames"`
	ValidParameters   map[string]map[string]*ParameterRule `json:"ValidParameters"`
	ValidInputArgs    map[string][]string                  `json:"ValidInputArgs"`
	ValidReturnValues map[string][]string                  `json:"ValidReturnValues"`
	// ValidModuleParameters holds rules for the module-level Parameters
	// section, shared by every class of the module.
	ValidModuleParameters map[string]*ParameterRule `json:"ValidModuleParameters"`
}

// HasClass reports whether the capability lists the given class name.
func (m *ModuleCapability) HasClass(name string) bool {
	for _, c := range m.ValidClassNames {
		if c == name {
			return true
		}
	}
	return false
}

// ModuleDescriptor is the decoded SupportedSoftwareModules document: a
// capability entry per module name plus the global lists that apply to
// every module.
type ModuleDescriptor struct {
	Modules map[string]*ModuleCapability
	// ValidModuleSettings lists the permitted top-level sections of a
	// module entry (Algorithm, Parameters, Publishes, ...). The server
	// file calls this ValidModuleParameters.
	ValidModuleSettings []string
	ValidMessageTypes   []string
	ValidModuleNames    []string
}

// The descriptor file mixes module entries with global lists at the
// same nesting level, so decoding splits on the reserved key names.
var reservedModuleKeys = map[string]bool{
	"ValidModuleParameters": true,
	"ValidMessageTypes":     true,
	"ValidModuleNames":      true,
}

// UnmarshalJSON decodes the SupportedModules mapping, separating the
// reserved global lists from per-module capability entries.
func (d *ModuleDescriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Modules = make(map[string]*ModuleCapability, len(raw))
	for name, body := range raw {
		if reservedModuleKeys[name] {
			var list []string
			if err := json.Unmarshal(body, &list); err != nil {
				return fmt.Errorf("decoding %s: %w", name, err)
			}
			switch name {
			case "ValidModuleParameters":
				d.ValidModuleSettings = list
			case "ValidMessageTypes":
				d.ValidMessageTypes = list
			case "ValidModuleNames":
				d.ValidModuleNames = list
			}
			continue
		}
		var mc ModuleCapability
		if err := json.Unmarshal(body, &mc); err != nil {
			return fmt.Errorf("decoding module %s: %w", name, err)
		}
		d.Modules[name] = &mc
	}
	return nil
}

// Module returns the capability entry for a module name.
func (d *ModuleDescriptor) Module(name string) (*ModuleCapability, bool) {
	m, ok := d.Modules[name]
	return m, ok
}

// ModuleNames returns the names of every supported module.
func (d *ModuleDescriptor) ModuleNames() []string {
	names := make([]string, 0, len(d.Modules))
	for name := range d.Modules {
		names = append(names, name)
	}
	return names
}

// AllowsSetting reports whether a module section name is one of the
// globally permitted module settings.
func (d *ModuleDescriptor) AllowsSetting(name string) bool {
	for _, s := range d.ValidModuleSettings {
		if s == name {
			return true
		}
	}
	return false
}

// AllowsMessageType reports whether a publish/subscribe message name is
// supported.
func (d *ModuleDescriptor) AllowsMessageType(name string) bool {
	for _, m := range d.ValidMessageTypes {
		if m == name {
			return true
		}
	}
	return false
}

// Resolve traverses the descriptor by consecutive names
// (module, class, parameter) and returns the matching rule. The boolean
// is false when any path segment is absent.
func (d *ModuleDescriptor) Resolve(path ...string) (*ParameterRule, bool) {
	if len(path) != 3 {
		return nil, false
	}
	mod, ok := d.Modules[path[0]]
	if !ok {
		return nil, false
	}
	params, ok := mod.ValidParameters[path[1]]
	if !ok {
		return nil, false
	}
	rule, ok := params[path[2]]
	return rule, ok
}

// EnvironmentOption describes one selectable option of an environment.
type EnvironmentOption struct {
	ValidOptions []string `json:"ValidOptions"`
	DefaultValue string   `json:"DefaultValue"`
	Description  string   `json:"Description"`
}

// EnvironmentInfo describes one supported environment: the levels it
// contains and any selectable options.
type EnvironmentInfo struct {
	Levels  []string                      `json:"Levels"`
	Options map[string]*EnvironmentOption `json:"Options"`
}

// EnvironmentDescriptor is the decoded SupportedEnvironments document.
// Older server versions ship a bare list of environment names; newer
// ones ship a mapping with level and option detail. Both decode into
// the same structure.
type EnvironmentDescriptor struct {
	Environments map[string]*EnvironmentInfo
}

// UnmarshalJSON accepts either the list form or the mapping form of the
// environments document.
func (d *EnvironmentDescriptor) UnmarshalJSON(data []byte) error {
	var asMap map[string]*EnvironmentInfo
	if err := json.Unmarshal(data, &asMap); err == nil {
		d.Environments = asMap
		return nil
	}
	var asList []string
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("environments must be a mapping or a list of names: %w", err)
	}
	d.Environments = make(map[string]*EnvironmentInfo, len(asList))
	for _, name := range asList {
		d.Environments[name] = &EnvironmentInfo{}
	}
	return nil
}

// Supports reports whether the environment name is known.
func (d *EnvironmentDescriptor) Supports(name string) bool {
	_, ok := d.Environments[name]
	return ok
}

// Environment returns the info for a named environment.
func (d *EnvironmentDescriptor) Environment(name string) (*EnvironmentInfo, bool) {
	env, ok := d.Environments[name]
	return env, ok
}

// HasLevelInfo reports whether the named environment declares its
// levels. The list form of the document carries no level detail, so
// level cross checks are skipped for it.
func (d *EnvironmentDescriptor) HasLevelInfo(name string) bool {
	env, ok := d.Environments[name]
	return ok && len(env.Levels) > 0
}

// SupportsLevel reports whether the named level exists in the named
// environment.
func (d *EnvironmentDescriptor) SupportsLevel(envName, levelName string) bool {
	env, ok := d.Environments[envName]
	if !ok {
		return false
	}
	for _, l := range env.Levels {
		if l == levelName {
			return true
		}
	}
	return false
}

// Names returns the supported environment names.
func (d *EnvironmentDescriptor) Names() []string {
	names := make([]string, 0, len(d.Environments))
	for name := range d.Environments {
		names = append(names, name)
	}
	return names
}

// ScenarioDescriptor is the decoded SupportedScenarios document.
type ScenarioDescriptor struct {
	Scenarios []string `json:"Scenarios"`
}

// Supports reports whether the scenario name is known.
func (d *ScenarioDescriptor) Supports(name string) bool {
	for _, s := range d.Scenarios {
		if s == name {
			return true
		}
	}
	return false
}

// PhysicsRule is a leaf rule of the vehicle physics descriptor. Unlike
// module parameter rules it spells its fields in PascalCase and allows
// numeric valid-entry sets.
type PhysicsRule struct {
	Type         DataType        `json:"Type"`
	Min          float64         `json:"Min"`
	Max          float64         `json:"Max"`
	ValidEntries json.RawMessage `json:"ValidEntries,omitempty"`
}

// StringEntries returns the rule's valid entries as strings, or nil
// when none are declared.
func (r *PhysicsRule) StringEntries() []string {
	if len(r.ValidEntries) == 0 {
		return nil
	}
	var entries []string
	if err := json.Unmarshal(r.ValidEntries, &entries); err != nil {
		return nil
	}
	return entries
}

// NumericEntries returns the rule's valid entries as numbers, or nil
// when none are declared.
func (r *PhysicsRule) NumericEntries() []float64 {
	if len(r.ValidEntries) == 0 {
		return nil
	}
	var entries []float64
	if err := json.Unmarshal(r.ValidEntries, &entries); err != nil {
		return nil
	}
	return entries
}

// PhysicsSection is one level of the vehicle physics rule tree: leaf
// rules for parameters at this level plus named subsections. Nesting is
// capped at subsections of subsections by the file format itself.
type PhysicsSection struct {
	ValidSubSections []string
	Rules            map[string]*PhysicsRule
	Sections         map[string]*PhysicsSection
}

// UnmarshalJSON splits a physics node into leaf rules (objects carrying
// a Type key) and nested sections.
func (s *PhysicsSection) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Rules = make(map[string]*PhysicsRule)
	s.Sections = make(map[string]*PhysicsSection)
	for name, body := range raw {
		if name == "ValidSubSections" {
			if err := json.Unmarshal(body, &s.ValidSubSections); err != nil {
				return fmt.Errorf("decoding ValidSubSections: %w", err)
			}
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return fmt.Errorf("decoding physics entry %s: %w", name, err)
		}
		if _, isLeaf := probe["Type"]; isLeaf {
			var rule PhysicsRule
			if err := json.Unmarshal(body, &rule); err != nil {
				return fmt.Errorf("decoding physics rule %s: %w", name, err)
			}
			s.Rules[name] = &rule
			continue
		}
		var sub PhysicsSection
		if err := json.Unmarshal(body, &sub); err != nil {
			return fmt.Errorf("decoding physics section %s: %w", name, err)
		}
		s.Sections[name] = &sub
	}
	return nil
}

// IsSubSection reports whether the name is declared as a subsection at
// this level.
func (s *PhysicsSection) IsSubSection(name string) bool {
	for _, sub := range s.ValidSubSections {
		if sub == name {
			return true
		}
	}
	return false
}

// PhysicsDescriptor is the decoded SupportedVehiclePhysicsParameter
// document, keyed by vehicle type.
type PhysicsDescriptor struct {
	Vehicles map[string]*PhysicsSection
}

// UnmarshalJSON decodes the per-vehicle-type rule trees.
func (d *PhysicsDescriptor) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Vehicles)
}

// Vehicle returns the physics rule tree for a vehicle type.
func (d *PhysicsDescriptor) Vehicle(name string) (*PhysicsSection, bool) {
	v, ok := d.Vehicles[name]
	return v, ok
}
