// Package validation checks authored module specs before anything is
// rendered. Validate never fails and never stops at the first finding: every
// problem in a spec is reported in one pass.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"orivus/internal/actions"
	"orivus/internal/naming"
	"orivus/internal/spec"
)

// Finding is one error or warning, located by a dotted path into the spec.
type Finding struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Result is the outcome of validating one spec. Valid is true exactly when
// Errors is empty.
type Result struct {
	Module   string    `json:"module,omitempty"`
	Source   string    `json:"source,omitempty"`
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// HasCode reports whether any error or warning carries code.
func (r *Result) HasCode(code string) bool {
	for _, f := range r.Errors {
		if f.Code == code {
			return true
		}
	}
	for _, f := range r.Warnings {
		if f.Code == code {
			return true
		}
	}
	return false
}

type collector struct {
	errors   []Finding
	warnings []Finding
}

func (c *collector) errorf(code, path, suggestion, format string, args ...any) {
	c.errors = append(c.errors, Finding{Code: code, Message: fmt.Sprintf(format, args...), Path: path, Suggestion: suggestion})
}

func (c *collector) warnf(code, path, suggestion, format string, args ...any) {
	c.warnings = append(c.warnings, Finding{Code: code, Message: fmt.Sprintf(format, args...), Path: path, Suggestion: suggestion})
}

// Validate checks s on its own: relation targets are resolved against the
// spec's own models.
func Validate(s *spec.ModuleSpec) Result {
	var known []string
	if s != nil {
		known = s.ModelNames()
		known = append(known, s.Name)
	}
	return ValidateWith(s, known)
}

// ValidateWith checks s, treating every name in knownTargets (model or
// module names, compared case-insensitively) as a resolvable relation target.
func ValidateWith(s *spec.ModuleSpec, knownTargets []string) Result {
	c := &collector{}
	res := Result{}
	if s == nil {
		s = &spec.ModuleSpec{}
	}
	res.Module, res.Source = s.Name, s.Source

	targets := make(map[string]bool, len(knownTargets))
	for _, t := range knownTargets {
		targets[strings.ToLower(t)] = true
	}

	checkStructure(c, s)
	checkModuleName(c, s)
	checkModels(c, s, targets)
	checkActions(c, s, targets)
	checkCompleteness(c, s)

	res.Errors = nonNil(c.errors)
	res.Warnings = nonNil(c.warnings)
	res.Valid = len(res.Errors) == 0
	return res
}

func nonNil(f []Finding) []Finding {
	if f == nil {
		return []Finding{}
	}
	return f
}

func checkStructure(c *collector, s *spec.ModuleSpec) {
	if strings.TrimSpace(s.Name) == "" {
		c.errorf("MISSING_NAME", "name", `Add a 'name' field, e.g. "name": "user"`, "Module must have a 'name' field")
	}
	if len(s.Models) == 0 {
		c.errorf("MISSING_MODELS", "models", "Add a 'models' object with at least one model definition", "Module must define at least one model")
	}
	if len(s.Actions) == 0 {
		c.errorf("MISSING_ACTIONS", "actions", "Add an 'actions' object with at least one action (e.g. createUser, listUsers)", "Module must define at least one action")
	}
}

func checkModuleName(c *collector, s *spec.ModuleSpec) {
	if s.Name == "" || naming.IsLowerCamel(s.Name) {
		return
	}
	c.errorf("INVALID_MODULE_NAME", "name", fmt.Sprintf("Use camelCase, e.g. '%s'", naming.LowerCamel(s.Name)),
		"Module name '%s' should be camelCase", s.Name)
}

func checkModels(c *collector, s *spec.ModuleSpec, targets map[string]bool) {
	for _, m := range s.Models {
		path := "models." + m.Name
		if !naming.IsPascal(m.Name) {
			c.errorf("INVALID_MODEL_NAME", path, fmt.Sprintf("Use PascalCase, e.g. '%s'", naming.Pascal(m.Name)),
				"Model name '%s' should be PascalCase", m.Name)
		}
		if naming.EndsInConsonantY(m.Name) {
			c.warnf("PLURALIZATION_NOTE", path, "",
				"Model '%s' ends in 'y'. Its list action should be 'list%s' (not 'list%ss')", m.Name, naming.Plural(m.Name), m.Name)
		}
		if len(m.Fields) == 0 {
			c.warnf("EMPTY_MODEL", path, "", "Model '%s' has no fields defined", m.Name)
		}

		seen := make(map[string]bool, len(m.Fields))
		var dups []string
		for _, f := range m.Fields {
			fpath := path + "." + f.Name
			checkField(c, f, fpath, targets, "MISSING_FIELD_TYPE")
			if spec.IsReservedField(f.Name) {
				c.warnf("RESERVED_FIELD_NAME", fpath, "Remove the field", "Field '%s' is auto-generated. Your definition will be ignored.", f.Name)
			}
			checkDefault(c, f, fpath)

			key := strings.ToLower(f.Name)
			if seen[key] {
				dups = append(dups, f.Name)
			}
			seen[key] = true
		}
		if len(dups) > 0 {
			c.errorf("DUPLICATE_FIELDS", path, "Field names must be unique ignoring case",
				"Model '%s' has duplicate field names: %s", m.Name, strings.Join(dups, ", "))
		}
	}
}

func checkField(c *collector, f spec.FieldDefinition, path string, targets map[string]bool, missingCode string) {
	if f.Type == "" {
		c.errorf(missingCode, path, "Add a type, one of: "+typeList(spec.FieldTypes), "Field '%s' is missing 'type'", f.Name)
		return
	}
	if !f.Type.Valid() {
		c.errorf("INVALID_FIELD_TYPE", path+".type", "Valid types are: "+typeList(spec.FieldTypes),
			"Field '%s' has invalid type '%s'", f.Name, f.Type)
		return
	}

	if f.Type != spec.TypeRelation {
		if f.Target != "" || f.RelationType != "" {
			c.errorf("RELATION_ATTRS_ON_PRIMITIVE", path, "Remove 'target' and 'relationType', or set \"type\": \"relation\"",
				"Field '%s' has type '%s' but declares relation attributes", f.Name, f.Type)
		}
		return
	}

	switch {
	case f.Target == "":
		c.errorf("MISSING_RELATION_TARGET", path, `Add a 'target' naming the related model, e.g. "target": "User"`,
			"Relation field '%s' is missing 'target'", f.Name)
	case !targets[strings.ToLower(f.Target)]:
		c.warnf("EXTERNAL_RELATION_TARGET", path+".target", "Make sure a module defining it is generated too",
			"Relation '%s' targets '%s' which is not defined in this batch", f.Name, f.Target)
	}

	switch {
	case f.RelationType == "":
		c.errorf("MISSING_RELATION_TYPE", path, "Add a 'relationType', one of: "+relationList(),
			"Relation field '%s' is missing 'relationType'", f.Name)
	case !f.RelationType.Valid():
		c.errorf("INVALID_RELATION_TYPE", path+".relationType", "Valid relation types are: "+relationList(),
			"Relation '%s' has invalid relationType '%s'", f.Name, f.RelationType)
	case f.RelationType == spec.ManyToMany:
		c.warnf("MANYTOMANY_LIMITED", path, "",
			"manyToMany relations have limited support. Field '%s' may require manual schema adjustments.", f.Name)
	}
}

// checkDefault compares the runtime kind of a declared default with the
// field's primitive type.
func checkDefault(c *collector, f spec.FieldDefinition, path string) {
	if f.Default == nil {
		return
	}
	var want string
	ok := true
	switch f.Type {
	case spec.TypeString:
		want = "string"
		_, ok = f.Default.(string)
	case spec.TypeNumber:
		want = "number"
		ok = isNumber(f.Default)
	case spec.TypeBoolean:
		want = "boolean"
		_, ok = f.Default.(bool)
	case spec.TypeDate:
		want = `date string ("now", YYYY-MM-DD or RFC 3339)`
		str, isStr := f.Default.(string)
		ok = isStr && isDate(str)
	case spec.TypeRelation:
		c.errorf("INVALID_DEFAULT_TYPE", path+".default", "Remove the default", "Relation field '%s' cannot declare a default", f.Name)
		return
	default:
		return
	}
	if !ok {
		c.errorf("INVALID_DEFAULT_TYPE", path+".default", "Change default to a "+want+" value",
			"Field '%s' has type '%s' but default value is %s", f.Name, f.Type, kindOf(f.Default))
	}
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(n))
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	return false
}

func isDate(s string) bool {
	if s == "now" {
		return true
	}
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	if isNumber(v) {
		return "a number"
	}
	return fmt.Sprintf("a %T", v)
}

func checkActions(c *collector, s *spec.ModuleSpec, targets map[string]bool) {
	models := s.ModelNames()
	local := make(map[string]bool, len(models))
	for _, m := range models {
		local[m] = true
	}
	example := "Entity"
	if len(models) > 0 {
		example = models[0]
	}

	for _, a := range s.Actions {
		path := "actions." + a.Name
		if a.Type != "" && !a.Type.Valid() {
			c.errorf("INVALID_ACTION_TYPE", path+".type", "Valid types are: "+kindList(),
				"Invalid action type '%s'", a.Type)
		}
		if !naming.IsLowerCamel(a.Name) {
			suggestion := fmt.Sprintf("Use camelCase, e.g. 'create%s'", example)
			if a.Name != "" {
				suggestion = fmt.Sprintf("Use camelCase, e.g. '%s'", naming.LowerCamel(a.Name))
			}
			c.errorf("INVALID_ACTION_NAME", path, suggestion, "Action name '%s' should be camelCase", a.Name)
		}

		for _, f := range a.Input {
			checkField(c, f, path+".input."+f.Name, targets, "MISSING_INPUT_TYPE")
		}
		checkOutput(c, a, path+".output", local, models)
	}
}

func checkOutput(c *collector, a spec.ActionDefinition, path string, local map[string]bool, models []string) {
	o := a.Output
	if o == nil {
		c.warnf("MISSING_ACTION_OUTPUT", strings.TrimSuffix(path, ".output"),
			`Add an 'output', e.g. { "kind": "model", "modelName": "User" }`,
			"Action '%s' has no 'output'; it is treated as void", a.Name)
		return
	}
	switch o.Kind {
	case "", spec.OutputVoid:
	case spec.OutputPrimitive:
		if !o.Type.IsPrimitive() {
			c.errorf("INVALID_OUTPUT_TYPE", path+".type", "Valid primitive types are: "+typeList(spec.PrimitiveTypes),
				"Action '%s' returns primitive type '%s'", a.Name, o.Type)
		}
	case spec.OutputModel:
		available := strings.Join(models, ", ")
		if available == "" {
			available = "none"
		}
		switch {
		case o.ModelName == "":
			c.errorf("MISSING_OUTPUT_MODEL", path, "Available models: "+available,
				"Action '%s' returns a model but has no 'modelName'", a.Name)
		case !local[o.ModelName]:
			c.errorf("INVALID_OUTPUT_MODEL", path+".modelName", "Available models: "+available,
				"Action '%s' references model '%s' which doesn't exist", a.Name, o.ModelName)
		}
	default:
		c.errorf("INVALID_OUTPUT_KIND", path+".kind", "Use one of: primitive, model, void",
			"Action '%s' has unknown output kind '%s'", a.Name, o.Kind)
	}
}

// checkCompleteness warns when the resolver finds no create or list action,
// since the form and list UI depend on them.
func checkCompleteness(c *collector, s *spec.ModuleSpec) {
	if len(s.Actions) == 0 {
		return
	}
	parsed := make([]spec.ParsedAction, 0, len(s.Actions))
	for _, a := range s.Actions {
		parsed = append(parsed, lenient(a))
	}
	if _, ok := actions.FindCreate(parsed); !ok {
		c.warnf("NO_CREATE_ACTION", "actions", `Add an action with "type": "create"`,
			"No create action found. UI form generation will be skipped.")
	}
	if _, ok := actions.FindList(parsed); !ok {
		c.warnf("NO_LIST_ACTION", "actions", `Add an action with "type": "list"`,
			"Module '%s' has no list action. UI list generation will be skipped and relation pickers targeting it will fail.", s.Name)
	}
}

// lenient projects an authored action onto the parsed shape without failing;
// invalid kinds are dropped so the resolver falls back to names.
func lenient(a spec.ActionDefinition) spec.ParsedAction {
	pa := spec.ParsedAction{Name: a.Name, Output: spec.VoidOutput()}
	if a.Type.Valid() {
		pa.Type = a.Type
	}
	if a.Output != nil {
		pa.Output = *a.Output
	}
	return pa
}

func typeList(types []spec.DataType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func relationList() string {
	parts := make([]string, len(spec.RelationTypes))
	for i, r := range spec.RelationTypes {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func kindList() string {
	parts := make([]string, len(spec.ActionKinds))
	for i, k := range spec.ActionKinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
