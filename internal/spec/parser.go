package spec

import (
	"fmt"
	"strings"

	oerrors "orivus/internal/errors"
)

// Parse normalizes an authored spec: defaults are resolved (required true,
// isArray false, description empty), outputs become primitive, model or
// void, and reserved model fields are dropped. Structural violations fail
// with SPEC_STRUCTURE; everything else is left to the validator.
func Parse(s *ModuleSpec) (*ParsedModuleSpec, error) {
	if s == nil {
		return nil, structural("spec is empty")
	}
	if strings.TrimSpace(s.Name) == "" {
		return nil, structural("module must have a 'name'")
	}

	parsed := &ParsedModuleSpec{
		ModuleName:  s.Name,
		Description: s.Description,
		SkipUI:      s.SkipUI,
		Source:      s.Source,
		Models:      make([]ParsedModel, 0, len(s.Models)),
		Actions:     make([]ParsedAction, 0, len(s.Actions)),
	}

	modelNames := make(map[string]bool, len(s.Models))
	for _, m := range s.Models {
		modelNames[m.Name] = true
		pm := ParsedModel{Name: m.Name, Fields: make([]ParsedField, 0, len(m.Fields))}
		for _, f := range m.Fields {
			if IsReservedField(f.Name) {
				continue
			}
			pf, err := parseField(f, "models."+m.Name+"."+f.Name)
			if err != nil {
				return nil, err
			}
			pm.Fields = append(pm.Fields, pf)
		}
		parsed.Models = append(parsed.Models, pm)
	}

	for _, a := range s.Actions {
		pa, err := parseAction(a, modelNames)
		if err != nil {
			return nil, err
		}
		parsed.Actions = append(parsed.Actions, pa)
	}
	return parsed, nil
}

func parseField(f FieldDefinition, path string) (ParsedField, error) {
	pf := ParsedField{
		Name:         f.Name,
		Type:         f.Type,
		Required:     true,
		Description:  f.Description,
		Target:       f.Target,
		RelationType: f.RelationType,
		Default:      f.Default,
	}
	if f.Required != nil {
		pf.Required = *f.Required
	}
	if f.IsArray != nil {
		pf.IsArray = *f.IsArray
	}

	switch {
	case f.Type == "":
		return pf, structural("%s: field has no 'type'", path)
	case !f.Type.Valid():
		return pf, structural("%s: unsupported type %q (allowed: %s)", path, f.Type, joinTypes(FieldTypes))
	case f.Type == TypeRelation:
		if f.Target == "" {
			return pf, structural("%s: relation field requires 'target'", path)
		}
		if !f.RelationType.Valid() {
			return pf, structural("%s: relation field requires a valid 'relationType', got %q", path, f.RelationType)
		}
	case f.Target != "" || f.RelationType != "":
		return pf, structural("%s: 'target' and 'relationType' are only allowed on relation fields", path)
	}
	return pf, nil
}

func parseAction(a ActionDefinition, modelNames map[string]bool) (ParsedAction, error) {
	path := "actions." + a.Name
	pa := ParsedAction{
		Name:        a.Name,
		Type:        a.Type,
		HasInput:    a.HasInput,
		Description: a.Description,
	}
	if a.Type != "" && !a.Type.Valid() {
		return pa, structural("%s: unknown action type %q", path, a.Type)
	}

	for _, f := range a.Input {
		pf, err := parseField(f, path+".input."+f.Name)
		if err != nil {
			return pa, err
		}
		pa.Input = append(pa.Input, pf)
	}

	out, err := normalizeOutput(a.Output, path+".output")
	if err != nil {
		return pa, err
	}
	if out.Kind == OutputModel && !modelNames[out.ModelName] {
		return pa, structural("%s: returns unknown model %q", path, out.ModelName)
	}
	pa.Output = out
	return pa, nil
}

func normalizeOutput(o *ActionOutput, path string) (ActionOutput, error) {
	if o == nil {
		return VoidOutput(), nil
	}
	switch o.Kind {
	case OutputVoid, "":
		return VoidOutput(), nil
	case OutputPrimitive:
		if !o.Type.IsPrimitive() {
			return ActionOutput{}, structural("%s: primitive output needs a primitive 'type', got %q", path, o.Type)
		}
		return ActionOutput{Kind: OutputPrimitive, Type: o.Type}, nil
	case OutputModel:
		if o.ModelName == "" {
			return ActionOutput{}, structural("%s: model output needs 'modelName'", path)
		}
		return ActionOutput{Kind: OutputModel, ModelName: o.ModelName, IsArray: o.IsArray}, nil
	default:
		return ActionOutput{}, structural("%s: unknown output kind %q", path, o.Kind)
	}
}

// ParseAll parses every spec, stopping at the first structural error.
func ParseAll(specs []*ModuleSpec) ([]*ParsedModuleSpec, error) {
	out := make([]*ParsedModuleSpec, 0, len(specs))
	for _, s := range specs {
		p, err := Parse(s)
		if err != nil {
			if s != nil && s.Source != "" {
				return nil, fmt.Errorf("%s: %w", s.Source, err)
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func structural(format string, args ...any) error {
	return oerrors.Newf(oerrors.SpecStructure, format, args...)
}

func joinTypes(types []DataType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
