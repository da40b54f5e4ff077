package spec

import (
	"fmt"
)

// shapeError reports a value of the wrong JSON kind at a dotted path.
type shapeError struct {
	path string
	want string
	got  any
}

func (e *shapeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.path, e.want, kindName(e.got))
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64, int, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// buildModuleSpec maps a decoded document onto ModuleSpec. Unknown keys are
// ignored; known keys with the wrong shape fail.
func buildModuleSpec(doc any) (*ModuleSpec, error) {
	root, ok := doc.(*object)
	if !ok {
		return nil, &shapeError{path: "(root)", want: "object", got: doc}
	}

	s := &ModuleSpec{}
	var err error
	if s.Name, err = optString(root, "", "name"); err != nil {
		return nil, err
	}
	if s.Description, err = optString(root, "", "description"); err != nil {
		return nil, err
	}
	if skip, err := optBool(root, "", "skipUI"); err != nil {
		return nil, err
	} else if skip != nil {
		s.SkipUI = *skip
	}

	if v, ok := root.get("models"); ok && v != nil {
		models, ok := v.(*object)
		if !ok {
			return nil, &shapeError{path: "models", want: "object", got: v}
		}
		for _, name := range models.keys {
			path := joinPath("models", name)
			fields, err := buildFields(models.values[name], path)
			if err != nil {
				return nil, err
			}
			s.Models = append(s.Models, ModelSchema{Name: name, Fields: fields})
		}
	}

	if v, ok := root.get("actions"); ok && v != nil {
		actions, ok := v.(*object)
		if !ok {
			return nil, &shapeError{path: "actions", want: "object", got: v}
		}
		for _, name := range actions.keys {
			a, err := buildAction(name, actions.values[name], joinPath("actions", name))
			if err != nil {
				return nil, err
			}
			s.Actions = append(s.Actions, a)
		}
	}
	return s, nil
}

func buildFields(v any, path string) ([]FieldDefinition, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(*object)
	if !ok {
		return nil, &shapeError{path: path, want: "object", got: v}
	}
	fields := make([]FieldDefinition, 0, len(obj.keys))
	for _, name := range obj.keys {
		f, err := buildField(name, obj.values[name], joinPath(path, name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func buildField(name string, v any, path string) (FieldDefinition, error) {
	f := FieldDefinition{Name: name}
	obj, ok := v.(*object)
	if !ok {
		return f, &shapeError{path: path, want: "object", got: v}
	}

	typ, err := optString(obj, path, "type")
	if err != nil {
		return f, err
	}
	f.Type = DataType(typ)
	if f.Required, err = optBool(obj, path, "required"); err != nil {
		return f, err
	}
	if f.IsArray, err = optBool(obj, path, "isArray"); err != nil {
		return f, err
	}
	if f.Description, err = optString(obj, path, "description"); err != nil {
		return f, err
	}
	if f.Target, err = optString(obj, path, "target"); err != nil {
		return f, err
	}
	rel, err := optString(obj, path, "relationType")
	if err != nil {
		return f, err
	}
	f.RelationType = RelationType(rel)

	if d, ok := obj.get("default"); ok {
		switch d.(type) {
		case *object, []any:
			return f, &shapeError{path: joinPath(path, "default"), want: "scalar", got: d}
		}
		f.Default = d
	}
	return f, nil
}

func buildAction(name string, v any, path string) (ActionDefinition, error) {
	a := ActionDefinition{Name: name}
	obj, ok := v.(*object)
	if !ok {
		return a, &shapeError{path: path, want: "object", got: v}
	}

	typ, err := optString(obj, path, "type")
	if err != nil {
		return a, err
	}
	a.Type = ActionKind(typ)
	if a.Description, err = optString(obj, path, "description"); err != nil {
		return a, err
	}

	if in, ok := obj.get("input"); ok && in != nil {
		a.HasInput = true
		if a.Input, err = buildFields(in, joinPath(path, "input")); err != nil {
			return a, err
		}
	}

	if out, ok := obj.get("output"); ok && out != nil {
		outPath := joinPath(path, "output")
		outObj, ok := out.(*object)
		if !ok {
			return a, &shapeError{path: outPath, want: "object", got: out}
		}
		o := &ActionOutput{}
		kind, err := optString(outObj, outPath, "kind")
		if err != nil {
			return a, err
		}
		o.Kind = OutputKind(kind)
		t, err := optString(outObj, outPath, "type")
		if err != nil {
			return a, err
		}
		o.Type = DataType(t)
		if o.ModelName, err = optString(outObj, outPath, "modelName"); err != nil {
			return a, err
		}
		isArray, err := optBool(outObj, outPath, "isArray")
		if err != nil {
			return a, err
		}
		if isArray != nil {
			o.IsArray = *isArray
		}
		a.Output = o
	}
	return a, nil
}

func optString(obj *object, path, key string) (string, error) {
	v, ok := obj.get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &shapeError{path: joinPath(path, key), want: "string", got: v}
	}
	return s, nil
}

func optBool(obj *object, path, key string) (*bool, error) {
	v, ok := obj.get(key)
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, &shapeError{path: joinPath(path, key), want: "boolean", got: v}
	}
	return &b, nil
}
