// Package spec defines module specifications, decodes them from JSON, YAML
// and TOML documents, and normalizes them into the parsed form consumed by
// renderers and the relation graph.
package spec

// DataType is the type of a field or primitive action output.
type DataType string

const (
	TypeString   DataType = "string"
	TypeNumber   DataType = "number"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeJSON     DataType = "json"
	TypeRelation DataType = "relation"
)

// PrimitiveTypes lists every non-relation field type in declaration order.
var PrimitiveTypes = []DataType{TypeString, TypeNumber, TypeBoolean, TypeDate, TypeJSON}

// FieldTypes lists every legal field type.
var FieldTypes = append(append([]DataType(nil), PrimitiveTypes...), TypeRelation)

// IsPrimitive reports whether t is one of the primitive kinds.
func (t DataType) IsPrimitive() bool {
	for _, p := range PrimitiveTypes {
		if t == p {
			return true
		}
	}
	return false
}

// Valid reports whether t is a primitive kind or relation.
func (t DataType) Valid() bool {
	return t == TypeRelation || t.IsPrimitive()
}

// RelationType is the cardinality of a relation field.
type RelationType string

const (
	BelongsTo  RelationType = "belongsTo"
	HasOne     RelationType = "hasOne"
	HasMany    RelationType = "hasMany"
	ManyToMany RelationType = "manyToMany"
)

// RelationTypes lists every legal relation kind.
var RelationTypes = []RelationType{BelongsTo, HasOne, HasMany, ManyToMany}

func (r RelationType) Valid() bool {
	for _, v := range RelationTypes {
		if r == v {
			return true
		}
	}
	return false
}

// ActionKind is the explicit operation type of an action.
type ActionKind string

const (
	KindCreate ActionKind = "create"
	KindUpdate ActionKind = "update"
	KindDelete ActionKind = "delete"
	KindList   ActionKind = "list"
	KindGet    ActionKind = "get"
	KindCount  ActionKind = "count"
	KindCustom ActionKind = "custom"
)

// ActionKinds lists every legal action kind.
var ActionKinds = []ActionKind{KindCreate, KindUpdate, KindDelete, KindList, KindGet, KindCount, KindCustom}

func (k ActionKind) Valid() bool {
	for _, v := range ActionKinds {
		if k == v {
			return true
		}
	}
	return false
}

// OutputKind tags an ActionOutput.
type OutputKind string

const (
	OutputPrimitive OutputKind = "primitive"
	OutputModel     OutputKind = "model"
	OutputVoid      OutputKind = "void"
)

// ReservedFieldNames are injected by renderers; authored definitions are dropped.
var ReservedFieldNames = []string{"id", "createdAt", "updatedAt"}

// IsReservedField reports whether name is auto-injected.
func IsReservedField(name string) bool {
	for _, r := range ReservedFieldNames {
		if name == r {
			return true
		}
	}
	return false
}

// ModuleSpec is a module as authored. Slices keep declaration order.
type ModuleSpec struct {
	Name        string
	Description string
	Models      []ModelSchema
	Actions     []ActionDefinition
	SkipUI      bool

	// Source is the file the spec was read from; empty for in-memory specs.
	Source string
}

// ModelSchema is a named, ordered list of field definitions.
type ModelSchema struct {
	Name   string
	Fields []FieldDefinition
}

// FieldDefinition is a field as authored. Optional flags are pointers so that
// absence can be told apart from false.
type FieldDefinition struct {
	Name         string
	Type         DataType
	Required     *bool
	IsArray      *bool
	Description  string
	Target       string
	RelationType RelationType
	// Default is the declared default value, nil when absent. Numbers decode
	// as int64 or float64.
	Default any
}

// ActionDefinition is an action as authored.
type ActionDefinition struct {
	Name        string
	Type        ActionKind
	Input       []FieldDefinition
	HasInput    bool
	Output      *ActionOutput
	Description string
}

// ActionOutput is the tagged output descriptor of an action.
type ActionOutput struct {
	Kind      OutputKind
	Type      DataType // primitive outputs
	ModelName string   // model outputs
	IsArray   bool     // model outputs
}

// VoidOutput is the output assumed when none is declared.
func VoidOutput() ActionOutput {
	return ActionOutput{Kind: OutputVoid}
}

// Model returns the model called name.
func (s *ModuleSpec) Model(name string) (*ModelSchema, bool) {
	for i := range s.Models {
		if s.Models[i].Name == name {
			return &s.Models[i], true
		}
	}
	return nil, false
}

// ModelNames returns model names in declaration order.
func (s *ModuleSpec) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for _, m := range s.Models {
		names = append(names, m.Name)
	}
	return names
}

// ParsedField is a field with every default resolved.
type ParsedField struct {
	Name         string
	Type         DataType
	Required     bool
	IsArray      bool
	Description  string
	Target       string
	RelationType RelationType
	Default      any
}

// IsRelation reports whether the field references another model.
func (f ParsedField) IsRelation() bool {
	return f.Type == TypeRelation
}

// ForeignKey is the scalar column backing a relation field.
func (f ParsedField) ForeignKey() string {
	return f.Name + "Id"
}

type ParsedModel struct {
	Name   string
	Fields []ParsedField
}

// Field returns the field called name.
func (m *ParsedModel) Field(name string) (*ParsedField, bool) {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// ScalarFields returns the non-relation fields.
func (m *ParsedModel) ScalarFields() []ParsedField {
	var out []ParsedField
	for _, f := range m.Fields {
		if !f.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}

// ParsedAction is an action with its output normalized to the three-way union.
type ParsedAction struct {
	Name        string
	Type        ActionKind // empty when not declared
	Input       []ParsedField
	HasInput    bool
	Output      ActionOutput
	Description string
}

// ParsedModuleSpec is the normalized form of a ModuleSpec.
type ParsedModuleSpec struct {
	ModuleName  string
	Description string
	Models      []ParsedModel
	Actions     []ParsedAction
	SkipUI      bool
	Source      string
}

// PrimaryModel is the first declared model, or nil when there is none.
func (p *ParsedModuleSpec) PrimaryModel() *ParsedModel {
	if len(p.Models) == 0 {
		return nil
	}
	return &p.Models[0]
}

// Model returns the model called name.
func (p *ParsedModuleSpec) Model(name string) (*ParsedModel, bool) {
	for i := range p.Models {
		if p.Models[i].Name == name {
			return &p.Models[i], true
		}
	}
	return nil, false
}

// Action returns the action called name.
func (p *ParsedModuleSpec) Action(name string) (*ParsedAction, bool) {
	for i := range p.Actions {
		if p.Actions[i].Name == name {
			return &p.Actions[i], true
		}
	}
	return nil, false
}
