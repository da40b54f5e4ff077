package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"orivus/internal/actions"
	"orivus/internal/naming"
	"orivus/internal/spec"
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// inputKey is the property an input field is sent under. Relation inputs
// carry the id of the related record.
func inputKey(f spec.ParsedField) string {
	if f.IsRelation() {
		return f.ForeignKey()
	}
	return f.Name
}

func hasInput(a *spec.ParsedAction) bool {
	return len(a.Input) > 0
}

// zod

func zodScalar(t spec.DataType) string {
	switch t {
	case spec.TypeString, spec.TypeRelation:
		return "z.string()"
	case spec.TypeNumber:
		return "z.number()"
	case spec.TypeBoolean:
		return "z.boolean()"
	case spec.TypeDate:
		return "z.coerce.date()"
	default:
		return "z.any()"
	}
}

func modifiers(expr string, f spec.ParsedField) string {
	if f.IsArray {
		expr += ".array()"
	}
	if !f.Required {
		expr += ".optional()"
	}
	return expr
}

func describe(expr, description string) string {
	if description == "" {
		return expr
	}
	return expr + ".describe(" + jsString(description) + ")"
}

type zodModel struct {
	Name   string
	Fields []string
}

func schemaView(p *spec.ParsedModuleSpec) []zodModel {
	models := make([]zodModel, 0, len(p.Models))
	for _, m := range p.Models {
		zm := zodModel{Name: m.Name}
		zm.Fields = append(zm.Fields, `id: z.string().describe("Auto-generated ID")`)
		for _, f := range m.Fields {
			if !f.IsRelation() {
				zm.Fields = append(zm.Fields, f.Name+": "+modifiers(describe(zodScalar(f.Type), f.Description), f))
				continue
			}
			if f.RelationType == spec.BelongsTo {
				fk := f
				fk.IsArray = false
				zm.Fields = append(zm.Fields, f.ForeignKey()+": "+modifiers("z.string()", fk))
			}
			zm.Fields = append(zm.Fields, f.Name+": "+describe("z.any()", f.Description)+".optional()")
		}
		zm.Fields = append(zm.Fields,
			"createdAt: z.coerce.date().optional()",
			"updatedAt: z.coerce.date().optional()",
		)
		models = append(models, zm)
	}
	return models
}

// router

func inputObject(fields []spec.ParsedField) string {
	props := make([]string, 0, len(fields))
	for _, f := range fields {
		expr := zodScalar(f.Type)
		if f.Required && (f.Type == spec.TypeString || f.IsRelation()) {
			expr += ".min(1)"
		}
		props = append(props, inputKey(f)+": "+modifiers(expr, f))
	}
	return "z.object({ " + strings.Join(props, ", ") + " })"
}

func outputSchema(o spec.ActionOutput) string {
	switch o.Kind {
	case spec.OutputModel:
		if o.IsArray {
			return o.ModelName + "Schema.array()"
		}
		return o.ModelName + "Schema"
	case spec.OutputPrimitive:
		return zodScalar(o.Type)
	}
	return ""
}

type procedure struct {
	Name   string
	Chain  string
	Method string
	Params string
	Call   string
}

type routerView struct {
	Module        string
	TRPCImport    string
	NeedsZod      bool
	SchemaImports string
}

func buildRouter(p *spec.ParsedModuleSpec, trpcImport string) (routerView, []procedure) {
	v := routerView{Module: p.ModuleName, TRPCImport: trpcImport}
	var schemas []string
	seen := map[string]bool{}
	procs := make([]procedure, 0, len(p.Actions))

	for i := range p.Actions {
		a := &p.Actions[i]
		pr := procedure{Name: a.Name, Method: "query"}
		if actions.IsMutation(*a) {
			pr.Method = "mutation"
		}
		if hasInput(a) {
			pr.Chain += "\n    .input(" + inputObject(a.Input) + ")"
			pr.Params = "{ input }"
			pr.Call = fmt.Sprintf("%sService.%s(input)", p.ModuleName, a.Name)
			v.NeedsZod = true
		} else {
			pr.Call = fmt.Sprintf("%sService.%s()", p.ModuleName, a.Name)
		}
		if out := outputSchema(a.Output); out != "" {
			pr.Chain += "\n    .output(" + out + ")"
			if a.Output.Kind == spec.OutputPrimitive {
				v.NeedsZod = true
			}
		}
		if a.Output.Kind == spec.OutputModel && !seen[a.Output.ModelName] {
			seen[a.Output.ModelName] = true
			schemas = append(schemas, a.Output.ModelName+"Schema")
		}
		procs = append(procs, pr)
	}
	v.SchemaImports = strings.Join(schemas, ", ")
	return v, procs
}

// service

func tsType(t spec.DataType) string {
	switch t {
	case spec.TypeString, spec.TypeRelation:
		return "string"
	case spec.TypeNumber:
		return "number"
	case spec.TypeBoolean:
		return "boolean"
	case spec.TypeDate:
		return "Date"
	default:
		return "unknown"
	}
}

func inputSignature(fields []spec.ParsedField) string {
	if len(fields) == 0 {
		return ""
	}
	props := make([]string, 0, len(fields))
	for _, f := range fields {
		opt := ""
		if !f.Required {
			opt = "?"
		}
		arr := ""
		if f.IsArray {
			arr = "[]"
		}
		props = append(props, fmt.Sprintf("%s%s: %s%s", inputKey(f), opt, tsType(f.Type), arr))
	}
	return "input: { " + strings.Join(props, "; ") + " }"
}

// whereField is the input used to locate a single record: id when present,
// otherwise the first input.
func whereField(a *spec.ParsedAction) string {
	for _, f := range a.Input {
		if inputKey(f) == "id" {
			return "id"
		}
	}
	return inputKey(a.Input[0])
}

type method struct {
	Name   string
	Params string
	Return string
}

// serviceReturn is the data-access expression an action compiles to.
func serviceReturn(p *spec.ParsedModuleSpec, a *spec.ParsedAction) string {
	model := p.PrimaryModel().Name
	if a.Output.Kind == spec.OutputModel {
		model = a.Output.ModelName
	}
	client := "prisma." + naming.Uncapitalize(model)

	filter := "{}"
	where := ""
	if hasInput(a) {
		filter = "{ where: input }"
		w := whereField(a)
		where = fmt.Sprintf("where: { %s: input.%s }", w, w)
	}
	single := "{ " + where + " }"

	kind := actions.Classify(*a)
	if a.Output.Kind == spec.OutputPrimitive && a.Output.Type == spec.TypeBoolean && kind != spec.KindDelete {
		return fmt.Sprintf("(await %s.count(%s)) > 0", client, filter)
	}

	switch kind {
	case spec.KindCreate:
		if !hasInput(a) {
			return client + ".create({ data: {} })"
		}
		return client + ".create({ data: input })"
	case spec.KindUpdate:
		if !hasInput(a) {
			return client + ".findMany({})"
		}
		return fmt.Sprintf("%s.update({ %s, data: input })", client, where)
	case spec.KindDelete:
		if !hasInput(a) {
			return "false"
		}
		return fmt.Sprintf("%s.delete(%s).then(() => true).catch(() => false)", client, single)
	case spec.KindGet:
		if !hasInput(a) {
			return client + ".findFirstOrThrow({})"
		}
		return fmt.Sprintf("%s.findFirstOrThrow(%s)", client, single)
	case spec.KindCount:
		return fmt.Sprintf("%s.count(%s)", client, filter)
	case spec.KindList:
		return fmt.Sprintf("%s.findMany(%s)", client, filter)
	default:
		if a.Output.Kind == spec.OutputModel && !a.Output.IsArray {
			return fmt.Sprintf("%s.findFirst(%s)", client, filter)
		}
		return fmt.Sprintf("%s.findMany(%s)", client, filter)
	}
}

func buildService(p *spec.ParsedModuleSpec) []method {
	methods := make([]method, 0, len(p.Actions))
	for i := range p.Actions {
		a := &p.Actions[i]
		methods = append(methods, method{
			Name:   a.Name,
			Params: inputSignature(a.Input),
			Return: serviceReturn(p, a),
		})
	}
	return methods
}

// test

func mockValue(f spec.ParsedField) string {
	var v string
	switch f.Type {
	case spec.TypeString:
		v = jsString(f.Name + "-test-value")
	case spec.TypeRelation:
		v = jsString(f.Name + "-test-id")
	case spec.TypeNumber:
		v = "42"
	case spec.TypeBoolean:
		v = "true"
	case spec.TypeDate:
		v = "new Date().toISOString()"
	default:
		v = "{}"
	}
	if f.IsArray {
		return "[" + v + "]"
	}
	return v
}

// mockArgs is the argument list of a call to a. With requiredOnly, optional
// inputs are left out.
func mockArgs(a *spec.ParsedAction, requiredOnly bool) string {
	if !hasInput(a) {
		return ""
	}
	var props []string
	for _, f := range a.Input {
		if requiredOnly && !f.Required {
			continue
		}
		props = append(props, inputKey(f)+": "+mockValue(f))
	}
	if len(props) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(props, ", ") + " }"
}

type call struct {
	Name string
	Args string
}

// ui

type formField struct {
	Name      string
	Setter    string
	Label     string
	StateType string
	Zero      string
	Control   string // input, textarea or checkbox
	State     string
	InputType string
	OnChange  string
	Required  bool
}

func buildFormField(f spec.ParsedField) formField {
	name := inputKey(f)
	ff := formField{
		Name:      name,
		Setter:    "set" + naming.Capitalize(name),
		Label:     naming.Label(name),
		StateType: "string",
		Zero:      `""`,
		Control:   "input",
		InputType: "text",
		OnChange:  "e.target.value",
		Required:  f.Required,
	}
	if !f.IsArray {
		ff.adapt(f.Type, name)
	}
	ff.State = fmt.Sprintf("const [%s, %s] = useState<%s>(%s);", ff.Name, ff.Setter, ff.StateType, ff.Zero)
	return ff
}

// adapt picks the control, state type and change handler for a scalar input.
func (ff *formField) adapt(t spec.DataType, name string) {
	switch t {
	case spec.TypeNumber:
		ff.StateType, ff.Zero, ff.InputType, ff.OnChange = "number", "0", "number", "Number(e.target.value)"
	case spec.TypeBoolean:
		ff.StateType, ff.Zero, ff.Control, ff.OnChange, ff.Required = "boolean", "false", "checkbox", "e.target.checked", false
	case spec.TypeDate:
		ff.InputType = "date"
	case spec.TypeString:
		lower := strings.ToLower(name)
		for _, long := range []string{"content", "description", "bio", "body", "notes"} {
			if strings.Contains(lower, long) {
				ff.Control = "textarea"
				break
			}
		}
	}
}

// payloadEntry converts form state back into the input shape: array inputs
// are edited as comma-separated text.
func payloadEntry(f spec.ParsedField) string {
	name := inputKey(f)
	if !f.IsArray {
		return name
	}
	split := name + `.split(",").map((v) => v.trim()).filter(Boolean)`
	switch f.Type {
	case spec.TypeNumber:
		split += ".map(Number)"
	case spec.TypeBoolean:
		split += `.map((v) => v === "true")`
	}
	return name + ": " + split
}

func buildForm(a *spec.ParsedAction) ([]formField, string) {
	fields := make([]formField, 0, len(a.Input))
	entries := make([]string, 0, len(a.Input))
	for _, f := range a.Input {
		fields = append(fields, buildFormField(f))
		entries = append(entries, payloadEntry(f))
	}
	if len(entries) == 0 {
		return fields, "{}"
	}
	return fields, "{ " + strings.Join(entries, ", ") + " }"
}

// listColumns picks up to three scalar fields of m to show per row.
func listColumns(m *spec.ParsedModel) []string {
	var cols []string
	for _, f := range m.ScalarFields() {
		if len(cols) == 3 {
			break
		}
		cols = append(cols, f.Name)
	}
	if len(cols) == 0 {
		cols = []string{"id"}
	}
	return cols
}

// database schema

func prismaScalar(t spec.DataType) string {
	switch t {
	case spec.TypeNumber:
		return "Int"
	case spec.TypeBoolean:
		return "Boolean"
	case spec.TypeDate:
		return "DateTime"
	default:
		return "String"
	}
}

func prismaDefault(f spec.ParsedField) string {
	switch v := f.Default.(type) {
	case nil:
		return ""
	case string:
		if f.Type == spec.TypeDate && strings.EqualFold(v, "now") {
			return " @default(now())"
		}
		return " @default(" + jsString(v) + ")"
	case bool:
		return fmt.Sprintf(" @default(%t)", v)
	case int64, int, float64:
		return fmt.Sprintf(" @default(%v)", v)
	}
	return ""
}

func schemaLines(m *spec.ParsedModel) []string {
	lines := []string{"id String @id @default(cuid())"}
	var foreignKeys []string
	for _, f := range m.Fields {
		opt := ""
		if !f.Required {
			opt = "?"
		}
		if !f.IsRelation() {
			if f.IsArray {
				lines = append(lines, fmt.Sprintf("%s %s[]", f.Name, prismaScalar(f.Type)))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %s%s%s", f.Name, prismaScalar(f.Type), opt, prismaDefault(f)))
			continue
		}
		switch f.RelationType {
		case spec.BelongsTo:
			lines = append(lines, fmt.Sprintf("%s %s%s @relation(fields: [%s], references: [id])", f.Name, f.Target, opt, f.ForeignKey()))
			if _, exists := m.Field(f.ForeignKey()); !exists {
				foreignKeys = append(foreignKeys, fmt.Sprintf("%s String%s", f.ForeignKey(), opt))
			}
		case spec.HasOne:
			lines = append(lines, fmt.Sprintf("%s %s?", f.Name, f.Target))
		default:
			lines = append(lines, fmt.Sprintf("%s %s[]", f.Name, f.Target))
		}
	}
	lines = append(lines, foreignKeys...)
	return append(lines, "createdAt DateTime @default(now())", "updatedAt DateTime @updatedAt")
}
