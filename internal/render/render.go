// Package render turns a parsed module into the source files of its feature
// slice: schemas, service, router, smoke test, UI components and page. The
// default pack executes text/template templates over views computed from the
// module; callers substitute their own by implementing Renderer.
package render

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"orivus/internal/actions"
	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/naming"
	"orivus/internal/paths"
	"orivus/internal/spec"
)

// Kind identifies a rendered artifact.
type Kind string

const (
	KindSchema  Kind = "schema"
	KindService Kind = "service"
	KindRouter  Kind = "router"
	KindTest    Kind = "test"
	KindList    Kind = "ui-list"
	KindForm    Kind = "ui-form"
	KindUIIndex Kind = "ui-index"
	KindPage    Kind = "page"
)

// Artifact is one rendered file.
type Artifact struct {
	Kind Kind
	// Path is slash-separated and relative to the project root.
	Path string
	Body string
}

// Renderer produces the artifacts of a module and its database schema blocks.
// Implementations must be safe for concurrent use.
type Renderer interface {
	RenderModule(p *spec.ParsedModuleSpec) ([]Artifact, error)
	RenderSchemaModel(m *spec.ParsedModel) (string, error)
}

var templates = template.Must(parseAll(map[string]string{
	"schema":  schemaTemplate,
	"router":  routerTemplate,
	"service": serviceTemplate,
	"test":    testTemplate,
	"form":    formTemplate,
	"list":    listTemplate,
	"index":   indexTemplate,
	"page":    pageTemplate,
	"model":   modelTemplate,
}))

func parseAll(sources map[string]string) (*template.Template, error) {
	root := template.New("render").Delims("[[", "]]")
	for name, src := range sources {
		if _, err := root.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
	}
	return root, nil
}

// Templates is the default Renderer.
type Templates struct {
	layout   config.LayoutConfig
	dbModule string
}

// New returns the default template pack for a project layout. Services import
// the database client from layout.DBModule, or the default layout's when unset.
func New(layout config.LayoutConfig) *Templates {
	db := layout.DBModule
	if db == "" {
		db = config.DefaultConfig().Layout.DBModule
	}
	return &Templates{layout: layout, dbModule: paths.NormalizePath(db)}
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", oerrors.NewOrivusError(oerrors.RenderFailed, fmt.Sprintf("template %s failed", name), err, nil)
	}
	return buf.String(), nil
}

// importFrom is the module specifier of the root-relative file target as seen
// from the root-relative directory dir.
func importFrom(dir, target string) string {
	return paths.ImportPath(filepath.FromSlash(dir), filepath.FromSlash(target))
}

func (t *Templates) moduleDir(module string) string {
	return path.Join(t.layout.DomainDir, module)
}

func (t *Templates) trpcDir() string {
	return path.Dir(paths.NormalizePath(t.layout.RouterRegistry))
}

// RenderModule renders every artifact of p. UI artifacts are skipped when the
// module opts out or lacks the create and list actions they are built on.
func (t *Templates) RenderModule(p *spec.ParsedModuleSpec) ([]Artifact, error) {
	if p == nil || p.PrimaryModel() == nil {
		return nil, oerrors.Newf(oerrors.RenderFailed, "module has no models to render")
	}
	module := p.ModuleName
	dir := t.moduleDir(module)
	file := func(suffix string) string { return path.Join(dir, module+suffix) }

	var out []Artifact
	add := func(kind Kind, p, body string) {
		out = append(out, Artifact{Kind: kind, Path: p, Body: body})
	}

	body, err := execute("schema", schemaView(p))
	if err != nil {
		return nil, err
	}
	add(KindSchema, file(".schema.ts"), body)

	body, err = execute("service", struct {
		Module   string
		DBImport string
		Methods  []method
	}{module, importFrom(dir, t.dbModule), buildService(p)})
	if err != nil {
		return nil, err
	}
	add(KindService, file(".service.ts"), body)

	trpcImport := importFrom(dir, path.Join(t.trpcDir(), "router.ts"))
	view, procs := buildRouter(p, trpcImport)
	body, err = execute("router", struct {
		View       routerView
		Procedures []procedure
	}{view, procs})
	if err != nil {
		return nil, err
	}
	add(KindRouter, file(".router.ts"), body)

	create, hasCreate := actions.FindCreate(p.Actions)
	list, hasList := actions.FindList(p.Actions)

	testData := struct {
		Module          string
		Label           string
		AppRouterImport string
		TRPCImport      string
		DBImport        string
		Create          *call
		List            *call
	}{
		Module:          module,
		Label:           naming.Label(module),
		AppRouterImport: importFrom(dir, t.layout.RouterRegistry),
		TRPCImport:      trpcImport,
		DBImport:        importFrom(dir, t.dbModule),
	}
	if hasCreate && hasList {
		testData.Create = &call{Name: create.Name, Args: mockArgs(create, false)}
		testData.List = &call{Name: list.Name, Args: mockArgs(list, true)}
	}
	body, err = execute("test", testData)
	if err != nil {
		return nil, err
	}
	add(KindTest, file(".test.ts"), body)

	if p.SkipUI || (!hasCreate && !hasList) {
		return out, nil
	}
	ui, err := t.renderUI(p, create, list)
	if err != nil {
		return nil, err
	}
	return append(out, ui...), nil
}

func (t *Templates) renderUI(p *spec.ParsedModuleSpec, create, list *spec.ParsedAction) ([]Artifact, error) {
	module := p.ModuleName
	model := p.PrimaryModel()
	uiDir := path.Join(t.moduleDir(module), "ui")
	plural := naming.Plural(model.Name)

	var out []Artifact
	var components []string

	if list != nil {
		args := ""
		if hasInput(list) {
			args = "{}"
		}
		body, err := execute("list", struct {
			Model, Module, Action, Args, Title, Lower string
			Columns                                   []string
		}{model.Name, module, list.Name, args, naming.Label(plural), strings.ToLower(naming.Label(plural)), listColumns(model)})
		if err != nil {
			return nil, err
		}
		name := model.Name + "List"
		components = append(components, name)
		out = append(out, Artifact{Kind: KindList, Path: path.Join(uiDir, name+".tsx"), Body: body})
	}

	if create != nil {
		fields, payload := buildForm(create)
		body, err := execute("form", struct {
			Model, Module, Action, Label, Payload string
			Fields                                []formField
		}{model.Name, module, create.Name, naming.Label(model.Name), payload, fields})
		if err != nil {
			return nil, err
		}
		name := "Create" + model.Name + "Form"
		components = append(components, name)
		out = append(out, Artifact{Kind: KindForm, Path: path.Join(uiDir, name+".tsx"), Body: body})
	}

	body, err := execute("index", components)
	if err != nil {
		return nil, err
	}
	out = append(out, Artifact{Kind: KindUIIndex, Path: path.Join(uiDir, "index.ts"), Body: body})

	pageDir := path.Join(t.layout.PagesDir, paths.RouteSegment(module))
	body, err = execute("page", struct {
		Model, Imports, UIImport, Title, Lower string
		Form, List                             bool
	}{
		Model:    model.Name,
		Imports:  strings.Join(components, ", "),
		UIImport: paths.ImportPath(filepath.FromSlash(pageDir), filepath.FromSlash(uiDir)),
		Title:    naming.Label(plural),
		Lower:    strings.ToLower(naming.Label(plural)),
		Form:     create != nil,
		List:     list != nil,
	})
	if err != nil {
		return nil, err
	}
	out = append(out, Artifact{Kind: KindPage, Path: path.Join(pageDir, "page.tsx"), Body: body})
	return out, nil
}

// RenderSchemaModel renders the database schema block of m.
func (t *Templates) RenderSchemaModel(m *spec.ParsedModel) (string, error) {
	if m == nil {
		return "", oerrors.Newf(oerrors.RenderFailed, "no model to render")
	}
	return execute("model", struct {
		Name  string
		Lines []string
	}{m.Name, schemaLines(m)})
}
