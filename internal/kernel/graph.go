// Package kernel builds the relation graph of a batch of modules and answers
// ordering questions about it. A graph is built once per run from parsed
// specs and never mutated afterwards.
package kernel

import (
	"strings"

	"orivus/internal/naming"
	"orivus/internal/spec"
)

// RelationEdge is one relation field, pointing from the module owning the
// field to the module owning its target.
type RelationEdge struct {
	From         string            `json:"from"`
	To           string            `json:"to"`
	Model        string            `json:"model"`
	FieldName    string            `json:"fieldName"`
	Target       string            `json:"target"`
	RelationType spec.RelationType `json:"relationType"`
	Required     bool              `json:"required"`
	ForeignKey   string            `json:"foreignKey"`
}

// ModuleNode is one module of the batch with its incoming and outgoing edges.
type ModuleNode struct {
	Name         string         `json:"name"`
	PrimaryModel string         `json:"primaryModel"`
	Models       []string       `json:"models"`
	DependsOn    []RelationEdge `json:"dependsOn"`
	DependedBy   []RelationEdge `json:"dependedBy"`
}

// Graph is the module dependency graph of one batch. Module names are keys
// in lower case and every lookup is case-insensitive.
type Graph struct {
	order        []string
	modules      map[string]*ModuleNode
	edges        []RelationEdge
	dependencies map[string][]string
	dependents   map[string][]string
}

func key(name string) string {
	return strings.ToLower(name)
}

// Build derives the graph of specs. Edge order follows the order of specs,
// models and fields. A relation target resolves to the module declaring a
// model of that name, or else to the lower-cased target itself, which may
// name a module outside the batch.
func Build(specs []*spec.ParsedModuleSpec) *Graph {
	g := &Graph{
		modules:      make(map[string]*ModuleNode),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
	}

	owner := make(map[string]string)
	for _, s := range specs {
		if s == nil {
			continue
		}
		k := key(s.ModuleName)
		node, ok := g.modules[k]
		if !ok {
			primary := naming.Capitalize(s.ModuleName)
			if m := s.PrimaryModel(); m != nil {
				primary = m.Name
			}
			node = &ModuleNode{Name: k, PrimaryModel: primary, Models: []string{}, DependsOn: []RelationEdge{}, DependedBy: []RelationEdge{}}
			g.modules[k] = node
			g.order = append(g.order, k)
			g.dependencies[k] = []string{}
			g.dependents[k] = []string{}
		}
		for _, m := range s.Models {
			node.Models = append(node.Models, m.Name)
			if _, taken := owner[key(m.Name)]; !taken {
				owner[key(m.Name)] = k
			}
		}
	}

	for _, s := range specs {
		if s == nil {
			continue
		}
		from := key(s.ModuleName)
		for _, m := range s.Models {
			for _, f := range m.Fields {
				if !f.IsRelation() || f.Target == "" {
					continue
				}
				to, ok := owner[key(f.Target)]
				if !ok {
					to = key(f.Target)
				}
				rel := f.RelationType
				if rel == "" {
					rel = spec.BelongsTo
				}
				g.addEdge(RelationEdge{
					From:         from,
					To:           to,
					Model:        m.Name,
					FieldName:    f.Name,
					Target:       f.Target,
					RelationType: rel,
					Required:     f.Required,
					ForeignKey:   f.ForeignKey(),
				})
			}
		}
	}
	return g
}

// addEdge records e. Relations between models of the same module are kept as
// edges but do not make a module depend on itself.
func (g *Graph) addEdge(e RelationEdge) {
	g.edges = append(g.edges, e)
	g.modules[e.From].DependsOn = append(g.modules[e.From].DependsOn, e)
	if target, ok := g.modules[e.To]; ok {
		target.DependedBy = append(target.DependedBy, e)
	}
	if e.From == e.To {
		return
	}
	g.dependencies[e.From] = appendUnique(g.dependencies[e.From], e.To)
	g.dependents[e.To] = appendUnique(g.dependents[e.To], e.From)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// Modules returns the nodes in batch order.
func (g *Graph) Modules() []*ModuleNode {
	out := make([]*ModuleNode, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.modules[k])
	}
	return out
}

// Module returns the node called name.
func (g *Graph) Module(name string) (*ModuleNode, bool) {
	n, ok := g.modules[key(name)]
	return n, ok
}

// Edges returns every edge in build order.
func (g *Graph) Edges() []RelationEdge {
	return append([]RelationEdge(nil), g.edges...)
}

// GetDependencies lists the modules name points at directly. Unknown names
// yield an empty list.
func (g *Graph) GetDependencies(name string) []string {
	return append([]string{}, g.dependencies[key(name)]...)
}

// GetDependents lists the modules pointing at name directly. Targets outside
// the batch are known here even though they have no node.
func (g *Graph) GetDependents(name string) []string {
	return append([]string{}, g.dependents[key(name)]...)
}

// GetRelationFields returns the outgoing edges of name verbatim.
func (g *Graph) GetRelationFields(name string) []RelationEdge {
	n, ok := g.modules[key(name)]
	if !ok {
		return []RelationEdge{}
	}
	return append([]RelationEdge{}, n.DependsOn...)
}

// HasDependency reports whether from reaches to through one or more edges.
func (g *Graph) HasDependency(from, to string) bool {
	return g.reaches(key(from), key(to), make(map[string]bool))
}

func (g *Graph) reaches(from, to string, visited map[string]bool) bool {
	if visited[from] {
		return false
	}
	visited[from] = true
	for _, dep := range g.dependencies[from] {
		if dep == to || g.reaches(dep, to, visited) {
			return true
		}
	}
	return false
}
