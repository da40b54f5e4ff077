package kernel

import (
	"fmt"
	"strings"
)

// DetectCircularDependencies walks the graph depth-first and returns one
// witness per back edge found, each starting and ending at the same module.
// The result is not every cycle of the graph; any witness means the
// generation order cannot satisfy every edge.
func (g *Graph) DetectCircularDependencies() [][]string {
	var cycles [][]string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var dfs func(node string)
	dfs = func(node string) {
		for i, s := range stack {
			if s == node {
				witness := append(append([]string{}, stack[i:]...), node)
				id := strings.Join(witness, ">")
				if !seen[id] {
					seen[id] = true
					cycles = append(cycles, witness)
				}
				return
			}
		}
		if visited[node] {
			return
		}
		visited[node] = true
		stack = append(stack, node)
		for _, dep := range g.dependencies[node] {
			dfs(dep)
		}
		stack = stack[:len(stack)-1]
	}

	for _, name := range g.order {
		dfs(name)
	}
	return cycles
}

// GetGenerationOrder returns every module of the batch exactly once,
// dependencies first. A module met again while its own dependencies are
// still being visited is skipped at that point, so on a cyclic graph the
// order is best effort. Targets outside the batch are not listed.
func (g *Graph) GetGenerationOrder() []string {
	result := make([]string, 0, len(g.order))
	done := make(map[string]bool)
	active := make(map[string]bool)

	var visit func(node string)
	visit = func(node string) {
		if done[node] || active[node] {
			return
		}
		if _, ok := g.modules[node]; !ok {
			return
		}
		active[node] = true
		for _, dep := range g.dependencies[node] {
			visit(dep)
		}
		delete(active, node)
		done[node] = true
		result = append(result, node)
	}

	for _, name := range g.order {
		visit(name)
	}
	return result
}

// Summarize renders the graph as the markdown report printed by `orivus graph`.
func Summarize(g *Graph) string {
	var b strings.Builder
	b.WriteString("# Relation Graph\n\n")
	fmt.Fprintf(&b, "## Modules (%d)\n", len(g.order))
	for _, n := range g.Modules() {
		fmt.Fprintf(&b, "- **%s** (%s)\n", n.PrimaryModel, n.Name)
		if len(n.DependsOn) > 0 {
			fmt.Fprintf(&b, "  - Depends on: %s\n", strings.Join(edgeEnds(n.DependsOn, true), ", "))
		}
		if len(n.DependedBy) > 0 {
			fmt.Fprintf(&b, "  - Depended by: %s\n", strings.Join(edgeEnds(n.DependedBy, false), ", "))
		}
	}

	fmt.Fprintf(&b, "\n## Relations (%d)\n", len(g.edges))
	for _, e := range g.edges {
		arrow := "-->"
		if !e.Required {
			arrow = "- ->"
		}
		fmt.Fprintf(&b, "- %s.%s %s %s (%s)\n", e.From, e.FieldName, arrow, e.To, e.RelationType)
	}

	fmt.Fprintf(&b, "\n## Generation Order\n%s\n", strings.Join(g.GetGenerationOrder(), " -> "))

	if cycles := g.DetectCircularDependencies(); len(cycles) > 0 {
		b.WriteString("\n## Circular Dependencies\n")
		for _, c := range cycles {
			fmt.Fprintf(&b, "- %s\n", strings.Join(c, " -> "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func edgeEnds(edges []RelationEdge, to bool) []string {
	var out []string
	for _, e := range edges {
		name := e.From
		if to {
			name = e.To
		}
		out = appendUnique(out, name)
	}
	return out
}

// Report is the JSON form of a graph.
type Report struct {
	Modules []*ModuleNode  `json:"modules"`
	Edges   []RelationEdge `json:"edges"`
	Order   []string       `json:"order"`
	Cycles  [][]string     `json:"cycles"`
}

// Report collects the nodes, edges, generation order and cycle witnesses.
func (g *Graph) Report() Report {
	cycles := g.DetectCircularDependencies()
	if cycles == nil {
		cycles = [][]string{}
	}
	return Report{
		Modules: g.Modules(),
		Edges:   append([]RelationEdge{}, g.edges...),
		Order:   g.GetGenerationOrder(),
		Cycles:  cycles,
	}
}
