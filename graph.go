package assembly

import (
	"fmt"
	"strings"
)

// GraphNode is one vertex in a definition's dependency graph. Kind is
// one of "object", "type", or "protocol".
type GraphNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// GraphEdge means "From depends on To".
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the direct-dependency graph of a definition's declared
// objects. Targets declared in ancestor definitions appear as leaf
// nodes.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Graph extracts the direct dependencies of every declared object. It
// works for any scope level, including ones whose analysis is disabled.
func (d *Definition) Graph() Graph {
	g := Graph{}
	if d == nil {
		return g
	}
	seen := map[string]bool{}
	addNode := func(kind, name string) string {
		id := kind + ":" + name
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, GraphNode{ID: id, Name: name, Kind: kind})
		}
		return id
	}
	for _, name := range d.objectOrder {
		addNode(DepKindObject, name)
	}
	for _, name := range d.objectOrder {
		decl, ok := d.objects[name]
		if !ok {
			continue
		}
		acc := newDepAccumulator()
		extractDeps(decl.Raw, acc)
		deps := acc.freeze()
		from := DepKindObject + ":" + decl.Name
		for _, target := range deps.Types {
			g.Edges = append(g.Edges, GraphEdge{From: from, To: addNode(DepKindType, target)})
		}
		for _, target := range deps.Protocols {
			g.Edges = append(g.Edges, GraphEdge{From: from, To: addNode(DepKindProtocol, target)})
		}
		for _, target := range deps.Objects {
			g.Edges = append(g.Edges, GraphEdge{From: from, To: addNode(DepKindObject, target)})
		}
	}
	return g
}

// DOT exports Graphviz DOT text.
func (g Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph assembly {\n")
	b.WriteString("  rankdir=LR;\n")

	aliases := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.ID] = alias
		label := escapeDOT(n.Name)
		if n.Kind != "" {
			label = label + "\\n(" + escapeDOT(n.Kind) + ")"
		}
		b.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", alias, label))
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s -> %s;\n", from, to))
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	aliases := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.ID] = alias
		label := escapeMermaid(n.Name)
		if n.Kind != "" {
			label = label + "<br/>(" + escapeMermaid(n.Kind) + ")"
		}
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", alias, label))
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}
	return b.String()
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
