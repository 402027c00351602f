package assembly

import (
	"reflect"
	"strings"
	"testing"
)

func graphFixtureDefinition(t *testing.T) *Definition {
	t.Helper()
	return mustDefinition(t, LevelGlobal,
		WithTypes(TypeDecl{Name: "Pool", Factory: staticFactory("pool")}),
		WithProviders(ProviderDecl{Name: "env", Provider: staticProvider("")}),
		WithObjects(
			ObjectEntry{Name: "db", Value: map[string]any{TagField: "Pool", "dsn": "env:DATABASE_URL"}},
			ObjectEntry{Name: "worker", Value: "object:db"},
		),
	)
}

func TestDefinitionGraph(t *testing.T) {
	graph := graphFixtureDefinition(t).Graph()

	ids := make([]string, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		ids = append(ids, node.ID)
	}
	want := []string{"object:db", "object:worker", "type:Pool", "protocol:env"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("nodes = %v, want %v", ids, want)
	}

	wantEdges := []GraphEdge{
		{From: "object:db", To: "type:Pool"},
		{From: "object:db", To: "protocol:env"},
		{From: "object:worker", To: "object:db"},
	}
	if !reflect.DeepEqual(graph.Edges, wantEdges) {
		t.Fatalf("edges = %v, want %v", graph.Edges, wantEdges)
	}
}

func TestGraphKindsKeepNamesApart(t *testing.T) {
	def := mustDefinition(t, LevelGlobal,
		WithTypes(TypeDecl{Name: "cache", Factory: staticFactory("c")}),
		WithObjects(ObjectEntry{
			Name:  "cache",
			Value: map[string]any{TagField: "cache"},
		}),
	)
	graph := def.Graph()

	if len(graph.Nodes) != 2 {
		t.Fatalf("same name under different kinds stays two nodes, got %v", graph.Nodes)
	}
	if !reflect.DeepEqual(graph.Edges, []GraphEdge{{From: "object:cache", To: "type:cache"}}) {
		t.Fatalf("edges = %v", graph.Edges)
	}
}

func TestGraphForRequestDefinitions(t *testing.T) {
	def := mustDefinition(t, LevelRequest,
		WithObjects(ObjectEntry{Name: "scratch", Value: "object:elsewhere"}),
	)
	graph := def.Graph()

	if len(graph.Edges) != 1 || graph.Edges[0].To != "object:elsewhere" {
		t.Fatalf("graphs work without analysis, got %v", graph.Edges)
	}

	var nilDef *Definition
	empty := nilDef.Graph()
	if len(empty.Nodes) != 0 || len(empty.Edges) != 0 {
		t.Fatalf("nil definitions have empty graphs, got %v", empty)
	}
}

func TestGraphDOT(t *testing.T) {
	out := graphFixtureDefinition(t).Graph().DOT()

	if !strings.HasPrefix(out, "digraph assembly {\n  rankdir=LR;\n") {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, want := range []string{
		`n0 [label="db\n(object)"];`,
		`n2 [label="Pool\n(type)"];`,
		`n3 [label="env\n(protocol)"];`,
		"n0 -> n2;",
		"n0 -> n3;",
		"n1 -> n0;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Fatalf("missing footer:\n%s", out)
	}
}

func TestGraphMermaid(t *testing.T) {
	out := graphFixtureDefinition(t).Graph().Mermaid()

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, want := range []string{
		`n0["db<br/>(object)"]`,
		`n1["worker<br/>(object)"]`,
		"n0 --> n2",
		"n1 --> n0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
