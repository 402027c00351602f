package manifest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-assembly"
)

const yamlManifest = `
version: 1
scopes:
  - label: edge
    level: global
    basedir: /etc/app
    objects:
      - name: port
        value:
          _type: Number
          value: 8080
      - name: motd
        value: "file:motd.txt"
  - level: application
    objects:
      - name: region
        value: us-east
`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Version != 1 {
		t.Fatalf("version = %d, want 1", doc.Version)
	}
	if len(doc.Scopes) != 2 {
		t.Fatalf("scopes = %d, want 2", len(doc.Scopes))
	}

	edge, ok := doc.Scope("edge")
	if !ok {
		t.Fatalf("expected the edge scope")
	}
	if edge.ScopeLevel() != assembly.LevelGlobal || edge.BaseDir != "/etc/app" {
		t.Fatalf("edge = %+v", edge)
	}
	if len(edge.Objects) != 2 || edge.Objects[0].Name != "port" || edge.Objects[1].Name != "motd" {
		t.Fatalf("objects = %+v", edge.Objects)
	}
	want := map[string]any{"_type": "Number", "value": 8080}
	if !reflect.DeepEqual(edge.Objects[0].Value, want) {
		t.Fatalf("port value = %#v, want %#v", edge.Objects[0].Value, want)
	}

	app, ok := doc.Scope("application")
	if !ok {
		t.Fatalf("empty labels default to the level name")
	}
	if app.ScopeLevel() != assembly.LevelApplication {
		t.Fatalf("app level = %v", app.ScopeLevel())
	}
}

func TestParseYAMLErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "empty payload", payload: "   \n", want: "payload is empty"},
		{
			name:    "unsupported version",
			payload: "version: 2\nscopes: []\n",
			want:    "unsupported version 2",
		},
		{
			name:    "unknown level",
			payload: "scopes:\n  - level: session\n",
			want:    `unknown level "session"`,
		},
		{
			name:    "missing object name",
			payload: "scopes:\n  - level: global\n    objects:\n      - value: 1\n",
			want:    "name is required",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.payload))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

const hclManifest = `
version = 1

scope "edge" {
  level   = "global"
  basedir = "/etc/app"

  object "port" {
    value = {
      "_type" = "Number"
      "value" = 8080
    }
  }

  object "mirrors" {
    value = ["env:PRIMARY", "env:SECONDARY"]
  }
}

scope "app" {
  level = "application"

  object "region" {
    value = "us-east"
  }
}
`

func TestParseHCL(t *testing.T) {
	doc, err := ParseHCL("inline.hcl", []byte(hclManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Version != 1 || len(doc.Scopes) != 2 {
		t.Fatalf("doc = %+v", doc)
	}

	edge, ok := doc.Scope("edge")
	if !ok {
		t.Fatalf("expected the edge scope")
	}
	if edge.BaseDir != "/etc/app" || edge.ScopeLevel() != assembly.LevelGlobal {
		t.Fatalf("edge = %+v", edge)
	}

	want := map[string]any{"_type": "Number", "value": float64(8080)}
	if !reflect.DeepEqual(edge.Objects[0].Value, want) {
		t.Fatalf("port value = %#v, want %#v", edge.Objects[0].Value, want)
	}
	mirrors := []any{"env:PRIMARY", "env:SECONDARY"}
	if !reflect.DeepEqual(edge.Objects[1].Value, mirrors) {
		t.Fatalf("mirrors value = %#v, want %#v", edge.Objects[1].Value, mirrors)
	}
}

func TestParseHCLErrors(t *testing.T) {
	if _, err := ParseHCL("broken.hcl", []byte("scope {")); err == nil {
		t.Fatalf("malformed source is an error")
	}

	bad := `
scope "x" {
  level = "session"
}
`
	if _, err := ParseHCL("bad.hcl", []byte(bad)); err == nil || !strings.Contains(err.Error(), `unknown level "session"`) {
		t.Fatalf("expected level validation, got %v", err)
	}
}

func TestFrontEndsAgree(t *testing.T) {
	fromYAML, err := ParseYAML([]byte(`
scopes:
  - label: edge
    level: global
    objects:
      - name: port
        value:
          _type: Number
          value: 8080
      - name: motd
        value: ready
`))
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	fromHCL, err := ParseHCL("edge.hcl", []byte(`
scope "edge" {
  level = "global"

  object "port" {
    value = {
      "_type" = "Number"
      "value" = 8080
    }
  }

  object "motd" {
    value = "ready"
  }
}
`))
	if err != nil {
		t.Fatalf("hcl: %v", err)
	}

	left, _ := fromYAML.Scope("edge")
	right, _ := fromHCL.Scope("edge")
	if left.ScopeLevel() != right.ScopeLevel() || left.Label != right.Label {
		t.Fatalf("scope metadata diverges: %+v vs %+v", left, right)
	}
	if len(left.Objects) != len(right.Objects) {
		t.Fatalf("declaration counts diverge: %d vs %d", len(left.Objects), len(right.Objects))
	}
	for i := range left.Objects {
		if left.Objects[i].Name != right.Objects[i].Name {
			t.Fatalf("declaration order diverges at %d: %s vs %s", i, left.Objects[i].Name, right.Objects[i].Name)
		}
		if !equivalentValues(left.Objects[i].Value, right.Objects[i].Value) {
			t.Fatalf("object %s diverges: %#v vs %#v", left.Objects[i].Name, left.Objects[i].Value, right.Objects[i].Value)
		}
	}
}

// equivalentValues compares declaration trees, treating numbers
// numerically since YAML yields ints where HCL yields float64.
func equivalentValues(a, b any) bool {
	if na, ok := asFloat(a); ok {
		nb, ok := asFloat(b)
		return ok && na == nb
	}
	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for key, item := range va {
			other, ok := vb[key]
			if !ok || !equivalentValues(item, other) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !equivalentValues(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest := func(name, payload string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeManifest("b_app.yaml", "scopes:\n  - level: application\n")
	writeManifest("a_edge.hcl", "scope \"edge\" {\n  level = \"global\"\n}\n")
	writeManifest("notes.txt", "not a manifest")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if filepath.Base(docs[0].Path) != "a_edge.hcl" || filepath.Base(docs[1].Path) != "b_app.yaml" {
		t.Fatalf("documents sort by path, got %s %s", docs[0].Path, docs[1].Path)
	}

	docs, err = LoadDir(filepath.Join(dir, "does-not-exist"))
	if err != nil || docs != nil {
		t.Fatalf("missing directories mean no manifests, got %v %v", docs, err)
	}

	if _, err := LoadFile(dir); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("directories are rejected, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("missing files are errors")
	}
}

func TestScopeDefinitionBridge(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	edge, ok := doc.Scope("edge")
	if !ok {
		t.Fatalf("expected the edge scope")
	}

	numberFactory := assembly.FactoryFunc(func(_ context.Context, raw any, _ *assembly.Resolver) (any, error) {
		payload, _ := raw.(map[string]any)
		return payload["value"], nil
	})
	def, err := edge.Definition(
		assembly.WithTypes(assembly.TypeDecl{Name: "Number", Factory: numberFactory}),
		assembly.WithProviders(assembly.ProviderDecl{Name: "file", Provider: assembly.NewFileProvider()}),
	)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}

	rc, err := assembly.NewResolver(edge.Label, def)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	m, ok, err := rc.Get(context.Background(), "port")
	if err != nil || !ok {
		t.Fatalf("expected port, got ok=%v err=%v", ok, err)
	}
	if m.Value != 8080 {
		t.Fatalf("value = %v, want 8080", m.Value)
	}
}
