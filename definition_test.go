package assembly

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func staticFactory(result any) Factory {
	return FactoryFunc(func(context.Context, any, *Resolver) (any, error) {
		return result, nil
	})
}

func staticProvider(result any) Provider {
	return ProviderFunc(func(context.Context, []Ref, *Resolver) (any, error) {
		return result, nil
	})
}

func TestNewDefinitionRejectsUnknownLevel(t *testing.T) {
	if _, err := NewDefinition(LevelUnknown); !errors.Is(err, ErrUnknownScopeLevel) {
		t.Fatalf("expected ErrUnknownScopeLevel, got %v", err)
	}
}

func TestNewDefinitionLastWinsKeepsFirstPosition(t *testing.T) {
	def, err := NewDefinition(LevelGlobal,
		WithTypes(
			TypeDecl{Name: "Number", Factory: staticFactory("first")},
			TypeDecl{Name: "Text", Factory: staticFactory("text")},
			TypeDecl{Name: "Number", Factory: staticFactory("second")},
		),
		WithObjects(
			ObjectEntry{Name: "greeting", Value: "hello"},
			ObjectEntry{Name: "greeting", Value: "hi"},
		),
	)
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}

	if got := def.TypeNames(); !reflect.DeepEqual(got, []string{"Number", "Text"}) {
		t.Fatalf("type order = %v, want [Number Text]", got)
	}

	decl, ok := def.TypeDef("Number", 0)
	if !ok {
		t.Fatalf("expected Number factory")
	}
	built, err := decl.Factory.Build(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("factory build: %v", err)
	}
	if built != "second" {
		t.Fatalf("last declaration should win, got %v", built)
	}

	object, ok := def.Object("greeting")
	if !ok {
		t.Fatalf("expected greeting object")
	}
	if object.Raw != "hi" {
		t.Fatalf("last object declaration should win, got %v", object.Raw)
	}
	if got := len(def.Objects()); got != 1 {
		t.Fatalf("expected one declared object, got %d", got)
	}
}

func TestNewDefinitionSkipsEmptyNames(t *testing.T) {
	def, err := NewDefinition(LevelGlobal,
		WithTypes(TypeDecl{Name: "", Factory: staticFactory(nil)}),
		WithProviders(ProviderDecl{Name: "", Provider: staticProvider(nil)}),
		WithObjects(ObjectEntry{Name: "", Value: 1}),
	)
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	if len(def.TypeNames()) != 0 || len(def.ProviderNames()) != 0 || len(def.Objects()) != 0 {
		t.Fatalf("empty names should be dropped, got %v %v %v",
			def.TypeNames(), def.ProviderNames(), def.Objects())
	}
}

func TestDefinitionBudgetedLookups(t *testing.T) {
	global, err := NewDefinition(LevelGlobal,
		WithTypes(TypeDecl{Name: "Number", Factory: staticFactory(1)}),
		WithProviders(ProviderDecl{Name: "env", Provider: staticProvider("x")}),
		WithObjects(ObjectEntry{Name: "port", Value: 8080}),
	)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	app, err := NewDefinition(LevelApplication, WithParentDefinition(global))
	if err != nil {
		t.Fatalf("app: %v", err)
	}

	if _, ok := app.TypeDef("Number", 0); ok {
		t.Fatalf("budget 0 must stay local")
	}
	if _, ok := app.TypeDef("Number", 1); !ok {
		t.Fatalf("budget 1 should reach the parent")
	}
	if _, ok := app.ProviderDef("env", 0); ok {
		t.Fatalf("budget 0 must stay local for providers")
	}
	if _, ok := app.ProviderDef("env", 1); !ok {
		t.Fatalf("budget 1 should reach the parent provider")
	}
	if _, ok := app.ObjectDef("port", 0); ok {
		t.Fatalf("budget 0 must stay local for objects")
	}
	decl, ok := app.ObjectDef("port", 1)
	if !ok {
		t.Fatalf("budget 1 should reach the parent object")
	}
	if decl.Name != "port" {
		t.Fatalf("resolved object = %q, want port", decl.Name)
	}

	if app.SupportsType("Number") {
		t.Fatalf("SupportsType must not consult ancestors")
	}
	if !global.SupportsType("Number") {
		t.Fatalf("owner scope should support its own type")
	}
	if app.SupportsProtocol("env") {
		t.Fatalf("SupportsProtocol must not consult ancestors")
	}
}

func TestWithHopBudgetLimitsValidation(t *testing.T) {
	grand, err := NewDefinition(LevelGlobal,
		WithTypes(TypeDecl{Name: "Secret", Factory: staticFactory("s")}),
	)
	if err != nil {
		t.Fatalf("grand: %v", err)
	}
	parent, err := NewDefinition(LevelApplication, WithParentDefinition(grand))
	if err != nil {
		t.Fatalf("parent: %v", err)
	}

	declaration := WithObjects(ObjectEntry{
		Name:  "vault",
		Value: map[string]any{TagField: "Secret"},
	})

	if _, err := NewDefinition(LevelApplication, WithParentDefinition(parent), declaration); err != nil {
		t.Fatalf("default budget should reach the grandparent type: %v", err)
	}

	_, err = NewDefinition(LevelApplication, WithParentDefinition(parent), declaration, WithHopBudget(1))
	var unknownType *UnknownTypeError
	if !errors.As(err, &unknownType) {
		t.Fatalf("expected UnknownTypeError with hop budget 1, got %v", err)
	}
	if unknownType.Type != "Secret" || unknownType.Object != "vault" {
		t.Fatalf("error should name the offender, got %+v", unknownType)
	}
}

func TestWithDependencyAnalysisOverride(t *testing.T) {
	dangling := WithObjects(ObjectEntry{
		Name:  "broken",
		Value: map[string]any{TagField: "Missing"},
	})

	if _, err := NewDefinition(LevelRequest, dangling); err != nil {
		t.Fatalf("request level skips analysis by default: %v", err)
	}

	if _, err := NewDefinition(LevelRequest, dangling, WithDependencyAnalysis(true)); err == nil {
		t.Fatalf("forced analysis should reject the dangling type")
	}

	if _, err := NewDefinition(LevelGlobal, dangling, WithDependencyAnalysis(false)); err != nil {
		t.Fatalf("disabled analysis should skip validation: %v", err)
	}
}
