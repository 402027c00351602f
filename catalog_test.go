package assembly

import (
	"context"
	"reflect"
	"testing"
)

func materializedFor(name string, value any) *Materialized {
	return &Materialized{
		Decl:  &ObjectDecl{Name: name, Raw: value},
		Value: value,
		Scope: "test",
	}
}

func TestNamedCatalogInsertAndGet(t *testing.T) {
	catalog := NewNamedCatalog()

	if _, ok := catalog.Get("missing"); ok {
		t.Fatalf("empty catalog should miss")
	}

	catalog.Insert(materializedFor("db", "first"))
	catalog.Insert(materializedFor("db", "second"))

	m, ok := catalog.Get("db")
	if !ok || m.Value != "second" {
		t.Fatalf("insert should replace, got %v %v", m, ok)
	}
	if catalog.Len() != 1 {
		t.Fatalf("len = %d, want 1", catalog.Len())
	}

	catalog.Insert(nil)
	catalog.Insert(&Materialized{Value: "no decl"})
	catalog.Insert(&Materialized{Decl: &ObjectDecl{}, Value: "no name"})
	if catalog.Len() != 1 {
		t.Fatalf("unnamed entries are dropped, len = %d", catalog.Len())
	}
}

func TestNamedCatalogForEachSorted(t *testing.T) {
	catalog := NewNamedCatalog()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		catalog.Insert(materializedFor(name, name))
	}

	var order []string
	catalog.ForEach(func(name string, m *Materialized) bool {
		order = append(order, name)
		return true
	})
	if !reflect.DeepEqual(order, []string{"alpha", "mid", "zeta"}) {
		t.Fatalf("order = %v, want sorted", order)
	}

	visited := 0
	catalog.ForEach(func(string, *Materialized) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("returning false stops the walk, visited %d", visited)
	}
}

func TestNamedCatalogNilReceiver(t *testing.T) {
	var catalog *NamedCatalog
	if _, ok := catalog.Get("x"); ok {
		t.Fatalf("nil catalog should miss")
	}
	catalog.Insert(materializedFor("x", 1))
	if catalog.Len() != 0 {
		t.Fatalf("nil catalog stays empty")
	}
	catalog.ForEach(func(string, *Materialized) bool {
		t.Fatalf("nil catalog has nothing to visit")
		return false
	})
}

func TestFuncAdaptersTolerateNil(t *testing.T) {
	var factory FactoryFunc
	value, err := factory.Build(context.Background(), "raw", nil)
	if value != nil || err != nil {
		t.Fatalf("nil factory func should no-op, got %v %v", value, err)
	}

	var provider ProviderFunc
	value, err = provider.Provide(context.Background(), []Ref{{Protocol: "env", Path: "X"}}, nil)
	if value != nil || err != nil {
		t.Fatalf("nil provider func should no-op, got %v %v", value, err)
	}
}
