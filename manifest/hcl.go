package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

type hclDocument struct {
	Version *int        `hcl:"version"`
	Scopes  []*hclScope `hcl:"scope,block"`
}

type hclScope struct {
	Label   string       `hcl:"label,label"`
	Level   string       `hcl:"level"`
	BaseDir *string      `hcl:"basedir"`
	Objects []*hclObject `hcl:"object,block"`
}

type hclObject struct {
	Name  string    `hcl:"name,label"`
	Value cty.Value `hcl:"value"`
}

// ParseHCL decodes and validates a manifest from HCL source. filename
// seeds diagnostics only.
func ParseHCL(filename string, src []byte) (Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Document{}, fmt.Errorf("manifest: parse %s: %w", filename, diags)
	}
	return decodeHCLBody(filename, file.Body)
}

// LoadHCLFile reads an HCL manifest from disk.
func LoadHCLFile(path string) (Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Document{}, fmt.Errorf("manifest: parse %s: %w", path, diags)
	}
	doc, err := decodeHCLBody(path, file.Body)
	if err != nil {
		return Document{}, err
	}
	doc.Path = filepath.Clean(path)
	return doc, nil
}

func decodeHCLBody(filename string, body hcl.Body) (Document, error) {
	var root hclDocument
	diags := gohcl.DecodeBody(body, nil, &root)
	if diags.HasErrors() {
		return Document{}, fmt.Errorf("manifest: decode %s: %w", filename, diags)
	}

	doc := Document{}
	if root.Version != nil {
		doc.Version = *root.Version
	}
	for _, scope := range root.Scopes {
		if scope == nil {
			continue
		}
		converted := Scope{
			Label: scope.Label,
			Level: scope.Level,
		}
		if scope.BaseDir != nil {
			converted.BaseDir = *scope.BaseDir
		}
		for _, object := range scope.Objects {
			if object == nil {
				continue
			}
			value, err := ctyToNative(object.Value)
			if err != nil {
				return Document{}, fmt.Errorf("manifest: %s: object %q: %w", filename, object.Name, err)
			}
			converted.Objects = append(converted.Objects, ObjectDecl{Name: object.Name, Value: value})
		}
		doc.Scopes = append(doc.Scopes, converted)
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc.Normalized(), nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Numbers come back as float64 like the other generic
// decoders in this module.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("could not convert bool: %w", err)
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
