package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_endpoints.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			options := buildOptions(tc)
			decoder := NewDecoder[serviceBinding](options...)

			ctx := Context{
				Object: tc.Object,
				Scope:  tc.Scope,
			}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded binding mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[serviceBinding] {
	options := []DecoderOption[serviceBinding]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[serviceBinding]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[serviceBinding]())
		case "drop_tag":
			options = append(options, WithDropKeys[serviceBinding]("_type"))
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "dsn_split":
			options = append(options, WithPreHook[serviceBinding](dsnPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "ensure_label":
			options = append(options, WithPostHook[serviceBinding](ensureLabelPostHook))
		}
	}

	if tc.CustomDecoder != "" {
		switch tc.CustomDecoder {
		case "binding_string":
			options = append(options, WithCustomDecoder[serviceBinding](bindingStringDecoder))
		}
	}

	return options
}

func dsnPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["dsn"].(string)
	if !ok || value == "" {
		return payload, nil
	}

	host, port, found := strings.Cut(value, ":")
	if !found {
		return nil, fmt.Errorf("invalid dsn payload %q", value)
	}
	number, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn port %q", port)
	}

	delete(payload, "dsn")
	payload["host"] = host
	payload["port"] = number
	return payload, nil
}

func ensureLabelPostHook(ctx Context, binding *serviceBinding) error {
	if binding == nil {
		return errors.New("binding is nil")
	}
	if len(binding.Labels) > 0 {
		return nil
	}
	binding.Labels = []string{fmt.Sprintf("%s:%s", ctx.Scope, ctx.Object)}
	return nil
}

func bindingStringDecoder(ctx Context, payload map[string]any) (serviceBinding, error) {
	var zero serviceBinding
	raw, ok := payload["binding"].(string)
	if !ok || raw == "" {
		return zero, fmt.Errorf("missing binding string for object %q", ctx.Object)
	}
	var out serviceBinding
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, err
	}
	return out, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string         `json:"name"`
	Object        string         `json:"object"`
	Scope         string         `json:"scope"`
	Input         map[string]any `json:"input"`
	Expect        serviceBinding `json:"expect"`
	ExpectErr     string         `json:"expectErr"`
	PreHooks      []string       `json:"preHooks"`
	PostHooks     []string       `json:"postHooks"`
	Options       []string       `json:"options"`
	CustomDecoder string         `json:"customDecoder"`
}

type serviceBinding struct {
	Host   string       `json:"host"`
	Port   int          `json:"port"`
	TLS    tlsSettings  `json:"tls"`
	Pool   poolSettings `json:"pool"`
	Labels []string     `json:"labels"`
}

type tlsSettings struct {
	Enabled bool   `json:"enabled"`
	CAFile  string `json:"caFile"`
}

type poolSettings struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
