package assembly

import (
	"context"
	"fmt"

	"github.com/goliatone/go-assembly/internal/hydrate"
)

// StructBuildFunc receives the decoded payload and produces the final
// object value. A nil build func makes the decoded value the object.
type StructBuildFunc[T any] func(ctx context.Context, decoded T, rc *Resolver) (any, error)

// StructFactoryOption configures a StructFactory.
type StructFactoryOption[T any] func(*structFactory[T])

// StructWithStrictFields rejects payload keys that T does not declare.
func StructWithStrictFields[T any]() StructFactoryOption[T] {
	return func(f *structFactory[T]) {
		f.decoderOpts = append(f.decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
}

// StructWithNumbers keeps numeric payload values as json.Number instead
// of float64.
func StructWithNumbers[T any]() StructFactoryOption[T] {
	return func(f *structFactory[T]) {
		f.decoderOpts = append(f.decoderOpts, hydrate.WithUseNumber[T]())
	}
}

// StructWithPreDecode mutates or normalises the payload before decoding.
func StructWithPreDecode[T any](fn func(object string, payload map[string]any) (map[string]any, error)) StructFactoryOption[T] {
	return func(f *structFactory[T]) {
		if fn == nil {
			return
		}
		f.decoderOpts = append(f.decoderOpts, hydrate.WithPreHook[T](func(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
			return fn(ctx.Object, payload)
		}))
	}
}

// StructWithPostDecode validates or adjusts the decoded value.
func StructWithPostDecode[T any](fn func(object string, value *T) error) StructFactoryOption[T] {
	return func(f *structFactory[T]) {
		if fn == nil {
			return
		}
		f.decoderOpts = append(f.decoderOpts, hydrate.WithPostHook[T](func(ctx hydrate.Context, value *T) error {
			return fn(ctx.Object, value)
		}))
	}
}

// structFactory decodes tagged map payloads into T and hands the result
// to the build func.
type structFactory[T any] struct {
	build       StructBuildFunc[T]
	decoderOpts []hydrate.DecoderOption[T]
	decoder     *hydrate.Decoder[T]
}

// NewStructFactory builds a Factory that decodes tagged payloads into T.
// The constructor tag key is dropped from the payload before decoding.
func NewStructFactory[T any](build StructBuildFunc[T], opts ...StructFactoryOption[T]) Factory {
	f := &structFactory[T]{build: build}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	decoderOpts := append([]hydrate.DecoderOption[T]{hydrate.WithDropKeys[T](TagField)}, f.decoderOpts...)
	f.decoder = hydrate.NewDecoder[T](decoderOpts...)
	return f
}

func (f *structFactory[T]) Build(ctx context.Context, raw any, rc *Resolver) (any, error) {
	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("assembly: struct factory expects a tagged map payload, got %T", raw)
	}
	hctx := hydrate.Context{
		Object: currentObjectName(ctx),
		Scope:  rc.Label(),
	}
	decoded, err := f.decoder.Decode(hctx, payload)
	if err != nil {
		return nil, err
	}
	if f.build == nil {
		return decoded, nil
	}
	return f.build(ctx, decoded, rc)
}
