//go:build !js_eval

package assembly

import "context"

// NewJSProvider requires the js_eval build tag. Without it the returned
// provider fails every Provide call with ErrJSEvalDisabled.
func NewJSProvider(opts ...JSProviderOption) Provider {
	_ = applyJSProviderOptions(opts)
	return ProviderFunc(func(context.Context, []Ref, *Resolver) (any, error) {
		return nil, ErrJSEvalDisabled
	})
}

func jsProviderAvailable() bool {
	return false
}
