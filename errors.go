package assembly

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLabelRequired indicates a resolver was constructed without a scope label.
	ErrLabelRequired = errors.New("assembly: scope label is required")
	// ErrDefinitionRequired indicates a resolver was constructed without a definition.
	ErrDefinitionRequired = errors.New("assembly: scope definition is required")
	// ErrUnknownScopeLevel guards definition construction against the zero level.
	ErrUnknownScopeLevel = errors.New("assembly: unknown scope level")
	// ErrJSEvalDisabled is returned by the js provider when the binary was
	// built without the js_eval tag.
	ErrJSEvalDisabled = errors.New("assembly: js provider requires the js_eval build tag")
	// ErrChainLevelMismatch indicates a definition whose level does not
	// match its chain position.
	ErrChainLevelMismatch = errors.New("assembly: definition level does not match its chain position")
	// ErrChainParentMismatch indicates a request definition parented on
	// something other than the chain's application definition.
	ErrChainParentMismatch = errors.New("assembly: request definition is not parented on the application definition")
)

// UnknownTypeError fails definition construction when a declared object
// references a type tag that no definition in the chain registers.
type UnknownTypeError struct {
	Type   string
	Object string
}

func (e *UnknownTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: unknown type %q referenced by object %q", e.Type, e.Object)
}

// UnknownProtocolError fails definition construction when a declared object
// references a protocol that no definition in the chain registers.
type UnknownProtocolError struct {
	Protocol string
	Object   string
}

func (e *UnknownProtocolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: unknown protocol %q referenced by object %q", e.Protocol, e.Object)
}

// UnresolvedObjectsError fails definition construction when the dependency
// closure stalls. Missing lists objects referencing names declared nowhere
// in the chain; Cyclic lists objects stuck on one another.
type UnresolvedObjectsError struct {
	Missing []string
	Cyclic  []string
}

func (e *UnresolvedObjectsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("objects with undeclared references: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Cyclic) > 0 {
		parts = append(parts, fmt.Sprintf("cyclic objects: %s", strings.Join(e.Cyclic, ", ")))
	}
	if len(parts) == 0 {
		return "assembly: unresolved objects"
	}
	return "assembly: " + strings.Join(parts, "; ")
}

// Stuck returns every unresolved object name as one list.
func (e *UnresolvedObjectsError) Stuck() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Missing)+len(e.Cyclic))
	out = append(out, e.Missing...)
	out = append(out, e.Cyclic...)
	return out
}

// UnsupportedTypeError is raised by Create when no scope in the chain
// registers a factory for the tag.
type UnsupportedTypeError struct {
	Type  string
	Input any
}

func (e *UnsupportedTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: no scope in the chain supports type %q (input %v)", e.Type, e.Input)
}

// UnsupportedProtocolError is raised by Create when no scope in the chain
// registers a provider for the protocol.
type UnsupportedProtocolError struct {
	Protocol string
	Input    any
}

func (e *UnsupportedProtocolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: no scope in the chain supports protocol %q (input %v)", e.Protocol, e.Input)
}

// UnknownObjectError is raised when an object reference names a value
// absent from the whole chain at resolution time.
type UnknownObjectError struct {
	Name string
}

func (e *UnknownObjectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: named object %q not found", e.Name)
}

// ResolveCycleError is raised when Get re-enters a name already being
// resolved on the same call path, a cycle static analysis never saw.
type ResolveCycleError struct {
	Path []string
}

func (e *ResolveCycleError) Error() string {
	if e == nil || len(e.Path) == 0 {
		return "assembly: object reference cycle detected"
	}
	return "assembly: object reference cycle detected: " + strings.Join(e.Path, " -> ")
}

// ResolutionError carries resolver metadata alongside the originating error.
type ResolutionError struct {
	Op    string
	Scope string
	Name  string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("assembly: %s %s scope=%s: %v", e.Op, describeName(e.Name), e.Scope, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeName(name string) string {
	if name == "" {
		return "name=<empty>"
	}
	return fmt.Sprintf("name=%q", name)
}

func wrapResolverError(op string, err error) error {
	if err == nil {
		return nil
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "assembly:") {
		return err
	}
	return fmt.Errorf("assembly: %s: %w", op, err)
}

func wrapResolutionError(op, scope, name string, err error) error {
	if err == nil {
		return nil
	}

	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		if resErr.Op == "" {
			resErr.Op = op
		}
		if resErr.Scope == "" {
			resErr.Scope = scope
		}
		if resErr.Name == "" {
			resErr.Name = name
		}
		return resErr
	}

	return &ResolutionError{
		Op:    op,
		Scope: scope,
		Name:  name,
		Err:   err,
	}
}
