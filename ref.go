package assembly

import "strings"

// ObjectProtocol is the reserved protocol for references into the named
// object space. References using it are resolved by the engine through
// Get instead of a provider catalog entry.
const ObjectProtocol = "object"

// Ref is a parsed reference of the form protocol:path.
type Ref struct {
	Protocol string
	Path     string
	Raw      string
}

// String returns the original reference text.
func (r Ref) String() string { return r.Raw }

// IsObject reports whether the reference targets a named object.
func (r Ref) IsObject() bool { return r.Protocol == ObjectProtocol }

// TryParseRef parses s as a protocol:path reference. Strings that do not
// match the shape return ok=false; callers treat them as literal values,
// never as errors. The parser is pure and never panics.
//
// The protocol token must start with a letter and contain only letters,
// digits, '_', '+' or '-'. The path must be non-empty and must not start
// with a space or with "//", keeping prose fragments and URL literals
// out of the reference space.
func TryParseRef(s string) (Ref, bool) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return Ref{}, false
	}
	protocol := s[:idx]
	path := s[idx+1:]
	if !validProtocolToken(protocol) {
		return Ref{}, false
	}
	if strings.HasPrefix(path, " ") || strings.HasPrefix(path, "//") {
		return Ref{}, false
	}
	return Ref{Protocol: protocol, Path: path, Raw: s}, true
}

func validProtocolToken(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' || r == '_' || r == '-' || r == '+':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
