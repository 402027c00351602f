package assembly

// ScopeLevel identifies where a definition sits in the override chain.
// Leafward levels override rootward levels during resolution.
type ScopeLevel int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown ScopeLevel = iota
	// LevelGlobal represents the root scope shared by every application.
	LevelGlobal
	// LevelApplication represents one long-lived application scope.
	LevelApplication
	// LevelRequest represents a short-lived per-request leaf scope.
	LevelRequest
)

func (l ScopeLevel) String() string {
	switch l {
	case LevelGlobal:
		return "global"
	case LevelApplication:
		return "application"
	case LevelRequest:
		return "request"
	default:
		return "unknown"
	}
}

// ParseScopeLevel converts a string representation into the corresponding
// ScopeLevel. Returns LevelUnknown for unrecognised values.
func ParseScopeLevel(value string) ScopeLevel {
	switch value {
	case "global", "GLOBAL":
		return LevelGlobal
	case "application", "APPLICATION", "app", "APP":
		return LevelApplication
	case "request", "REQUEST":
		return LevelRequest
	default:
		return LevelUnknown
	}
}

// AnalysisEnabled reports whether definitions at this level run dependency
// analysis by default. Request scopes skip it: they are created per request
// and are assumed too short-lived to validate.
func (l ScopeLevel) AnalysisEnabled() bool {
	return l == LevelGlobal || l == LevelApplication
}
