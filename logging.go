package assembly

import "time"

// ResolutionLogEvent describes one resolution step for logging.
type ResolutionLogEvent struct {
	Op       string
	Scope    string
	Name     string
	Duration time.Duration
	Err      error
}

// ResolutionLogger records resolver events.
type ResolutionLogger interface {
	LogResolution(ResolutionLogEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionLogEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionLogEvent) {}

// WithLogger attaches a resolution logger to the resolver.
func WithLogger(logger ResolutionLogger) ResolverOption {
	return func(r *Resolver) {
		if logger == nil {
			r.logger = noopResolutionLogger{}
			return
		}
		r.logger = logger
	}
}
