package observability

import (
	"github.com/rs/zerolog"
)

// Sink receives named pipeline events so callers can trace a request's path
// (cache hit, breaker open, fallback served) without depending on a concrete
// logging or tracing backend.
type Sink interface {
	// Event records a named event correlated to a request.
	Event(requestID, name string, attrs map[string]any)

	// Error records a failure event with a coarse category (e.g. "llm",
	// "cache", "search") and the failure message.
	Error(requestID, category, message string)
}

// LogSink is a Sink that writes events to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a Sink backed by the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Event implements Sink.
func (s *LogSink) Event(requestID, name string, attrs map[string]any) {
	ev := s.logger.Info().
		Str("request_id", requestID).
		Str("event", name)
	for k, v := range attrs {
		ev = ev.Interface(k, v)
	}
	ev.Msg("pipeline event")
}

// Error implements Sink. The failure message becomes the log message itself
// so the entry carries a single message key.
func (s *LogSink) Error(requestID, category, message string) {
	s.logger.Error().
		Str("request_id", requestID).
		Str("category", category).
		Msg(message)
}

// NopSink is a Sink that discards all events.
type NopSink struct{}

// Event implements Sink.
func (NopSink) Event(string, string, map[string]any) {}

// Error implements Sink.
func (NopSink) Error(string, string, string) {}
