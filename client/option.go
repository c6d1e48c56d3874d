package client

import (
	"log/slog"

	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
	"github.com/viant/mcp-protocol/schema"
)

// Option represents option
type Option func(s *Session)

// WithID sets the correlation identifier; a random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithCorrelationHeader sets the header carrying the correlation identifier.
func WithCorrelationHeader(name string) Option {
	return func(s *Session) {
		s.correlationHeader = name
	}
}

// WithImplementation sets the client info sent on initialize.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Session) {
		s.info = implementation
	}
}

func WithProtocolVersion(version string) Option {
	return func(s *Session) {
		s.protocolVersion = version
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logging.WithComponent(logger, "session")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}
