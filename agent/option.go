package agent

import (
	"log/slog"
	"time"

	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
)

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.system = prompt
	}
}

// WithMaxRounds sets the maximum number of tool-call rounds per prompt.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithMaxParallel sets how many directives of one turn run concurrently.
func WithMaxParallel(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxParallel = n
		}
	}
}

// WithToolTimeout bounds each tool invocation attempt.
func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.toolTimeout = d
		}
	}
}

// WithRetry sets the retry policy for retryable transport failures.
func WithRetry(retry Retry) Option {
	return func(a *Agent) {
		a.retry = retry
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logging.WithComponent(logger, "agent")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}
