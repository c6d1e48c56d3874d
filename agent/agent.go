// Package agent implements the dispatch loop mediating between a reasoning process and the
// tools discovered on an MCP session.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/viant/agentcore/client"
	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
	"github.com/viant/agentcore/registry"
	"github.com/viant/mcp-protocol/schema"
	"golang.org/x/sync/errgroup"
)

// DefaultSystemPrompt frames the assistant's replies.
const DefaultSystemPrompt = "You are a helpful assistant. Provide friendly, conversational responses."

const (
	DefaultMaxRounds   = 8
	DefaultMaxParallel = 4
	DefaultToolTimeout = 30 * time.Second
)

// Retry controls retries of retryable transport failures on a tool call.
type Retry struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetry is the retry policy used unless overridden.
var DefaultRetry = Retry{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}

// Agent runs the dispatch loop.
type Agent struct {
	reasoner    Reasoner
	registry    *registry.Registry
	system      string
	maxRounds   int
	maxParallel int
	toolTimeout time.Duration
	retry       Retry
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates an agent bound to the tools of reg.
func New(reasoner Reasoner, reg *registry.Registry, options ...Option) *Agent {
	ret := &Agent{
		reasoner:    reasoner,
		registry:    reg,
		system:      DefaultSystemPrompt,
		maxRounds:   DefaultMaxRounds,
		maxParallel: DefaultMaxParallel,
		toolTimeout: DefaultToolTimeout,
		retry:       DefaultRetry,
		logger:      logging.WithComponent(nil, "agent"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Respond answers prompt, dispatching tool calls until the reasoning process produces a
// turn without directives. Tool failures are fed back into the conversation.
func (a *Agent) Respond(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	answer, err := a.respond(ctx, prompt)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Elapsed: time.Since(started), Cause: err}
		}
	}
	a.metrics.Respond(outcome, time.Since(started))
	return answer, err
}

func (a *Agent) respond(ctx context.Context, prompt string) (string, error) {
	turns := []*Turn{NewTextTurn(RoleUser, prompt)}
	definitions := a.registry.Definitions()
	for round := 0; ; round++ {
		request := &Request{System: a.system, Turns: append([]*Turn(nil), turns...), Tools: definitions}
		turn, err := a.reasoner.Next(ctx, request)
		if err != nil {
			return "", fmt.Errorf("reasoning failed: %w", err)
		}
		if turn == nil {
			return "", fmt.Errorf("reasoning returned no turn")
		}
		turn.Role = RoleAssistant
		turns = append(turns, turn)
		calls := turn.ToolCalls()
		if len(calls) == 0 {
			a.logger.Debug("responded", "rounds", round)
			return turn.Text(), nil
		}
		if round >= a.maxRounds {
			a.logger.Warn("tool-call round budget exhausted", "rounds", a.maxRounds)
			return "", &RoundBudgetError{Rounds: a.maxRounds}
		}
		for i, call := range calls {
			if call.ID == "" {
				call.ID = fmt.Sprintf("call-%d-%d", round+1, i+1)
			}
		}
		results := a.dispatch(ctx, calls)
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resultTurn := &Turn{Role: RoleUser}
		for _, result := range results {
			resultTurn.Segments = append(resultTurn.Segments, &Segment{ToolResult: result})
		}
		turns = append(turns, resultTurn)
	}
}

// dispatch runs the directives of one turn concurrently; results keep the directive order
// and carry the directive id.
func (a *Agent) dispatch(ctx context.Context, calls []*ToolCall) []*ToolResult {
	results := make([]*ToolResult, len(calls))
	group := errgroup.Group{}
	group.SetLimit(a.maxParallel)
	for i, call := range calls {
		group.Go(func() error {
			results[i] = a.invoke(ctx, call)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (a *Agent) invoke(ctx context.Context, call *ToolCall) *ToolResult {
	ret := &ToolResult{CallID: call.ID, Name: call.Name}
	capability, err := a.registry.Lookup(call.Name)
	if err != nil {
		a.metrics.ToolCall(call.Name, metrics.OutcomeError)
		a.logger.Warn("unknown tool requested", "tool", call.Name)
		ret.Text, ret.IsError = err.Error(), true
		return ret
	}
	arguments := call.Arguments
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	result, err := backoff.Retry(ctx, func() (*schema.CallToolResult, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
		result, err := capability.Invoke(attemptCtx, arguments)
		if err != nil && !retryable(err) {
			return result, backoff.Permanent(err)
		}
		if err != nil {
			a.logger.Debug("retrying tool call", "tool", call.Name, "error", err)
		}
		return result, err
	}, backoff.WithBackOff(a.backOff()), backoff.WithMaxTries(uint(max(1, a.retry.MaxAttempts))))

	var toolErr *client.ToolError
	switch {
	case err == nil:
		a.metrics.ToolCall(call.Name, metrics.OutcomeOK)
		ret.Text = client.Text(result)
	case errors.As(err, &toolErr):
		a.metrics.ToolCall(call.Name, metrics.OutcomeToolError)
		ret.Text, ret.IsError = "Error: "+toolErr.Message, true
	default:
		a.metrics.ToolCall(call.Name, metrics.OutcomeError)
		a.logger.Warn("tool call failed", "tool", call.Name, "error", err)
		ret.Text, ret.IsError = fmt.Sprintf("Tool %s could not be reached: %v", call.Name, err), true
	}
	return ret
}

func (a *Agent) backOff() backoff.BackOff {
	ret := backoff.NewExponentialBackOff()
	if a.retry.InitialInterval > 0 {
		ret.InitialInterval = a.retry.InitialInterval
	}
	if a.retry.MaxInterval > 0 {
		ret.MaxInterval = a.retry.MaxInterval
	}
	return ret
}

// retryable reports whether a failed tool call may succeed when repeated. Tool errors and
// protocol errors are final.
func retryable(err error) bool {
	var transportErr *client.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}
	return false
}
