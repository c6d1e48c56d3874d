package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/client"
	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/agentcore/internal/mcptest"
	"github.com/viant/agentcore/registry"
	"github.com/viant/mcp-protocol/schema"
)

type staticSource struct{}

func (s *staticSource) Acquire(ctx context.Context) (*auth.Credential, error) {
	return &auth.Credential{AccessToken: "token", Expiry: time.Now().Add(time.Hour)}, nil
}

func newCalculator(t *testing.T, server *mcptest.Server) *registry.Registry {
	ctx := context.Background()
	cache := auth.NewCache(&staticSource{}, auth.TokenKey{Issuer: "test"})
	session, err := client.New(server.URL, streamable.NewFactory(), cache)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close(context.Background()) })
	_, err = session.Open(ctx)
	require.NoError(t, err)
	reg, err := registry.Discover(ctx, session)
	require.NoError(t, err)
	return reg
}

func call(id, name string, a, b float64) *agent.Segment {
	return &agent.Segment{ToolCall: &agent.ToolCall{ID: id, Name: name, Arguments: map[string]interface{}{"a": a, "b": b}}}
}

// toolThenAnswer requests one tool call on the first round and answers with its result.
func toolThenAnswer(segment *agent.Segment, answer func(result *agent.ToolResult) string) agent.Reasoner {
	return agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		results := request.LastTurn().ToolResults()
		if len(results) == 0 {
			return &agent.Turn{Segments: []*agent.Segment{segment}}, nil
		}
		return agent.NewTextTurn(agent.RoleAssistant, answer(results[0])), nil
	})
}

func TestAgent_Respond_ToolCall(t *testing.T) {
	server := mcptest.New(mcptest.WithMode(mcptest.ModeSSE))
	defer server.Close()
	reg := newCalculator(t, server)

	var seen *agent.Request
	reasoner := toolThenAnswer(call("c1", "add", 10, 5), func(result *agent.ToolResult) string {
		return "10 plus 5 is " + result.Text + "."
	})
	capture := agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		if seen == nil {
			seen = request
		}
		return reasoner.Next(ctx, request)
	})

	answer, err := agent.New(capture, reg).Respond(context.Background(), "what is 10 plus 5")
	require.NoError(t, err)
	assert.Equal(t, "10 plus 5 is 15.", answer)

	calls := server.Calls(schema.MethodToolsCall)
	require.Len(t, calls, 1)
	params := struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}{}
	require.NoError(t, json.Unmarshal(calls[0].Params, &params))
	assert.Equal(t, "add", params.Name)
	assert.Equal(t, map[string]interface{}{"a": 10.0, "b": 5.0}, params.Arguments)

	require.NotNil(t, seen)
	assert.Equal(t, agent.DefaultSystemPrompt, seen.System)
	assert.Len(t, seen.Tools, 4)
	assert.Equal(t, "what is 10 plus 5", seen.Turns[0].Text())
}

func TestAgent_Respond_NoTools(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	reg := newCalculator(t, server)
	reasoner := agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		return &agent.Turn{Segments: []*agent.Segment{{Text: "Hello! "}, {Text: "How can I help?"}}}, nil
	})
	answer, err := agent.New(reasoner, reg).Respond(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", answer)
	assert.Empty(t, server.Calls(schema.MethodToolsCall))
}

func TestAgent_Respond_ToolErrorFedBack(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	reg := newCalculator(t, server)
	var fedBack *agent.ToolResult
	reasoner := toolThenAnswer(call("d1", "divide", 10, 0), func(result *agent.ToolResult) string {
		fedBack = result
		return "I couldn't do that because: " + result.Text
	})
	answer, err := agent.New(reasoner, reg).Respond(context.Background(), "divide 10 by 0")
	require.NoError(t, err)
	assert.Contains(t, answer, "Cannot divide by zero")
	require.NotNil(t, fedBack)
	assert.True(t, fedBack.IsError)
	assert.Equal(t, "d1", fedBack.CallID)
	assert.Len(t, server.Calls(schema.MethodToolsCall), 1)
}

func TestAgent_Respond_UnknownTool(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	reg := newCalculator(t, server)
	round := 0
	reasoner := agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		round++
		switch round {
		case 1:
			return &agent.Turn{Segments: []*agent.Segment{call("p1", "power", 2, 3)}}, nil
		case 2:
			result := request.LastTurn().ToolResults()[0]
			if !result.IsError {
				return nil, errors.New("expected an error result")
			}
			return &agent.Turn{Segments: []*agent.Segment{call("m1", "multiply", 2, 3)}}, nil
		default:
			return agent.NewTextTurn(agent.RoleAssistant, "2 times 3 is "+request.LastTurn().ToolResults()[0].Text), nil
		}
	})
	answer, err := agent.New(reasoner, reg).Respond(context.Background(), "2 to the power 3?")
	require.NoError(t, err)
	assert.Equal(t, "2 times 3 is 6", answer)
	assert.Len(t, server.Calls(schema.MethodToolsCall), 1)
}

func TestAgent_Respond_RoundBudget(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	reg := newCalculator(t, server)
	reasoner := agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		return &agent.Turn{Segments: []*agent.Segment{call("", "add", 1, 1)}}, nil
	})
	_, err := agent.New(reasoner, reg, agent.WithMaxRounds(3)).Respond(context.Background(), "loop forever")
	var budgetErr *agent.RoundBudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.Equal(t, 3, budgetErr.Rounds)
	assert.Len(t, server.Calls(schema.MethodToolsCall), 3)
}

func TestAgent_Respond_Timeout(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	reg := newCalculator(t, server)
	server.Delay = 300 * time.Millisecond
	reasoner := toolThenAnswer(call("a1", "add", 1, 2), func(result *agent.ToolResult) string { return result.Text })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := agent.New(reasoner, reg).Respond(ctx, "add slowly")
	var timeoutErr *agent.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
}

// funcTool is a local capability for exercising dispatch without a server.
type funcTool struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, n int32, arguments map[string]interface{}) (*schema.CallToolResult, error)
}

func (f *funcTool) Definition() *registry.Definition {
	return &registry.Definition{Name: f.name, InputSchema: map[string]interface{}{"type": "object"}}
}

func (f *funcTool) Invoke(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error) {
	return f.fn(ctx, f.calls.Add(1), arguments)
}

func textResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: text}}}
}

func TestAgent_Respond_ParallelMatchedByID(t *testing.T) {
	var mu sync.Mutex
	var finished []string
	slow := &funcTool{name: "slow", fn: func(ctx context.Context, n int32, arguments map[string]interface{}) (*schema.CallToolResult, error) {
		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		finished = append(finished, "slow")
		mu.Unlock()
		return textResult(fmt.Sprintf("slow:%v", arguments["v"])), nil
	}}
	fast := &funcTool{name: "fast", fn: func(ctx context.Context, n int32, arguments map[string]interface{}) (*schema.CallToolResult, error) {
		mu.Lock()
		finished = append(finished, "fast")
		mu.Unlock()
		return textResult(fmt.Sprintf("fast:%v", arguments["v"])), nil
	}}
	reg, err := registry.New(slow, fast)
	require.NoError(t, err)

	var results []*agent.ToolResult
	reasoner := agent.ReasonerFunc(func(ctx context.Context, request *agent.Request) (*agent.Turn, error) {
		if results = request.LastTurn().ToolResults(); len(results) > 0 {
			return agent.NewTextTurn(agent.RoleAssistant, "done"), nil
		}
		return &agent.Turn{Segments: []*agent.Segment{
			{Text: "Let me check both."},
			{ToolCall: &agent.ToolCall{ID: "s", Name: "slow", Arguments: map[string]interface{}{"v": 1}}},
			{ToolCall: &agent.ToolCall{ID: "f", Name: "fast", Arguments: map[string]interface{}{"v": 2}}},
		}}, nil
	})
	answer, err := agent.New(reasoner, reg).Respond(context.Background(), "both")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)
	assert.Equal(t, []string{"fast", "slow"}, finished)
	require.Len(t, results, 2)
	byID := map[string]string{}
	for _, result := range results {
		byID[result.CallID] = result.Text
	}
	assert.Equal(t, map[string]string{"s": "slow:1", "f": "fast:2"}, byID)
}

func TestAgent_Respond_Retry(t *testing.T) {
	testCases := []struct {
		description string
		failures    int32
		err         error
		expectCalls int32
		expectError bool
	}{
		{
			description: "retryable transport error recovers",
			failures:    2,
			err:         &client.TransportError{Type: streamable.ErrorTypeServer, StatusCode: 503, Retryable: true},
			expectCalls: 3,
		},
		{
			description: "retries exhausted",
			failures:    10,
			err:         &client.TransportError{Type: streamable.ErrorTypeConnection, Retryable: true},
			expectCalls: 3,
			expectError: true,
		},
		{
			description: "protocol error is not retried",
			failures:    10,
			err:         &client.ProtocolError{Message: "bad id"},
			expectCalls: 1,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			tool := &funcTool{name: "flaky", fn: func(ctx context.Context, n int32, arguments map[string]interface{}) (*schema.CallToolResult, error) {
				if n <= tc.failures {
					return nil, tc.err
				}
				return textResult(strconv.Itoa(int(n))), nil
			}}
			reg, err := registry.New(tool)
			require.NoError(t, err)
			var fedBack *agent.ToolResult
			reasoner := toolThenAnswer(&agent.Segment{ToolCall: &agent.ToolCall{Name: "flaky"}}, func(result *agent.ToolResult) string {
				fedBack = result
				return result.Text
			})
			retry := agent.Retry{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
			_, err = agent.New(reasoner, reg, agent.WithRetry(retry)).Respond(context.Background(), "go")
			require.NoError(t, err)
			assert.Equal(t, tc.expectCalls, tool.calls.Load())
			require.NotNil(t, fedBack)
			assert.Equal(t, tc.expectError, fedBack.IsError)
			assert.Equal(t, "call-1-1", fedBack.CallID)
		})
	}
}
