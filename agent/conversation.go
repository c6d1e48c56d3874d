package agent

import (
	"context"
	"strings"

	"github.com/viant/agentcore/registry"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a directive from the reasoning process to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolResult is the outcome of one ToolCall fed back into the conversation.
type ToolResult struct {
	CallID  string
	Name    string
	Text    string
	IsError bool
}

// Segment is one element of a turn: text, a tool call, or a tool result.
type Segment struct {
	Text       string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// Turn is one message of the conversation.
type Turn struct {
	Role     Role
	Segments []*Segment
}

// NewTextTurn creates a turn with a single text segment.
func NewTextTurn(role Role, text string) *Turn {
	return &Turn{Role: role, Segments: []*Segment{{Text: text}}}
}

// Text concatenates the text segments.
func (t *Turn) Text() string {
	var parts []string
	for _, segment := range t.Segments {
		if segment.ToolCall == nil && segment.ToolResult == nil && segment.Text != "" {
			parts = append(parts, segment.Text)
		}
	}
	return strings.Join(parts, "")
}

// ToolCalls returns the tool-call directives of the turn.
func (t *Turn) ToolCalls() []*ToolCall {
	var ret []*ToolCall
	for _, segment := range t.Segments {
		if segment.ToolCall != nil {
			ret = append(ret, segment.ToolCall)
		}
	}
	return ret
}

// ToolResults returns the tool results carried by the turn.
func (t *Turn) ToolResults() []*ToolResult {
	var ret []*ToolResult
	for _, segment := range t.Segments {
		if segment.ToolResult != nil {
			ret = append(ret, segment.ToolResult)
		}
	}
	return ret
}

// Request is what the reasoning process sees on each round.
type Request struct {
	System string
	Turns  []*Turn
	Tools  []*registry.Definition
}

// LastTurn returns the most recent turn.
func (r *Request) LastTurn() *Turn {
	if len(r.Turns) == 0 {
		return nil
	}
	return r.Turns[len(r.Turns)-1]
}

// Reasoner decides the next assistant turn: either a final answer or tool-call directives.
type Reasoner interface {
	Next(ctx context.Context, request *Request) (*Turn, error)
}

// ReasonerFunc adapts a function to Reasoner.
type ReasonerFunc func(ctx context.Context, request *Request) (*Turn, error)

func (f ReasonerFunc) Next(ctx context.Context, request *Request) (*Turn, error) {
	return f(ctx, request)
}
