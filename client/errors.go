package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/mcp-protocol/schema"
)

var (
	// ErrSessionClosed is returned for exchanges attempted after Close.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNotOpen is returned for exchanges attempted before Open.
	ErrNotOpen = errors.New("session is not open")
)

type (
	// TransportError reports a connection failure, timeout or non-2xx status.
	TransportError = streamable.TransportError
	// ProtocolError reports a malformed envelope, mismatched id or bad stream framing.
	ProtocolError = streamable.ProtocolError
)

// ToolError reports that the remote tool itself failed, e.g. division by zero. It is a
// normal RPC outcome, not a transport failure.
type ToolError struct {
	Tool    string
	Code    int
	Message string
	// Result is set when the failure was reported as an isError tool result.
	Result *schema.CallToolResult
}

func (e *ToolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("tool %s failed (code %d): %s", e.Tool, e.Code, e.Message)
	}
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// Text returns the textual content of a tool result.
func Text(result *schema.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, elem := range result.Content {
		if elem.Text != "" {
			parts = append(parts, elem.Text)
		}
	}
	return strings.Join(parts, "\n")
}
