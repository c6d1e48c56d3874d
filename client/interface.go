package client

import (
	"context"

	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/mcp-protocol/schema"
)

// Interface defines the session operations used by the tool registry and the service.
type Interface interface {
	// Open performs the initialize handshake
	Open(ctx context.Context) (*schema.InitializeResult, error)

	// ListTools discovers every tool exposed by the server
	ListTools(ctx context.Context) ([]schema.Tool, error)

	// CallTool invokes a tool
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*schema.CallToolResult, error)

	// Close terminates the session
	Close(ctx context.Context) error

	// ID returns the correlation identifier
	ID() string
}

// Credentials yields the credential valid for the next exchange.
type Credentials interface {
	Credential(ctx context.Context) (*auth.Credential, error)
	Invalidate(credential *auth.Credential)
}

// TransportFactory opens a transport presenting credential.
type TransportFactory interface {
	Open(ctx context.Context, endpoint string, credential *auth.Credential, options ...streamable.OpenOption) (*streamable.Client, error)
}

// Ensure Session implements Interface
var _ Interface = (*Session)(nil)
