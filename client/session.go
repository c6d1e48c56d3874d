package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/agentcore/internal/collection"
	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// DefaultCorrelationHeader carries the session correlation identifier.
const DefaultCorrelationHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// maxPages bounds tools/list pagination.
const maxPages = 100

// State is the session lifecycle state.
type State int32

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unopened"
	}
}

// Session is a logical conversation with a remote MCP server.
type Session struct {
	endpoint          string
	factory           TransportFactory
	credentials       Credentials
	id                string
	correlationHeader string
	info              schema.Implementation
	protocolVersion   string
	logger            *slog.Logger
	metrics           *metrics.Metrics

	nextID atomic.Uint64
	// pending holds the in-flight exchanges by id; it backs Outstanding and the close warning.
	pending *collection.SyncMap[uint64, string]

	mux        sync.RWMutex
	state      State
	transport  *streamable.Client
	initialize *schema.InitializeResult
}

// New creates an unopened session to endpoint.
func New(endpoint string, factory TransportFactory, credentials Credentials, options ...Option) (*Session, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint was empty")
	}
	if factory == nil || credentials == nil {
		return nil, fmt.Errorf("transport factory and credentials are required")
	}
	ret := &Session{
		endpoint:          endpoint,
		factory:           factory,
		credentials:       credentials,
		correlationHeader: DefaultCorrelationHeader,
		info:              *schema.NewImplementation("agentcore-bridge", "1.0.0"),
		protocolVersion:   schema.LatestProtocolVersion,
		logger:            logging.WithComponent(nil, "session"),
		pending:           collection.NewSyncMap[uint64, string](),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.id == "" {
		ret.id = uuid.NewString()
	}
	ret.logger = ret.logger.With("session", ret.id)
	return ret, nil
}

// ID returns the correlation identifier stamped on every request.
func (s *Session) ID() string {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state
}

// Outstanding returns the number of exchanges awaiting a response.
func (s *Session) Outstanding() int {
	return s.pending.Len()
}

// Open performs the initialize handshake. Opening an open session is a no-op.
func (s *Session) Open(ctx context.Context) (*schema.InitializeResult, error) {
	s.mux.RLock()
	state, initialized := s.state, s.initialize
	s.mux.RUnlock()
	switch state {
	case StateClosed:
		return nil, ErrSessionClosed
	case StateOpen:
		return initialized, nil
	}
	params := &schema.InitializeRequestParams{
		Capabilities:    schema.ClientCapabilities{},
		ClientInfo:      s.info,
		ProtocolVersion: s.protocolVersion,
	}
	result, err := send[schema.InitializeRequestParams, schema.InitializeResult](ctx, s, schema.MethodInitialize, params)
	if err != nil {
		return nil, err
	}
	transport, err := s.transportFor(ctx)
	if err != nil {
		return nil, err
	}
	if err = transport.Notify(ctx, schema.MethodNotificationInitialized, nil); err != nil {
		return nil, err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	s.state = StateOpen
	s.initialize = result
	s.logger.Info("session opened", "server", result.ServerInfo.Name, "protocolVersion", result.ProtocolVersion)
	return result, nil
}

// ListTools returns every tool exposed by the server, following pagination cursors.
func (s *Session) ListTools(ctx context.Context) ([]schema.Tool, error) {
	var tools []schema.Tool
	var cursor *string
	seen := map[string]bool{}
	for page := 0; page < maxPages; page++ {
		params := &schema.ListToolsRequestParams{Cursor: cursor}
		result, err := send[schema.ListToolsRequestParams, schema.ListToolsResult](ctx, s, schema.MethodToolsList, params)
		if err != nil {
			var rpcErr *jsonrpc.Error
			if errors.As(err, &rpcErr) {
				return nil, &ProtocolError{Message: "tools/list failed", Cause: rpcErr}
			}
			return nil, err
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == nil || *result.NextCursor == "" {
			return tools, nil
		}
		if seen[*result.NextCursor] {
			return nil, &ProtocolError{Message: "tools/list repeated cursor " + *result.NextCursor}
		}
		seen[*result.NextCursor] = true
		cursor = result.NextCursor
	}
	return nil, &ProtocolError{Message: fmt.Sprintf("tools/list exceeded %d pages", maxPages)}
}

// CallTool invokes a tool. A failure reported by the tool is returned as *ToolError.
func (s *Session) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*schema.CallToolResult, error) {
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	params := &schema.CallToolRequestParams{Name: name, Arguments: arguments}
	result, err := send[schema.CallToolRequestParams, schema.CallToolResult](ctx, s, schema.MethodToolsCall, params)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			return nil, &ToolError{Tool: name, Code: rpcErr.Code, Message: rpcErr.Message}
		}
		return nil, err
	}
	if result.IsError != nil && *result.IsError {
		return result, &ToolError{Tool: name, Message: Text(result), Result: result}
	}
	return result, nil
}

// Close terminates the server session; Closed is terminal.
func (s *Session) Close(ctx context.Context) error {
	s.mux.Lock()
	if s.state == StateClosed {
		s.mux.Unlock()
		return nil
	}
	s.state = StateClosed
	transport := s.transport
	s.transport = nil
	s.mux.Unlock()
	if outstanding := s.pending.Len(); outstanding > 0 {
		s.logger.Warn("closing session with outstanding exchanges", "outstanding", outstanding)
	}
	if transport == nil {
		return nil
	}
	err := transport.Close(ctx)
	if err != nil {
		s.logger.Warn("failed to terminate server session", "error", err)
	}
	s.logger.Info("session closed")
	return err
}

func (s *Session) ready(method string) error {
	s.mux.RLock()
	defer s.mux.RUnlock()
	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateUnopened:
		if method != schema.MethodInitialize {
			return ErrNotOpen
		}
	}
	return nil
}

// transportFor returns a transport bound to the current credential, reopening it when the
// credential changed. The server session id carries over to the new transport.
func (s *Session) transportFor(ctx context.Context) (*streamable.Client, error) {
	credential, err := s.credentials.Credential(ctx)
	if err != nil {
		return nil, err
	}
	s.mux.RLock()
	current := s.transport
	s.mux.RUnlock()
	if current != nil && current.Credential().AccessToken == credential.AccessToken {
		return current, nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.transport != nil && s.transport.Credential().AccessToken == credential.AccessToken {
		return s.transport, nil
	}
	options := []streamable.OpenOption{streamable.WithRequestHeader(s.correlationHeader, s.id)}
	if s.transport != nil {
		options = append(options, streamable.WithSessionID(s.transport.SessionID()))
		s.logger.Debug("reopening transport with refreshed credential")
	}
	transport, err := s.factory.Open(ctx, s.endpoint, credential, options...)
	if err != nil {
		return nil, err
	}
	s.transport = transport
	return transport, nil
}

func (s *Session) rejected(transport *streamable.Client, err error) {
	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusUnauthorized {
		s.logger.Warn("endpoint rejected credential")
		s.credentials.Invalidate(transport.Credential())
	}
}

func send[P any, R any](ctx context.Context, s *Session, method string, parameters *P) (*R, error) {
	if err := s.ready(method); err != nil {
		return nil, err
	}
	id := s.nextID.Add(1)
	s.pending.Put(id, method)
	defer s.pending.Delete(id)
	request, err := jsonrpc.NewRequest(method, parameters)
	if err != nil {
		return nil, &ProtocolError{Message: "failed to encode " + method, Cause: err}
	}
	request.Id = id
	transport, err := s.transportFor(ctx)
	if err != nil {
		s.metrics.Exchange(method, metrics.OutcomeError)
		return nil, err
	}
	response, err := transport.Send(ctx, request)
	if err != nil {
		s.metrics.Exchange(method, metrics.OutcomeError)
		s.rejected(transport, err)
		s.logger.Debug("exchange failed", "id", id, "method", method, "error", err)
		return nil, err
	}
	if response.Error != nil {
		s.metrics.Exchange(method, metrics.OutcomeToolError)
		return nil, response.Error
	}
	var result R
	if err = json.Unmarshal(response.Result, &result); err != nil {
		s.metrics.Exchange(method, metrics.OutcomeError)
		return nil, &ProtocolError{Message: "malformed " + method + " result", Cause: err}
	}
	s.metrics.Exchange(method, metrics.OutcomeOK)
	return &result, nil
}
