// Package mcptest provides an in-process streamable-HTTP MCP server exposing calculator
// tools, used to exercise the bridge end to end without a deployed runtime.
package mcptest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// Mode selects how the server encodes responses.
type Mode int

const (
	// ModeJSON replies with a single application/json document.
	ModeJSON Mode = iota
	// ModeSSE replies with a text/event-stream carrying a progress notification
	// followed by the response split over several data lines.
	ModeSSE
)

// ToolErrorCode is the JSON-RPC error code used for tool domain errors.
const ToolErrorCode = -32000

// Request records one JSON-RPC message received by the server.
type Request struct {
	Method string
	ID     json.RawMessage
	Params json.RawMessage
	Header http.Header
}

// Server is a fake streamable-HTTP MCP calculator server.
type Server struct {
	*httptest.Server
	// Mode selects the response encoding.
	Mode Mode
	// PageSize limits tools per tools/list page; zero returns all tools at once.
	PageSize int
	// ToolErrorsAsResult reports tool failures as isError results instead of RPC error objects.
	ToolErrorsAsResult bool
	// Authorize decides whether a bearer token is accepted; nil accepts any token.
	Authorize func(token string) bool
	// RewriteID replaces the id echoed for a method; nil echoes the request id.
	RewriteID func(method string, id json.RawMessage) json.RawMessage
	// Raw overrides the response body for a method.
	Raw func(method string) (contentType string, body string, ok bool)
	// Delay is applied before answering tools/call.
	Delay time.Duration

	sessionID string
	tools     []schema.Tool
	mu        sync.Mutex
	requests  []*Request
	deletes   int
}

// New starts a calculator server.
func New(options ...Option) *Server {
	ret := &Server{
		sessionID: uuid.NewString(),
		tools:     calculatorTools(),
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.Server = httptest.NewServer(ret)
	return ret
}

// Option configures the server.
type Option func(*Server)

// WithMode sets the response encoding.
func WithMode(mode Mode) Option {
	return func(s *Server) {
		s.Mode = mode
	}
}

// WithPageSize enables tools/list pagination.
func WithPageSize(size int) Option {
	return func(s *Server) {
		s.PageSize = size
	}
}

// SessionID returns the MCP session id assigned on initialize.
func (s *Server) SessionID() string {
	return s.sessionID
}

// Requests returns the recorded messages.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// Calls returns the recorded messages for method.
func (s *Server) Calls(method string) []*Request {
	var ret []*Request
	for _, request := range s.Requests() {
		if request.Method == method {
			ret = append(ret, request)
		}
	}
	return ret
}

// Deletes returns the number of session termination requests.
func (s *Server) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" || (s.Authorize != nil && !s.Authorize(token)) {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodDelete:
		s.mu.Lock()
		s.deletes++
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type message struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg := &message{}
	if err = json.Unmarshal(data, msg); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, &Request{Method: msg.Method, ID: msg.ID, Params: msg.Params, Header: r.Header.Clone()})
	s.mu.Unlock()

	if len(msg.ID) == 0 { // notification
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if s.Raw != nil {
		if contentType, body, ok := s.Raw(msg.Method); ok {
			w.Header().Set("Content-Type", contentType)
			_, _ = io.WriteString(w, body)
			return
		}
	}
	id := msg.ID
	if s.RewriteID != nil {
		id = s.RewriteID(msg.Method, id)
	}
	resp := &response{Jsonrpc: jsonrpc.Version, ID: id}
	result, rpcErr := s.dispatch(msg)
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	if msg.Method == schema.MethodInitialize {
		w.Header().Set("Mcp-Session-Id", s.sessionID)
	}
	if s.Mode == ModeSSE {
		s.writeEventStream(w, msg, resp)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeEventStream(w http.ResponseWriter, msg *message, resp *response) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	progress, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonrpc.Version,
		"method":  "notifications/progress",
		"params":  map[string]interface{}{"progressToken": string(msg.ID), "progress": 1},
	})
	_, _ = fmt.Fprintf(w, ": keep-alive\n\nevent: message\ndata: %s\n\n", progress)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	data, _ := json.MarshalIndent(resp, "", "  ")
	_, _ = io.WriteString(w, "event: message\nid: 1\n")
	for _, line := range strings.Split(string(data), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}

func (s *Server) dispatch(msg *message) (interface{}, *jsonrpc.Error) {
	switch msg.Method {
	case schema.MethodInitialize:
		return &schema.InitializeResult{
			ProtocolVersion: schema.LatestProtocolVersion,
			ServerInfo:      schema.Implementation{Name: "calculator", Version: "1.0.0"},
			Capabilities:    schema.ServerCapabilities{},
		}, nil
	case schema.MethodToolsList:
		return s.listTools(msg.Params)
	case schema.MethodToolsCall:
		if s.Delay > 0 {
			time.Sleep(s.Delay)
		}
		return s.callTool(msg.Params)
	default:
		return nil, jsonrpc.NewMethodNotFound(fmt.Sprintf("method %v not found", msg.Method), nil)
	}
}

func (s *Server) listTools(params json.RawMessage) (interface{}, *jsonrpc.Error) {
	var request struct {
		Cursor *string `json:"cursor,omitempty"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(err.Error(), params)
		}
	}
	start := 0
	if request.Cursor != nil {
		var err error
		if start, err = strconv.Atoi(*request.Cursor); err != nil || start < 0 || start > len(s.tools) {
			return nil, jsonrpc.NewInvalidParamsError("invalid cursor", params)
		}
	}
	end := len(s.tools)
	if s.PageSize > 0 && start+s.PageSize < end {
		end = start + s.PageSize
	}
	result := &schema.ListToolsResult{Tools: s.tools[start:end]}
	if end < len(s.tools) {
		next := strconv.Itoa(end)
		result.NextCursor = &next
	}
	return result, nil
}

func (s *Server) callTool(params json.RawMessage) (interface{}, *jsonrpc.Error) {
	var request struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &request); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(err.Error(), params)
	}
	value, err := calculate(request.Name, request.Arguments)
	if err != nil {
		if _, unknown := err.(unknownToolError); unknown {
			return nil, jsonrpc.NewError(jsonrpc.InvalidParams, err.Error(), nil)
		}
		if s.ToolErrorsAsResult {
			isError := true
			return &schema.CallToolResult{
				Content: []schema.CallToolResultContentElem{{Type: "text", Text: "Error executing tool " + request.Name + ": " + err.Error()}},
				IsError: &isError,
			}, nil
		}
		return nil, jsonrpc.NewError(ToolErrorCode, err.Error(), nil)
	}
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{{Type: "text", Text: strconv.FormatFloat(value, 'f', -1, 64)}},
	}, nil
}
