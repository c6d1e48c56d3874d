package streamable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"sync"

	"github.com/viant/agentcore/client/auth"
	"github.com/viant/jsonrpc"
)

const (
	// HeaderSessionID carries the server-assigned MCP session id.
	HeaderSessionID = "Mcp-Session-Id"
	// ContentTypeJSON is the single-document response type.
	ContentTypeJSON = "application/json"
	// ContentTypeEventStream is the streamed response type.
	ContentTypeEventStream = "text/event-stream"

	acceptHeader = ContentTypeJSON + ", " + ContentTypeEventStream
	maxErrorBody = 512
)

// Client is a streamable HTTP transport bound to one credential.
type Client struct {
	endpoint   string
	credential *auth.Credential
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
	mux        sync.RWMutex
	sessionID  string
}

// Credential returns the credential this transport presents.
func (c *Client) Credential() *auth.Credential {
	return c.credential
}

// SessionID returns the server-assigned MCP session id, if any.
func (c *Client) SessionID() string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.sessionID
}

func (c *Client) setSessionID(sessionID string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.sessionID = sessionID
}

// Send posts a request and returns the response whose id matches it.
func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, &ProtocolError{Message: "failed to encode request", Cause: err}
	}
	resp, err := c.post(ctx, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted {
		return nil, &ProtocolError{Message: "server accepted request " + request.Method + " without a response"}
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	var response *jsonrpc.Response
	switch mediaType {
	case ContentTypeEventStream:
		response, err = c.readEventStream(ctx, resp.Body, request.Id)
	case ContentTypeJSON, "":
		var body []byte
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, classify(ctx, err)
		}
		response, err = decodeResponse(body)
	default:
		return nil, &ProtocolError{Message: "unexpected content type " + mediaType}
	}
	if err != nil {
		return nil, err
	}
	if !SameID(response.Id, request.Id) {
		return nil, &ProtocolError{Message: "response id " + idString(response.Id) + " does not match request id " + idString(request.Id)}
	}
	return response, nil
}

// Notify posts a notification; no response body is expected.
func (c *Client) Notify(ctx context.Context, method string, params interface{}) error {
	notification, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return &ProtocolError{Message: "failed to encode notification", Cause: err}
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return &ProtocolError{Message: "failed to encode notification", Cause: err}
	}
	resp, err := c.post(ctx, data)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Close terminates the server session, if one was assigned, and releases idle connections.
func (c *Client) Close(ctx context.Context) error {
	defer c.httpClient.CloseIdleConnections()
	sessionID := c.SessionID()
	if sessionID == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode < 300, resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusMethodNotAllowed:
		return nil
	}
	return statusError(resp.StatusCode, "")
}

func (c *Client) setHeaders(req *http.Request) {
	for name, values := range c.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if sessionID := c.SessionID(); sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
}

func (c *Client) post(ctx context.Context, data []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Type: ErrorTypeConnection, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", ContentTypeJSON)
	req.Header.Set("Accept", acceptHeader)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("endpoint returned error status", "status", resp.StatusCode)
		return nil, statusError(resp.StatusCode, string(bytes.TrimSpace(body)))
	}
	if sessionID := resp.Header.Get(HeaderSessionID); sessionID != "" {
		c.setSessionID(sessionID)
	}
	return resp, nil
}

func classify(ctx context.Context, err error) error {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Type: ErrorTypeTimeout, Message: "exchange timed out", Retryable: true, Cause: err}
	case errors.Is(ctx.Err(), context.Canceled):
		return &TransportError{Type: ErrorTypeCanceled, Message: "exchange canceled", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Type: ErrorTypeTimeout, Message: "exchange timed out", Retryable: true, Cause: err}
	}
	return &TransportError{Type: ErrorTypeConnection, Message: "connection failed", Retryable: true, Cause: err}
}
