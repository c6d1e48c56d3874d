package streamable

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/client/auth/transport"
	"github.com/viant/agentcore/internal/logging"
)

// Factory opens authenticated transports to an MCP endpoint.
type Factory struct {
	base           http.RoundTripper
	timeout        time.Duration
	headers        http.Header
	onUnauthorized func(credential *auth.Credential)
	logger         *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithRoundTripper sets the underlying HTTP transport.
func WithRoundTripper(rt http.RoundTripper) FactoryOption {
	return func(f *Factory) {
		f.base = rt
	}
}

// WithTimeout bounds every HTTP exchange; zero relies on the caller's context only.
func WithTimeout(timeout time.Duration) FactoryOption {
	return func(f *Factory) {
		f.timeout = timeout
	}
}

// WithHeader adds a static header sent with every request of every opened transport.
func WithHeader(name, value string) FactoryOption {
	return func(f *Factory) {
		f.headers.Set(name, value)
	}
}

// WithUnauthorized sets the callback invoked when the endpoint rejects a credential.
func WithUnauthorized(fn func(credential *auth.Credential)) FactoryOption {
	return func(f *Factory) {
		f.onUnauthorized = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logging.WithComponent(logger, "streamable")
	}
}

// NewFactory creates a transport factory.
func NewFactory(options ...FactoryOption) *Factory {
	ret := &Factory{
		base:    http.DefaultTransport,
		headers: http.Header{},
		logger:  logging.WithComponent(nil, "streamable"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// OpenOption configures a single opened Client.
type OpenOption func(*Client)

// WithSessionID resumes an MCP session assigned by the server on a previous transport.
func WithSessionID(sessionID string) OpenOption {
	return func(c *Client) {
		c.setSessionID(sessionID)
	}
}

// WithRequestHeader adds a header to every request of the opened Client.
func WithRequestHeader(name, value string) OpenOption {
	return func(c *Client) {
		c.headers.Set(name, value)
	}
}

// Open returns a transport to endpoint presenting credential on every request.
func (f *Factory) Open(ctx context.Context, endpoint string, credential *auth.Credential, options ...OpenOption) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if credential == nil || credential.AccessToken == "" {
		return nil, fmt.Errorf("streamable: credential is required")
	}
	URL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("streamable: invalid endpoint %q: %w", endpoint, err)
	}
	if URL.Scheme != "http" && URL.Scheme != "https" {
		return nil, fmt.Errorf("streamable: unsupported endpoint scheme %q", URL.Scheme)
	}
	rt := transport.New(
		transport.WithCredential(credential),
		transport.WithTransport(f.base),
		transport.WithUnauthorized(f.onUnauthorized),
	)
	ret := &Client{
		endpoint:   endpoint,
		credential: credential,
		httpClient: &http.Client{Transport: rt, Timeout: f.timeout},
		headers:    f.headers.Clone(),
		logger:     f.logger,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}
