package transport

import (
	"net/http"

	"github.com/viant/agentcore/client/auth"
)

type Option func(*RoundTripper)

// WithCredential binds the credential presented on every request.
func WithCredential(credential *auth.Credential) Option {
	return func(t *RoundTripper) {
		t.credential = credential
	}
}

// WithTransport sets the underlying transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		if transport != nil {
			t.transport = transport
		}
	}
}

// WithUnauthorized sets the callback invoked when the server rejects the credential.
func WithUnauthorized(fn func(credential *auth.Credential)) Option {
	return func(t *RoundTripper) {
		t.onUnauthorized = fn
	}
}
