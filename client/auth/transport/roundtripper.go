package transport

import (
	"errors"
	"net/http"

	"github.com/viant/agentcore/client/auth"
)

// ErrNoCredential is returned when neither a bound nor a per-request credential is available.
var ErrNoCredential = errors.New("transport: no credential")

// RoundTripper attaches a bearer credential to outgoing requests.
type RoundTripper struct {
	credential     *auth.Credential
	transport      http.RoundTripper
	onUnauthorized func(credential *auth.Credential)
}

func New(options ...Option) *RoundTripper {
	ret := &RoundTripper{
		transport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Credential returns the bound credential.
func (r *RoundTripper) Credential() *auth.Credential {
	return r.credential
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	credential := getCredential(req.Context())
	if credential == nil {
		credential = r.credential
	}
	if credential == nil || credential.AccessToken == "" {
		return nil, ErrNoCredential
	}
	authorized := clone(req)
	authorized.Header.Set("Authorization", credential.Header())
	resp, err := r.transport.RoundTrip(authorized)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && r.onUnauthorized != nil {
		r.onUnauthorized(credential)
	}
	return resp, nil
}
