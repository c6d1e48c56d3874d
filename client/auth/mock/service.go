package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"
)

// AuthorizationService simulates an OAuth2 authorization server.
type AuthorizationService struct {
	PrivateKey       *rsa.PrivateKey
	Issuer           string
	ClientID         string
	ClientSecret     string
	AuthorizedScopes []string
	// ExpiresIn is the declared lifetime of issued access tokens.
	ExpiresIn time.Duration
	// TokenHandler overrides the default /token handler.
	TokenHandler func(w http.ResponseWriter, r *http.Request)
	// JwksHandler overrides the default /jwks handler.
	JwksHandler func(w http.ResponseWriter, r *http.Request)

	issued   atomic.Int32
	mu       sync.Mutex
	requests []*TokenRequest
}

// TokenRequest records one token request as seen by the server.
type TokenRequest struct {
	Authorization string
	ContentType   string
	GrantType     string
	Scope         string
}

// Option configures the service.
type Option func(*AuthorizationService)

// WithClient sets the registered client credentials.
func WithClient(clientID, clientSecret string) Option {
	return func(s *AuthorizationService) {
		s.ClientID = clientID
		s.ClientSecret = clientSecret
	}
}

// WithScopes sets the scopes the client may be granted.
func WithScopes(scopes ...string) Option {
	return func(s *AuthorizationService) {
		s.AuthorizedScopes = scopes
	}
}

// WithExpiresIn sets the lifetime of issued tokens.
func WithExpiresIn(expiresIn time.Duration) Option {
	return func(s *AuthorizationService) {
		s.ExpiresIn = expiresIn
	}
}

// NewAuthorizationService creates a new mock OAuth2 authorization server.
func NewAuthorizationService(opts ...Option) (*AuthorizationService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &AuthorizationService{
		PrivateKey:       privateKey,
		ClientID:         "test_client_id",
		ClientSecret:     "test_client_secret",
		AuthorizedScopes: []string{"agentcore/invoke"},
		ExpiresIn:        time.Hour,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Handler returns an http.Handler for all mock endpoints.
func (m *AuthorizationService) Handler() http.Handler {
	return &Handler{Server: m}
}

// Issued returns the number of access tokens issued so far.
func (m *AuthorizationService) Issued() int {
	return int(m.issued.Load())
}

// Requests returns the recorded token requests.
func (m *AuthorizationService) Requests() []*TokenRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*TokenRequest(nil), m.requests...)
}

func (m *AuthorizationService) record(request *TokenRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, request)
}

// HTTPTestAuthorizationServer runs the service on an httptest server.
type HTTPTestAuthorizationServer struct {
	*AuthorizationService
	Server *httptest.Server
}

// NewHTTPTestAuthorizationServer starts a mock authorization server.
func NewHTTPTestAuthorizationServer(opts ...Option) (*HTTPTestAuthorizationServer, error) {
	service, err := NewAuthorizationService(opts...)
	if err != nil {
		return nil, err
	}
	ret := &HTTPTestAuthorizationServer{AuthorizationService: service}
	ret.Server = httptest.NewServer(service.Handler())
	service.Issuer = ret.Server.URL
	return ret, nil
}

// TokenURL returns the token endpoint URL.
func (s *HTTPTestAuthorizationServer) TokenURL() string {
	return s.Issuer + "/token"
}

// Close stops the server.
func (s *HTTPTestAuthorizationServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
