package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultScope is the scope granting runtime invocation.
const DefaultScope = "agentcore/invoke"

const redacted = "[REDACTED]"

// Credential is a bearer token authorizing calls to the protected runtime.
type Credential struct {
	AccessToken string
	TokenType   string
	Scope       string
	IssuedAt    time.Time
	// Expiry is zero when the identity provider did not declare one.
	Expiry time.Time
}

// Header returns the Authorization header value.
func (c *Credential) Header() string {
	return "Bearer " + c.AccessToken
}

// Valid reports whether the credential is usable at now for at least skew.
func (c *Credential) Valid(now time.Time, skew time.Duration) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return now.Add(skew).Before(c.Expiry)
}

func (c *Credential) String() string {
	return "Credential{scope: " + c.Scope + ", token: " + redacted + "}"
}

// LogValue keeps the token out of structured logs.
func (c *Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scope", c.Scope),
		slog.Time("issuedAt", c.IssuedAt),
		slog.Time("expiry", c.Expiry),
	)
}

// Source yields credentials.
type Source interface {
	Acquire(ctx context.Context) (*Credential, error)
}

// Provider performs the OAuth2 client-credentials exchange.
type Provider struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithScopes overrides the requested scopes.
func WithScopes(scopes ...string) ProviderOption {
	return func(p *Provider) {
		p.config.Scopes = scopes
	}
}

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logging.WithComponent(logger, "auth")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ProviderOption {
	return func(p *Provider) {
		p.metrics = m
	}
}

// NewProvider creates a client-credentials provider for the token endpoint.
func NewProvider(clientID, clientSecret, tokenURL string, options ...ProviderOption) *Provider {
	ret := &Provider{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{DefaultScope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		logger: logging.WithComponent(nil, "auth"),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Acquire exchanges the client credentials for a bearer token.
func (p *Provider) Acquire(ctx context.Context) (*Credential, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	token, err := p.config.Token(ctx)
	if err != nil {
		p.metrics.Credential(metrics.OutcomeError)
		authErr := p.authenticationError(err)
		p.logger.Warn("client credentials exchange failed", "status", authErr.StatusCode, "error", authErr.Message)
		return nil, authErr
	}
	if token.AccessToken == "" {
		p.metrics.Credential(metrics.OutcomeError)
		return nil, &AuthenticationError{Message: "token endpoint returned no access_token"}
	}
	p.metrics.Credential(metrics.OutcomeOK)
	ret := p.credential(token)
	p.logger.Debug("acquired credential", "credential", ret)
	return ret, nil
}

func (p *Provider) credential(token *oauth2.Token) *Credential {
	ret := &Credential{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Scope:       strings.Join(p.config.Scopes, " "),
		IssuedAt:    p.now(),
		Expiry:      token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		ret.Scope = scope
	}
	// Access tokens issued as JWTs carry their own issuance and expiry claims.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err == nil {
		if issuedAt, err := claims.GetIssuedAt(); err == nil && issuedAt != nil {
			ret.IssuedAt = issuedAt.Time
		}
		if ret.Expiry.IsZero() {
			if expiry, err := claims.GetExpirationTime(); err == nil && expiry != nil {
				ret.Expiry = expiry.Time
			}
		}
	}
	return ret
}

func (p *Provider) authenticationError(err error) *AuthenticationError {
	ret := &AuthenticationError{Message: p.redact(err.Error()), Cause: err}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		ret.StatusCode = retrieveErr.Response.StatusCode
		ret.Message = "token endpoint rejected client credentials"
		if retrieveErr.ErrorCode != "" {
			ret.Message += ": " + retrieveErr.ErrorCode
		}
	}
	return ret
}

func (p *Provider) redact(message string) string {
	if p.config.ClientSecret == "" {
		return message
	}
	return strings.ReplaceAll(message, p.config.ClientSecret, redacted)
}
