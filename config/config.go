// Package config loads the bridge parameters from a key-value parameter store.
//
// The parameters are published by the infrastructure stack under a common prefix
// (by default /agentcore): the runtime resource name, the OAuth client id, the token
// endpoint and the user-pool id used to look up the client secret.
package config

import (
	"context"
	"path"
	"strings"
)

// DefaultPrefix is the parameter namespace used by the infrastructure stack.
const DefaultPrefix = "/agentcore"

// Parameter names relative to the prefix.
const (
	RuntimeARNKey    = "mcp-calculator-runtime-arn"
	ClientIDKey      = "cognito-client-id"
	TokenEndpointKey = "cognito-token-endpoint"
	UserPoolIDKey    = "cognito-user-pool-id"
	ClientSecretKey  = "cognito-client-secret"
)

// Store reads parameters by name. Names absent from the store are omitted from the result.
type Store interface {
	Parameters(ctx context.Context, names []string) (map[string]string, error)
}

// SecretSource resolves the OAuth client secret registered in an identity pool.
type SecretSource interface {
	ClientSecret(ctx context.Context, userPoolID, clientID string) (string, error)
}

// Config holds the values the bridge needs at startup.
type Config struct {
	Region        string
	RuntimeARN    string
	ClientID      string
	ClientSecret  string
	TokenEndpoint string
	UserPoolID    string
}

// Keys maps parameter names to fully qualified store keys.
type Keys struct {
	Prefix string
}

// Name returns the fully qualified parameter name.
func (k Keys) Name(key string) string {
	prefix := k.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return path.Join("/", prefix, key)
}

// Load reads the required parameters and resolves the client secret. A store may carry
// the secret itself, in which case secrets is not consulted.
func Load(ctx context.Context, region string, store Store, secrets SecretSource, keys Keys) (*Config, error) {
	required := []string{RuntimeARNKey, ClientIDKey, TokenEndpointKey, UserPoolIDKey}
	names := make([]string, 0, len(required)+1)
	for _, key := range required {
		names = append(names, keys.Name(key))
	}
	names = append(names, keys.Name(ClientSecretKey))
	values, err := store.Parameters(ctx, names)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to read parameters", Cause: err}
	}
	var missing []string
	lookup := func(key string) string {
		value := strings.TrimSpace(values[keys.Name(key)])
		if value == "" {
			missing = append(missing, keys.Name(key))
		}
		return value
	}
	ret := &Config{
		Region:        region,
		RuntimeARN:    lookup(RuntimeARNKey),
		ClientID:      lookup(ClientIDKey),
		TokenEndpoint: lookup(TokenEndpointKey),
		UserPoolID:    lookup(UserPoolIDKey),
		ClientSecret:  strings.TrimSpace(values[keys.Name(ClientSecretKey)]),
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}
	if !strings.HasPrefix(ret.TokenEndpoint, "https://") && !strings.HasPrefix(ret.TokenEndpoint, "http://") {
		return nil, &ConfigurationError{Key: keys.Name(TokenEndpointKey), Message: "token endpoint must be an http(s) URL"}
	}
	if ret.ClientSecret == "" {
		if secrets == nil {
			return nil, &ConfigurationError{Key: keys.Name(ClientSecretKey), Message: "no client secret source configured"}
		}
		secret, err := secrets.ClientSecret(ctx, ret.UserPoolID, ret.ClientID)
		if err != nil {
			return nil, &ConfigurationError{Key: keys.Name(UserPoolIDKey), Message: "failed to resolve client secret", Cause: err}
		}
		if secret == "" {
			return nil, &ConfigurationError{Key: keys.Name(UserPoolIDKey), Message: "client has no secret"}
		}
		ret.ClientSecret = secret
	}
	return ret, nil
}
