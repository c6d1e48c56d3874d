package transport

import (
	"context"

	"github.com/viant/agentcore/client/auth"
)

type (
	contextCredentialKey string
)

// ContextCredentialKey overrides the bound credential for a single request.
const ContextCredentialKey contextCredentialKey = "credential"

// WithCredentialContext returns a context carrying a per-request credential.
func WithCredentialContext(ctx context.Context, credential *auth.Credential) context.Context {
	return context.WithValue(ctx, ContextCredentialKey, credential)
}

func getCredential(ctx context.Context) *auth.Credential {
	if v := ctx.Value(ContextCredentialKey); v != nil {
		if credential, ok := v.(*auth.Credential); ok {
			return credential
		}
	}
	return nil
}
