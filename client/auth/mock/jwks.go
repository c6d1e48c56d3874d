package mock

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/mcp-protocol/oauth2/meta"
)

// KeyID returns the key id stamped on issued tokens, derived from the public modulus.
func (m *AuthorizationService) KeyID() string {
	sum := sha256.Sum256(m.PrivateKey.PublicKey.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

// JSONWebKeySet returns the verification keys of the service.
func (m *AuthorizationService) JSONWebKeySet() *meta.JSONWebKeySet {
	public := &m.PrivateKey.PublicKey
	return &meta.JSONWebKeySet{Keys: []meta.JSONWebKey{{
		Kty: "RSA",
		Use: "sig",
		Alg: jwt.SigningMethodRS256.Alg(),
		Kid: m.KeyID(),
		N:   base64.RawURLEncoding.EncodeToString(public.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(public.E)).Bytes()),
	}}}
}

// Verify reports whether token was signed by this service, has not expired and carries
// a non-empty scope made only of AuthorizedScopes.
func (m *AuthorizationService) Verify(token string) bool {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if kid, _ := t.Header["kid"].(string); kid != m.KeyID() {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return &m.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithIssuer(m.Issuer))
	if err != nil || !parsed.Valid {
		return false
	}
	scope, _ := claims["scope"].(string)
	scopes := strings.Fields(scope)
	if len(scopes) == 0 {
		return false
	}
	for _, candidate := range scopes {
		if !m.authorized(candidate) {
			return false
		}
	}
	return true
}

// PublicKey rebuilds an RSA key from a JSON web key.
func PublicKey(key *meta.JSONWebKey) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}, nil
}

func (m *AuthorizationService) defaultJwksHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.JSONWebKeySet())
}
