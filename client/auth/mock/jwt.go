package mock

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// createJWT creates a signed access token for clientID with the given scope and expiry
func (m *AuthorizationService) createJWT(clientID, scope string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       m.Issuer,
		"sub":       clientID,
		"client_id": clientID,
		"scope":     scope,
		"token_use": "access",
		"jti":       uuid.NewString(),
		"exp":       now.Add(expiry).Unix(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = m.KeyID()
	return token.SignedString(m.PrivateKey)
}
