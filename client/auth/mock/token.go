package mock

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// defaultTokenHandler handles client_credentials /token requests
func (m *AuthorizationService) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	request := &TokenRequest{
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		GrantType:     r.FormValue("grant_type"),
		Scope:         r.FormValue("scope"),
	}
	m.record(request)
	if request.GrantType != "client_credentials" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok || clientID != m.ClientID || clientSecret != m.ClientSecret {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client")
		return
	}
	scope := request.Scope
	if scope == "" {
		scope = strings.Join(m.AuthorizedScopes, " ")
	}
	for _, requested := range strings.Fields(scope) {
		if !m.authorized(requested) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_scope")
			return
		}
	}
	accessToken, err := m.createJWT(clientID, scope, m.ExpiresIn)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	m.issued.Add(1)
	response := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(m.ExpiresIn.Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (m *AuthorizationService) authorized(scope string) bool {
	for _, candidate := range m.AuthorizedScopes {
		if candidate == scope {
			return true
		}
	}
	return false
}
