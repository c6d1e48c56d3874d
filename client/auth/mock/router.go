package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the mock OAuth2 server endpoints.
type Handler struct {
	Server *AuthorizationService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/token", "/oauth2/token":
		if h.Server.TokenHandler != nil {
			h.Server.TokenHandler(w, r)
		} else {
			h.Server.defaultTokenHandler(w, r)
		}
	case "/jwks", "/.well-known/jwks.json":
		if h.Server.JwksHandler != nil {
			h.Server.JwksHandler(w, r)
		} else {
			h.Server.defaultJwksHandler(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}
