package transport

import (
	"net/http"
)

// clone copies the request so the caller's headers are never mutated.
func clone(r *http.Request) *http.Request {
	cloned := r.Clone(r.Context())
	cloned.Body = r.Body
	cloned.GetBody = r.GetBody
	return cloned
}
