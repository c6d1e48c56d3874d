package auth

import "fmt"

// AuthenticationError reports that the identity provider rejected the exchange or could
// not be reached. It never carries the client secret.
type AuthenticationError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication error (status %d): %s", e.StatusCode, e.Message)
	}
	return "authentication error: " + e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}
