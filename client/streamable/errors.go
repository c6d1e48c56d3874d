package streamable

import (
	"fmt"
)

// ErrorType classifies transport failures.
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeCanceled   ErrorType = "canceled"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeClient     ErrorType = "client"
)

// TransportError reports a connection failure, timeout, or non-2xx status at the RPC endpoint.
type TransportError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Type, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether retrying the exchange may succeed.
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// ProtocolError reports a malformed JSON-RPC envelope, a mismatched exchange id, or
// unexpected event-stream framing. It is never retryable.
type ProtocolError struct {
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return "protocol error: " + e.Message + ": " + e.Cause.Error()
	}
	return "protocol error: " + e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

func statusError(statusCode int, body string) *TransportError {
	ret := &TransportError{StatusCode: statusCode, Message: body}
	switch {
	case statusCode == 401:
		ret.Type, ret.Retryable = ErrorTypeAuth, true
	case statusCode == 403:
		ret.Type = ErrorTypeAuth
	case statusCode == 408 || statusCode == 429:
		ret.Type, ret.Retryable = ErrorTypeClient, true
	case statusCode >= 500:
		ret.Type, ret.Retryable = ErrorTypeServer, statusCode != 501
	default:
		ret.Type = ErrorTypeClient
	}
	if ret.Message == "" {
		ret.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}
	return ret
}
