// Package transport implements an http.RoundTripper that presents a bearer credential on
// every request and reports `401 Unauthorized` challenges back to the credential owner, so
// the rejected token can be invalidated and a fresh one acquired on the next exchange.
package transport
