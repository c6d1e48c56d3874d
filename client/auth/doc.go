// Package auth obtains and caches the bearer credential that authorizes calls to the
// remote tool runtime.
//
// Provider performs the OAuth2 client-credentials exchange: the registered client id and
// secret are sent as HTTP Basic authentication and a client_credentials grant with the
// invocation scope is posted to the token endpoint. Cache keeps the resulting Credential
// until shortly before its expiry and serializes refreshes, so a credential rejected by
// the runtime (401) can be invalidated and replaced without disturbing in-flight requests,
// which captured their Authorization header before the swap.
package auth
