// Package mock provides an in-process OAuth2 authorization server that issues signed
// JWT access tokens for the client_credentials grant, so the credential exchange can be
// exercised without a real identity provider.
package mock
