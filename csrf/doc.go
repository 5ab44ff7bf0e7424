// Package csrf issues and validates session-scoped anti-forgery tokens.
//
// The guard stores one token per session and compares presented values in
// constant time. Exemption policy — idempotent requests and requests already
// authenticated by a bearer token skip CSRF validation — is enforced by the
// HTTP layer (see the middleware package), not here.
package csrf
