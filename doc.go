// Package authcore is the authentication and session core behind a single
// privileged principal: issuance, rotation, and revocation of bearer
// credentials, brute-force rate limiting, CSRF defense, and a tamper-evident
// audit trail.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. All components are constructed once at process start and
// passed explicitly; there are no hidden globals.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// error sentinels, and value types. The token codec, family tracker,
// revocation list, and CSRF guard live in their own subpackages; rate
// limiting, audit buffering, and id generation live under internal/ and are
// never exported directly.
//
// # Failure policy
//
// The revocation list fails closed, the rate limiter fails open with a
// bounded in-process fallback, and the CSRF guard and family tracker deny
// on store faults. Logout never fails from the caller's point of view.
package authcore
