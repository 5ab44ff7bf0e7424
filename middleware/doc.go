// Package middleware exposes HTTP middleware adapters for bearer token and
// CSRF enforcement built on top of authcore.Engine validation.
//
// # Guards
//
//   - [RequireAuth] — bearer access token validation, including revocation.
//   - [CSRFProtect] — double-check CSRF enforcement on unsafe methods.
//
// Each guard reads the relevant request headers, calls into the Engine, and
// injects validated identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself. All decisions are delegated to the
// Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
