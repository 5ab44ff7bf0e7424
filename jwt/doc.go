// Package jwt implements the token codec: signing and verification of the
// compact claim sets carried by access and refresh tokens.
//
// The [Manager] is pinned to a single signing algorithm chosen at
// construction. Verification rejects tokens signed with any other algorithm,
// closing algorithm-confusion attacks; there is no per-token negotiation.
//
// # What this package must NOT do
//
//   - Touch Redis or any store (revocation and rotation live elsewhere).
//   - Reveal which verification check failed to external callers.
//   - Accept unsigned or alg=none tokens under any configuration.
package jwt
