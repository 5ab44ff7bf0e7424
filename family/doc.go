// Package family tracks refresh-token rotation chains and detects reuse.
//
// Each login starts one family. Every successful refresh advances the
// family's current token id; presenting an id that was already rotated away
// is proof that the token leaked, and the whole chain is revoked on the spot.
//
// # State machine
//
//	ACTIVE(currentTokenID) --matching rotate--> ACTIVE(newTokenID)
//	ACTIVE(currentTokenID) --mismatched rotate--> REVOKED (record deleted)
//	ACTIVE(currentTokenID) --TTL expiry--> EXPIRED (implicit)
//
// REVOKED and EXPIRED are terminal.
//
// # What this package must NOT do
//
//   - Parse or verify token signatures (the jwt package owns that).
//   - Perform the compare and the write in separate round trips; rotation
//     must stay a single atomic script call.
package family
