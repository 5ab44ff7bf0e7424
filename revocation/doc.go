// Package revocation maintains the denylist of individual token ids.
//
// This is the one component that deliberately fails closed: if the backing
// store is unreachable, every id is reported as revoked. Availability is
// traded for safety only here.
package revocation
