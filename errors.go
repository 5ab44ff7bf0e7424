package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is an exported constant or variable used by the authentication engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrTokenInvalid covers malformed, expired, badly signed, and
	// wrong-algorithm tokens. Callers never learn which check failed.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked covers denylisted token ids and revoked or unknown families.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrCSRFMissing is an exported constant or variable used by the authentication engine.
	ErrCSRFMissing = errors.New("csrf token missing")
	// ErrCSRFInvalid is an exported constant or variable used by the authentication engine.
	ErrCSRFInvalid = errors.New("csrf token invalid")
	// ErrStoreUnavailable marks a transient infrastructure fault.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError carries the retry hint alongside the rate-limit denial.
// It matches [ErrRateLimited] under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Is reports a match against [ErrRateLimited].
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
