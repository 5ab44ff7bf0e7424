package authcore

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	internalrate "github.com/MrEthical07/authcore/internal/rate"
)

// Principal is the identity returned by a [CredentialVerifier] on a
// successful credential check. The engine copies its fields into the
// issued access token claims.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// CredentialVerifier checks a credential pair against the host
// application's user store. Implementations must return
// [ErrInvalidCredentials] when either the account does not exist or the
// password does not match, so the engine cannot leak which one failed.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*Principal, error)
}

// TokenPair carries a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// AccessExpiresAt and RefreshExpiresAt are absolute UTC deadlines.
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthResult is returned by [Engine.Validate]. It contains the
// authenticated subject's identity as decoded from the access token.
type AuthResult struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// AuditEvent is re-exported so callers querying the audit trail do not
// need to import the internal package.
type AuditEvent = internalaudit.Event

// AuditFilter narrows an audit query.
type AuditFilter = internalaudit.Filter

// AuditPage bounds an audit query result set.
type AuditPage = internalaudit.Page

// AuditStore is the durable sink interface the engine flushes audit
// batches into. See audit/postgres for the bundled implementation.
type AuditStore = internalaudit.Store

// Severity classifies audit events.
type Severity = internalaudit.Severity

const (
	// SeverityLow is an exported constant or variable used by the authentication engine.
	SeverityLow = internalaudit.SeverityLow
	// SeverityMedium is an exported constant or variable used by the authentication engine.
	SeverityMedium = internalaudit.SeverityMedium
	// SeverityCritical is an exported constant or variable used by the authentication engine.
	SeverityCritical = internalaudit.SeverityCritical
)

// RateResult reports the limiter outcome for one request.
type RateResult = internalrate.Result
