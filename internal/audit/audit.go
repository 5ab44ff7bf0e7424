package audit

import (
	"context"
	"time"
)

// Severity classifies audit events. Low and medium entries are buffered
// until the next periodic flush; critical entries bypass the batch interval.
type Severity uint8

const (
	// SeverityLow marks routine events (successful logins, refreshes).
	SeverityLow Severity = iota
	// SeverityMedium marks suspicious but expected events (failed logins, rate limiting).
	SeverityMedium
	// SeverityCritical marks high-value security signals (token theft).
	SeverityCritical
)

// String returns the storage representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "medium"
	case SeverityCritical:
		return "critical"
	default:
		return "low"
	}
}

// Event types emitted by the engine.
const (
	EventLoginSuccess     = "LOGIN_SUCCESS"
	EventLoginFailed      = "LOGIN_FAILED"
	EventLoginRateLimited = "LOGIN_RATE_LIMITED"
	EventTokenRefreshed   = "TOKEN_REFRESHED"
	EventRefreshReuse     = "REFRESH_REUSE_DETECTED"
	EventRefreshDenied    = "REFRESH_DENIED"
	EventLogout           = "LOGOUT"
	EventValidateDenied   = "VALIDATE_DENIED"
)

// Event is the canonical audit record persisted by the durable store.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Severity  Severity          `json:"severity"`
	SubjectID string            `json:"subject_id,omitempty"`
	Resource  string            `json:"resource,omitempty"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
}

// Filter narrows audit queries. Zero values mean no constraint.
type Filter struct {
	SubjectID string
	EventType string
	Severity  *Severity
	Since     time.Time
	Until     time.Time
}

// Page bounds a query result.
type Page struct {
	Limit  int
	Offset int
}

// Store is the durable side of the audit trail: bulk insert on the write
// path, filtered paginated reads for the admin surface.
type Store interface {
	InsertMany(ctx context.Context, events []Event) error
	Query(ctx context.Context, filter Filter, page Page) ([]Event, error)
}
