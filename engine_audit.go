package authcore

import (
	"context"
	"fmt"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// recordAudit enqueues one audit event, stamping the caller fingerprint
// from ctx. It never blocks request handling.
func (e *Engine) recordAudit(ctx context.Context, eventType string, severity Severity, subjectID string, details map[string]string) {
	e.audit.Record(internalaudit.Event{
		EventType: eventType,
		Severity:  severity,
		SubjectID: subjectID,
		Action:    eventType,
		Details:   details,
		IPAddress: clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	})
}

// QueryAudit describes the queryaudit operation and its observable behavior.
//
// QueryAudit may return an error when input validation, dependency calls, or security checks fail.
// QueryAudit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) QueryAudit(ctx context.Context, filter AuditFilter, page AuditPage) ([]AuditEvent, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.auditStore == nil {
		return nil, nil
	}

	// Push buffered events down first so a query right after an operation
	// sees it.
	e.audit.Flush()

	events, err := e.auditStore.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return events, nil
}

// FlushAudit forces buffered audit events to the durable store.
func (e *Engine) FlushAudit() {
	if e == nil {
		return
	}
	e.audit.Flush()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full or flushing kept failing.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}
