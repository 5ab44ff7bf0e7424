package authcore

import (
	"context"
	"fmt"
)

// IssueCSRFToken mints a single-session CSRF token and stores its
// reference value under the session id.
//
// IssueCSRFToken may return an error when input validation, dependency calls, or security checks fail.
// IssueCSRFToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueCSRFToken(ctx context.Context, sessionID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	token, err := e.csrfGuard.Issue(sctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(MetricCSRFIssued)
	return token, nil
}

// ValidateCSRFToken compares the presented token against the stored
// reference value in constant time. Missing and mismatched tokens are
// distinguished so HTTP layers can return different status codes.
//
// ValidateCSRFToken may return an error when input validation, dependency calls, or security checks fail.
// ValidateCSRFToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateCSRFToken(ctx context.Context, sessionID, presented string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if presented == "" {
		e.metrics.Inc(MetricCSRFRejected)
		return ErrCSRFMissing
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	ok, err := e.csrfGuard.Validate(sctx, sessionID, presented)
	if err != nil {
		e.metrics.Inc(MetricCSRFRejected)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		e.metrics.Inc(MetricCSRFRejected)
		return ErrCSRFInvalid
	}

	return nil
}

// RevokeCSRFToken drops the stored reference value for the session, for
// example on logout.
func (e *Engine) RevokeCSRFToken(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.csrfGuard.Revoke(sctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}
