package authcore

import (
	"context"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// Login verifies the credential pair, opens a fresh token family, and
// returns an access/refresh pair. Credential failures are reported
// uniformly as [ErrInvalidCredentials] regardless of whether the account
// exists.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if _, err := e.checkRate(ctx, CategoryLogin); err != nil {
		e.metrics.Inc(MetricLoginRateLimited)
		e.recordAudit(ctx, internalaudit.EventLoginRateLimited, SeverityMedium, "", map[string]string{
			"email": email,
		})
		return nil, err
	}

	principal, err := e.verifier.Verify(ctx, email, password)
	if err != nil || principal == nil {
		e.metrics.Inc(MetricLoginFailure)
		e.recordAudit(ctx, internalaudit.EventLoginFailed, SeverityMedium, "", map[string]string{
			"email": email,
		})
		// Uniform denial. The real cause stays in the log.
		e.logger.Info(ctx, "credential verification failed", "error", err)
		return nil, ErrInvalidCredentials
	}

	now := time.Now()

	refreshToken, refreshID, familyID, err := e.codec.IssueRefresh(principal.UserID, principal.Email, principal.Role, "")
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	err = e.families.Begin(sctx, familyID, principal.UserID, refreshID,
		e.config.JWT.RefreshTTL+e.config.Family.GracePeriod)
	cancel()
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	accessToken, _, err := e.codec.IssueAccess(principal.UserID, principal.Email, principal.Role)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	// Successful authentication clears the attempt counter so a user who
	// mistyped a few times does not stay one attempt from lockout.
	sctx, cancel = e.storeCtx(ctx)
	if err := e.rateLimiter.Reset(sctx, e.limitKey(ctx), CategoryLogin); err != nil {
		e.logger.Warn(ctx, "login attempt counter reset failed", "error", err)
	}
	cancel()

	e.metrics.Inc(MetricLoginSuccess)
	e.recordAudit(ctx, internalaudit.EventLoginSuccess, SeverityLow, principal.UserID, map[string]string{
		"family_id": familyID,
	})

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(e.config.JWT.AccessTTL).UTC(),
		RefreshExpiresAt: now.Add(e.config.JWT.RefreshTTL).UTC(),
	}, nil
}
