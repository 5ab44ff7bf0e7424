package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/family"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// Refresh rotates the presented refresh token: the family record advances
// to a newly minted token id and the presented id is retired. Presenting
// an already-rotated token is treated as theft; the whole family is
// invalidated and the caller gets [ErrTokenRevoked].
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.ParseRefresh(refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if _, err := e.checkRate(ctx, CategoryAPI); err != nil {
		e.metrics.Inc(MetricRefreshRateLimited)
		e.recordAudit(ctx, internalaudit.EventRefreshDenied, SeverityMedium, claims.Subject, map[string]string{
			"family_id": claims.FamilyID,
			"reason":    "rate_limited",
		})
		return nil, err
	}

	now := time.Now()

	newRefresh, newID, _, err := e.codec.IssueRefresh(claims.Subject, claims.Email, claims.Role, claims.FamilyID)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	previousID, err := e.families.Rotate(sctx, claims.FamilyID, claims.ID, newID)
	cancel()
	if err != nil {
		return nil, e.refreshRotateFailure(ctx, claims.FamilyID, claims.Subject, claims.ID, err)
	}

	// Retire the consumed token id. Rotation already moved the family
	// forward, so a failure here only shortens the denylist, not safety
	// of the rotation itself.
	e.denylist(ctx, previousID, e.config.JWT.RefreshTTL+e.config.Revocation.Buffer)

	accessToken, _, err := e.codec.IssueAccess(claims.Subject, claims.Email, claims.Role)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.recordAudit(ctx, internalaudit.EventTokenRefreshed, SeverityLow, claims.Subject, map[string]string{
		"family_id": claims.FamilyID,
	})

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     newRefresh,
		AccessExpiresAt:  now.Add(e.config.JWT.AccessTTL).UTC(),
		RefreshExpiresAt: now.Add(e.config.JWT.RefreshTTL).UTC(),
	}, nil
}

func (e *Engine) refreshRotateFailure(ctx context.Context, familyID, subjectID, presentedID string, err error) error {
	switch {
	case errors.Is(err, family.ErrTokenMismatch):
		// Reuse of an already-rotated token. The tracker has deleted the
		// family record; denylist the presented id too so it cannot be
		// replayed against a recreated family.
		e.denylist(ctx, presentedID, e.config.JWT.RefreshTTL+e.config.Revocation.Buffer)
		e.metrics.Inc(MetricRefreshReuseDetected)
		e.recordAudit(ctx, internalaudit.EventRefreshReuse, SeverityCritical, subjectID, map[string]string{
			"family_id": familyID,
			"token_id":  presentedID,
		})
		e.logger.Warn(ctx, "refresh token reuse detected, family invalidated",
			"family_id", familyID, "subject_id", subjectID)
		return ErrTokenRevoked

	case errors.Is(err, family.ErrFamilyNotFound),
		errors.Is(err, family.ErrFamilyExpired),
		errors.Is(err, family.ErrRecordCorrupt):
		e.metrics.Inc(MetricRefreshFailure)
		e.recordAudit(ctx, internalaudit.EventRefreshDenied, SeverityMedium, subjectID, map[string]string{
			"family_id": familyID,
			"reason":    "family_gone",
		})
		return ErrTokenRevoked

	default:
		// Store fault. Fail closed; the caller retries or re-authenticates.
		e.metrics.Inc(MetricRefreshFailure)
		e.logger.Error(ctx, "family rotation unavailable", "family_id", familyID, "error", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// denylist adds a token id to the revocation list, logging failures
// instead of surfacing them.
func (e *Engine) denylist(ctx context.Context, tokenID string, ttl time.Duration) {
	if tokenID == "" {
		return
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.revoked.Revoke(sctx, tokenID, ttl); err != nil {
		e.logger.Error(ctx, "token denylist write failed", "token_id", tokenID, "error", err)
	}
}
