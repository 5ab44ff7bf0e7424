package authcore

import (
	"context"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// Logout retires the presented tokens: the access token id goes on the
// denylist for its remaining validity and the refresh token's family is
// revoked. Logout is best-effort by contract; malformed or expired tokens
// are logged and skipped, and the call always succeeds.
//
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	var subjectID string

	if accessToken != "" {
		if tokenID, ok := e.codec.ExtractTokenID(accessToken); ok {
			e.denylist(ctx, tokenID, e.config.JWT.AccessTTL+e.config.Revocation.Buffer)
		} else {
			e.logger.Info(ctx, "logout with unparseable access token")
		}
		if claims, err := e.codec.ParseAccess(accessToken); err == nil {
			subjectID = claims.Subject
		}
	}

	if refreshToken != "" {
		tokenID, familyID, ok := e.codec.ExtractRefreshFamily(refreshToken)
		if ok {
			sctx, cancel := e.storeCtx(ctx)
			if err := e.families.Revoke(sctx, familyID); err != nil {
				e.logger.Error(ctx, "family revoke failed on logout",
					"family_id", familyID, "error", err)
			}
			cancel()

			e.denylist(ctx, tokenID, e.config.JWT.RefreshTTL+e.config.Revocation.Buffer)
		} else {
			e.logger.Info(ctx, "logout with unparseable refresh token")
		}
	}

	e.metrics.Inc(MetricLogout)
	e.recordAudit(ctx, internalaudit.EventLogout, SeverityLow, subjectID, nil)

	return nil
}
