package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/csrf"
	"github.com/MrEthical07/authcore/family"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	internalrate "github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/logging"
	"github.com/MrEthical07/authcore/revocation"
)

// Engine is the session core. It orchestrates credential verification,
// token issuance and rotation, revocation, rate limiting, CSRF token
// management, and audit recording behind one façade.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config
	logger logging.Logger

	codec       *jwt.Manager
	families    *family.Tracker
	revoked     *revocation.List
	csrfGuard   *csrf.Guard
	rateLimiter *internalrate.Limiter
	audit       *internalaudit.Writer
	auditStore  AuditStore
	verifier    CredentialVerifier
	metrics     *Metrics
}

// storeCtx bounds remote-store round trips so a wedged Redis or Postgres
// cannot stall request handling indefinitely.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Store.Timeout)
}

func (e *Engine) limitKey(ctx context.Context) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return ip
	}
	return "unknown"
}

// checkRate runs the limiter for one request class. The limiter fails
// open; an infrastructure fault is logged and counted but the request
// proceeds with the in-process fallback verdict.
func (e *Engine) checkRate(ctx context.Context, category string) (RateResult, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	res, err := e.rateLimiter.Check(sctx, e.limitKey(ctx), category)
	if err != nil {
		if errors.Is(err, internalrate.ErrUnknownCategory) {
			return res, err
		}
		e.metrics.Inc(MetricRateLimiterFallback)
		e.logger.Warn(ctx, "rate limiter degraded to in-process fallback",
			"category", category, "error", err)
	}

	if res.Blocked {
		return res, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	return res, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()

	claims, err := e.codec.ParseAccess(accessToken)
	if err != nil {
		e.metrics.Inc(MetricValidateDenied)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sctx, cancel := e.storeCtx(ctx)
	revoked, err := e.revoked.IsRevoked(sctx, claims.ID)
	cancel()

	// The denylist fails closed. A store fault denies the request rather
	// than letting a possibly revoked token through.
	if revoked {
		e.metrics.Inc(MetricValidateDenied)
		if err != nil {
			e.logger.Error(ctx, "revocation check unavailable, denying request",
				"error", err)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		e.metrics.Inc(MetricRevocationHit)
		e.recordAudit(ctx, internalaudit.EventValidateDenied, SeverityMedium, claims.Subject, map[string]string{
			"token_id": claims.ID,
			"reason":   "revoked",
		})
		return nil, ErrTokenRevoked
	}

	e.metrics.Inc(MetricValidateSuccess)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	result := &AuthResult{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Close flushes buffered audit events and stops background goroutines.
// The engine must not be used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	e.rateLimiter.Close()
}
