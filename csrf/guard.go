package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the CSRF guard.
var ErrRedisUnavailable = errors.New("redis unavailable")

const tokenRawSize = 32

// Guard issues and validates session-scoped anti-forgery tokens.
//
// The guard protects a trust boundary, so it fails closed: any store fault
// during validation denies the request.
type Guard struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a CSRF [Guard] backed by the given Redis client. ttl is the
// lifetime of issued tokens, on the order of one session.
func New(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *Guard {
	if prefix == "" {
		prefix = "csrf"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (g *Guard) key(sessionID string) string {
	return g.prefix + ":" + sessionID
}

// Issue mints a high-entropy token for the session and stores it with the
// guard's TTL. Re-issuing replaces the previous token.
//
//	Performance: 1 Redis SET.
func (g *Guard) Issue(ctx context.Context, sessionID string) (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw[:])

	if err := g.redis.Set(ctx, g.key(sessionID), token, g.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return token, nil
}

// Validate compares the presented token against the stored value in constant
// time. Absent, mismatched, and store-fault cases all report false.
//
//	Performance: 1 Redis GET.
func (g *Guard) Validate(ctx context.Context, sessionID, presented string) (bool, error) {
	if presented == "" {
		return false, nil
	}

	stored, err := g.redis.Get(ctx, g.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return false, nil
	}

	return true, nil
}

// Revoke drops the session's token. Used when the session ends.
func (g *Guard) Revoke(ctx context.Context, sessionID string) error {
	if err := g.redis.Del(ctx, g.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
