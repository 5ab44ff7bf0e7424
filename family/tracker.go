package family

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrFamilyNotFound is returned when the rotation target family does not exist.
var ErrFamilyNotFound = errors.New("token family not found")

// ErrFamilyExpired is returned when the rotation target family has expired.
var ErrFamilyExpired = errors.New("token family expired")

// ErrTokenMismatch is returned when the presented token id is not the
// family's current id. The record is already deleted when this is returned;
// the caller must treat it as proof of refresh-token reuse.
var ErrTokenMismatch = errors.New("refresh token id mismatch")

// ErrRecordCorrupt is returned when the stored family record cannot be parsed.
var ErrRecordCorrupt = errors.New("family record corrupt")

// ErrRedisUnavailable is an exported constant or variable used by the family tracker.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
	rotateStatusCorrupt  int64 = 4
)

// Record layout: "<currentTokenID>:<createdAtUnix>:<updatedAtUnix>:<subjectID>".
// Token ids are UUIDs and timestamps are digits, so only the trailing subject
// field may contain arbitrary bytes.
const rotateFamilyScript = `
local key = KEYS[1]
local provided = ARGV[1]
local next_id = ARGV[2]
local now_unix = ARGV[3]

local data = redis.call("GET", key)
if not data then
  return {0}
end

local current, created, updated, subject = string.match(data, "^([^:]*):([^:]*):([^:]*):(.*)$")
if not current or current == "" then
  redis.call("DEL", key)
  return {4}
end

if current ~= provided then
  redis.call("DEL", key)
  return {2, current}
end

local ttl = redis.call("PTTL", key)
if ttl <= 0 then
  redis.call("DEL", key)
  return {1}
end

redis.call("SET", key, next_id .. ":" .. created .. ":" .. now_unix .. ":" .. subject, "PX", ttl)
return {3, current}
`

var rotateFamilyLua = redis.NewScript(rotateFamilyScript)

// Record is the stored state of one refresh-token family. At most one
// CurrentTokenID is valid per family at any time; presenting any other id
// is proof of reuse.
type Record struct {
	FamilyID       string
	SubjectID      string
	CurrentTokenID string
	CreatedAt      int64
	UpdatedAt      int64
}

// Tracker tracks refresh-token rotation chains in Redis and detects reuse.
// Rotation is a single Lua compare-and-swap: concurrent duplicate refresh
// calls produce exactly one winner.
type Tracker struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a family [Tracker] backed by the given Redis client.
func New(redisClient redis.UniversalClient, prefix string) *Tracker {
	if prefix == "" {
		prefix = "fam"
	}
	return &Tracker{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (t *Tracker) key(familyID string) string {
	return t.prefix + ":" + familyID
}

func encodeRecord(rec *Record) string {
	return rec.CurrentTokenID + ":" +
		strconv.FormatInt(rec.CreatedAt, 10) + ":" +
		strconv.FormatInt(rec.UpdatedAt, 10) + ":" +
		rec.SubjectID
}

func decodeRecord(familyID, data string) (*Record, error) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 || parts[0] == "" {
		return nil, ErrRecordCorrupt
	}

	created, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrRecordCorrupt
	}
	updated, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrRecordCorrupt
	}

	return &Record{
		FamilyID:       familyID,
		SubjectID:      parts[3],
		CurrentTokenID: parts[0],
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, nil
}

// Begin creates the family record for a fresh login. currentTokenID is the
// jti of the refresh token just issued for this family.
//
//	Performance: 1 Redis SET.
func (t *Tracker) Begin(ctx context.Context, familyID, subjectID, currentTokenID string, ttl time.Duration) error {
	now := time.Now().Unix()
	rec := &Record{
		FamilyID:       familyID,
		SubjectID:      subjectID,
		CurrentTokenID: currentTokenID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := t.redis.Set(ctx, t.key(familyID), encodeRecord(rec), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Rotate atomically swaps the family's current token id from presentedTokenID
// to nextTokenID and returns the replaced id so the caller can denylist it.
//
// A mismatched presented id means the chain was already advanced: the record
// is deleted inside the script (terminal revocation) and [ErrTokenMismatch]
// is returned. The whole read-compare-write is one Lua round trip, so a
// cancelled call either completes the swap or leaves the prior state intact.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (t *Tracker) Rotate(ctx context.Context, familyID, presentedTokenID, nextTokenID string) (string, error) {
	result, err := rotateFamilyLua.Run(
		ctx,
		t.redis,
		[]string{t.key(familyID)},
		presentedTokenID,
		nextTokenID,
		time.Now().Unix(),
	).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return "", fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return "", ErrFamilyNotFound
	case rotateStatusExpired:
		return "", ErrFamilyExpired
	case rotateStatusMismatch:
		return "", ErrTokenMismatch
	case rotateStatusRotated:
		if len(parts) < 2 {
			return "", fmt.Errorf("%w: missing previous token id", ErrRedisUnavailable)
		}
		previous, ok := parts[1].(string)
		if !ok {
			return "", fmt.Errorf("%w: invalid previous token id", ErrRedisUnavailable)
		}
		return previous, nil
	case rotateStatusCorrupt:
		return "", ErrRecordCorrupt
	default:
		return "", fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Revoke deletes the family record. Used on logout; deleting an absent
// family is not an error.
//
//	Performance: 1 Redis DEL.
func (t *Tracker) Revoke(ctx context.Context, familyID string) error {
	if err := t.redis.Del(ctx, t.key(familyID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get fetches the family record without mutating TTL or state.
func (t *Tracker) Get(ctx context.Context, familyID string) (*Record, error) {
	data, err := t.redis.Get(ctx, t.key(familyID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return decodeRecord(familyID, data)
}
