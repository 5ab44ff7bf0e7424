package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestList(t *testing.T) (*List, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, "rvk"), mr
}

func TestRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestList(t)

	revoked, err := l.IsRevoked(ctx, "t1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh id reported revoked")
	}

	if err := l.Revoke(ctx, "t1", time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err = l.IsRevoked(ctx, "t1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("revoked id not reported")
	}
}

func TestEntryExpires(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestList(t)

	if err := l.Revoke(ctx, "t1", time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := l.IsRevoked(ctx, "t1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("entry survived its TTL")
	}
}

func TestIsRevokedFailsClosed(t *testing.T) {
	l, mr := newTestList(t)
	mr.Close()

	revoked, err := l.IsRevoked(context.Background(), "t1")
	if !revoked {
		t.Fatal("expected revoked=true when store is unreachable")
	}
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
