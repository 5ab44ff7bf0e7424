package authcore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

type stubVerifier struct {
	email     string
	password  string
	principal Principal
	err       error
}

func (v *stubVerifier) Verify(_ context.Context, email, password string) (*Principal, error) {
	if v.err != nil {
		return nil, v.err
	}
	if email != v.email || password != v.password {
		return nil, ErrInvalidCredentials
	}
	p := v.principal
	return &p, nil
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{
		email:    "user@example.com",
		password: "correct-password-123",
		principal: Principal{
			UserID: "user-1",
			Email:  "user@example.com",
			Role:   "member",
		},
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("test-secret-key-32-bytes-long!!!")
	// Keep flushes fast so tests can observe persisted audit events.
	cfg.Audit.FlushInterval = 50 * time.Millisecond
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, verifier CredentialVerifier) (*Engine, *internalaudit.MemoryStore, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := internalaudit.NewMemoryStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialVerifier(verifier).
		WithAuditStore(store).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, store, func() {
		engine.Close()
		mr.Close()
	}
}
