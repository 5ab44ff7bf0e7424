package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/MrEthical07/authcore"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, email, password string) (*authcore.Principal, error) {
	if email != "user@example.com" || password != "pw" {
		return nil, authcore.ErrInvalidCredentials
	}
	return &authcore.Principal{UserID: "user-1", Email: email, Role: "member"}, nil
}

func newTestEngine(t *testing.T) (*authcore.Engine, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := authcore.New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithCredentialVerifier(staticVerifier{}).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		mr.Close()
	}
}

func testConfig() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("middleware-secret-32-bytes-long!")
	cfg.Audit.Enabled = false
	return cfg
}

func TestRequireAuthHappyPath(t *testing.T) {
	engine, cleanup := newTestEngine(t)
	defer cleanup()

	pair, err := engine.Login(context.Background(), "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	var seen *authcore.AuthResult
	handler := RequireAuth(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AuthResultFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != "user-1" {
		t.Fatalf("expected identity in context, got %+v", seen)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	engine, cleanup := newTestEngine(t)
	defer cleanup()

	handler := RequireAuth(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer garbage"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAuthRevokedToken(t *testing.T) {
	engine, cleanup := newTestEngine(t)
	defer cleanup()

	pair, err := engine.Login(context.Background(), "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Logout(context.Background(), pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	handler := RequireAuth(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestCSRFProtect(t *testing.T) {
	engine, cleanup := newTestEngine(t)
	defer cleanup()

	token, err := engine.IssueCSRFToken(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("IssueCSRFToken failed: %v", err)
	}

	resolve := func(r *http.Request) (string, bool) {
		c, err := r.Cookie("sid")
		if err != nil {
			return "", false
		}
		return c.Value, true
	}

	handler := CSRFProtect(engine, resolve)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("safe method passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/form", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("post without token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "session-1"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("post with token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "session-1"})
		req.Header.Set(CSRFHeader, token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("valid bearer request exempt", func(t *testing.T) {
		pair, err := engine.Login(context.Background(), "user@example.com", "pw")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("invalid bearer not exempt", func(t *testing.T) {
		// A made-up Authorization header must not waive the session check.
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("no session rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(CSRFHeader, token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}
