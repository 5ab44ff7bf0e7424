package jwt

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-key-material-32-bytes"),
		Issuer:        "authcore-test",
		Audience:      "authcore-client",
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestAccessRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, jti, err := m.IssueAccess("u1", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if jti == "" {
		t.Fatal("expected non-empty jti")
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != jti {
		t.Fatalf("jti mismatch: issued %q parsed %q", jti, claims.ID)
	}
}

func TestRefreshMintsNewFamilyWhenEmpty(t *testing.T) {
	m := newTestManager(t)

	_, jti1, fam, err := m.IssueRefresh("u1", "admin@example.com", "admin", "")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	if fam == "" {
		t.Fatal("expected minted family id")
	}

	token2, jti2, fam2, err := m.IssueRefresh("u1", "admin@example.com", "admin", fam)
	if err != nil {
		t.Fatalf("IssueRefresh rotation failed: %v", err)
	}
	if fam2 != fam {
		t.Fatalf("rotation changed family: %q vs %q", fam2, fam)
	}
	if jti2 == jti1 {
		t.Fatal("rotation reused jti")
	}

	claims, err := m.ParseRefresh(token2)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.FamilyID != fam || claims.ID != jti2 {
		t.Fatalf("unexpected refresh claims: %+v", claims)
	}
	if claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Fatalf("refresh claims lost identity: %+v", claims)
	}
}

func TestParseEnforcesTokenType(t *testing.T) {
	m := newTestManager(t)

	access, _, err := m.IssueAccess("u1", "a@b.c", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	refresh, _, _, err := m.IssueRefresh("u1", "a@b.c", "admin", "")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	// Both kinds share a signing key, so the typ claim is the only thing
	// keeping a long-lived refresh token out of bearer position.
	if _, err := m.ParseAccess(refresh); err == nil {
		t.Fatal("ParseAccess accepted a refresh token")
	}
	if _, err := m.ParseRefresh(access); err == nil {
		t.Fatal("ParseRefresh accepted an access token")
	}
}

func TestParseRejectsForeignAlgorithm(t *testing.T) {
	m := newTestManager(t)

	// Same secret, different algorithm family. Must be rejected by the
	// method allow-list regardless of a valid signature.
	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, AccessClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        "x",
			Subject:   "u1",
			Issuer:    "authcore-test",
			Audience:  jwtlib.ClaimStrings{"authcore-client"},
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := foreign.SignedString([]byte("test-secret-key-material-32-bytes"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := m.ParseAccess(signed); err == nil {
		t.Fatal("expected rejection of HS512-signed token")
	}
}

func TestParseRejectsExpiredAndWrongIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Millisecond
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, _, err := m.IssueAccess("u1", "a@b.c", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected expired token rejection")
	}

	other, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-key-material-32-bytes"),
		Issuer:        "someone-else",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	stranger, _, err := other.IssueAccess("u1", "a@b.c", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := newTestManager(t).ParseAccess(stranger); err == nil {
		t.Fatal("expected wrong-issuer rejection")
	}
}

func TestExtractTokenIDWorksOnExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Millisecond
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, jti, err := m.IssueAccess("u1", "a@b.c", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	got, ok := m.ExtractTokenID(token)
	if !ok || got != jti {
		t.Fatalf("ExtractTokenID = %q, %v; want %q, true", got, ok, jti)
	}

	if _, ok := m.ExtractTokenID("not-a-token"); ok {
		t.Fatal("expected failure on garbage input")
	}
}

func TestExtractRefreshFamily(t *testing.T) {
	m := newTestManager(t)

	token, jti, fam, err := m.IssueRefresh("u1", "a@b.c", "member", "")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	gotJTI, gotFam, ok := m.ExtractRefreshFamily(token)
	if !ok || gotJTI != jti || gotFam != fam {
		t.Fatalf("ExtractRefreshFamily = %q, %q, %v; want %q, %q", gotJTI, gotFam, ok, jti, fam)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Second; c.AccessTTL = time.Minute }},
		{"empty issuer", func(c *Config) { c.Issuer = "  " }},
		{"missing hs256 key", func(c *Config) { c.PrivateKey = nil }},
		{"unknown method", func(c *Config) { c.SigningMethod = "rs256" }},
		{"excessive leeway", func(c *Config) { c.Leeway = 10 * time.Minute }},
	}

	for _, tc := range cases {
		cfg := testConfig()
		tc.mutate(&cfg)
		if _, err := NewManager(cfg); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := newTestManager(t)

	token, _, err := m.IssueAccess("u1", "a@b.c", "admin")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("expected tampered signature rejection")
	}
}
