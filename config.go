package authcore

import (
	"errors"
	"time"
)

// Rate-limit categories understood by the default configuration. Custom
// categories may be added through [RateLimitConfig.Categories].
const (
	// CategoryLogin throttles credential attempts per client IP.
	CategoryLogin = "login"
	// CategoryAPI throttles token refresh and general API usage per client IP.
	CategoryAPI = "api"
	// CategoryAdmin throttles privileged operations per client IP.
	CategoryAdmin = "admin"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Family     FamilyConfig
	Revocation RevocationConfig
	RateLimit  RateLimitConfig
	CSRF       CSRFConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Store      StoreConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authcore APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
FAMILY CONFIG
====================================
*/

// FamilyConfig defines a public type used by authcore APIs.
//
// FamilyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FamilyConfig struct {
	RedisPrefix string
	// GracePeriod extends the family record TTL past the refresh token
	// lifetime so reuse of a just-expired token is still detectable.
	GracePeriod time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig defines a public type used by authcore APIs.
//
// RevocationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RevocationConfig struct {
	RedisPrefix string
	// Buffer extends denylist TTLs past the remaining token validity.
	Buffer time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateCategory holds the budget for one request class.
type RateCategory struct {
	Window        time.Duration
	Max           int
	BlockDuration time.Duration
}

// RateLimitConfig defines a public type used by authcore APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	RedisPrefix        string
	Categories         map[string]RateCategory
	FallbackMaxKeys    int
	FallbackPruneEvery time.Duration
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig defines a public type used by authcore APIs.
//
// CSRFConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CSRFConfig struct {
	RedisPrefix string
	TokenTTL    time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled       bool
	BufferSize    int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records validate latency
	// buckets. Off by default; the write path stays allocation-free
	// either way.
	EnableLatencyHistograms bool
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by authcore APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	// Timeout bounds every remote-store round trip made by the engine.
	Timeout time.Duration
}

// DefaultConfig returns the baseline configuration. Callers override the
// fields they care about (key material at minimum) and pass the result to
// [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Issuer:        "authcore",
		},
		Family: FamilyConfig{
			RedisPrefix: "fam",
			GracePeriod: 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "rvk",
			Buffer:      5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix: "rl",
			Categories: map[string]RateCategory{
				CategoryLogin: {Window: time.Minute, Max: 5, BlockDuration: 15 * time.Minute},
				CategoryAPI:   {Window: time.Minute, Max: 100, BlockDuration: 5 * time.Minute},
				CategoryAdmin: {Window: time.Minute, Max: 30, BlockDuration: 10 * time.Minute},
			},
			FallbackMaxKeys:    10000,
			FallbackPruneEvery: time.Minute,
		},
		CSRF: CSRFConfig{
			RedisPrefix: "csrf",
			TokenTTL:    24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:       true,
			BufferSize:    1024,
			FlushInterval: time.Minute,
			FlushTimeout:  5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Store: StoreConfig{
			Timeout: 3 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.RateLimit.Categories != nil {
		out.RateLimit.Categories = make(map[string]RateCategory, len(cfg.RateLimit.Categories))
		for name, cat := range cfg.RateLimit.Categories {
			out.RateLimit.Categories[name] = cat
		}
	}
	if cfg.JWT.PrivateKey != nil {
		out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	}
	if cfg.JWT.PublicKey != nil {
		out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	}

	return out
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("jwt TTLs must be positive")
	}
	if cfg.Family.GracePeriod < 0 {
		return errors.New("family grace period must not be negative")
	}
	if cfg.Revocation.Buffer < 0 {
		return errors.New("revocation buffer must not be negative")
	}
	if len(cfg.RateLimit.Categories) == 0 {
		return errors.New("at least one rate limit category required")
	}
	for name, cat := range cfg.RateLimit.Categories {
		if name == "" {
			return errors.New("rate limit category name must not be empty")
		}
		if cat.Window <= 0 || cat.Max <= 0 || cat.BlockDuration <= 0 {
			return errors.New("rate limit category " + name + " must have positive window, max, and block duration")
		}
	}
	if _, ok := cfg.RateLimit.Categories[CategoryLogin]; !ok {
		return errors.New("rate limit category \"login\" required")
	}
	if _, ok := cfg.RateLimit.Categories[CategoryAPI]; !ok {
		return errors.New("rate limit category \"api\" required")
	}
	if cfg.CSRF.TokenTTL <= 0 {
		return errors.New("csrf token TTL must be positive")
	}
	if cfg.Audit.Enabled {
		if cfg.Audit.BufferSize <= 0 {
			return errors.New("audit buffer size must be positive")
		}
		if cfg.Audit.FlushInterval <= 0 {
			return errors.New("audit flush interval must be positive")
		}
	}
	if cfg.Store.Timeout <= 0 {
		return errors.New("store timeout must be positive")
	}

	return nil
}
