package authcore

import (
	"errors"

	"github.com/MrEthical07/authcore/csrf"
	"github.com/MrEthical07/authcore/family"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	internalrate "github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/logging"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	verifier   CredentialVerifier
	auditStore AuditStore
	logger     logging.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialVerifier describes the withcredentialverifier operation and its observable behavior.
//
// WithCredentialVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditStore describes the withauditstore operation and its observable behavior.
//
// WithAuditStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditStore(store AuditStore) *Builder {
	b.auditStore = store
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.verifier == nil {
		return nil, errors.New("credential verifier required")
	}

	if cfg.Audit.Enabled && b.auditStore == nil {
		return nil, errors.New("audit store required when auditing is enabled")
	}

	logger := b.logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- RATE LIMITER --------
	categories := make(map[string]internalrate.Category, len(cfg.RateLimit.Categories))
	for name, cat := range cfg.RateLimit.Categories {
		categories[name] = internalrate.Category{
			Window:        cat.Window,
			Max:           cat.Max,
			BlockDuration: cat.BlockDuration,
		}
	}

	engine := &Engine{
		config:     cfg,
		logger:     logger,
		codec:      codec,
		families:   family.New(b.redis, cfg.Family.RedisPrefix),
		revoked:    revocation.New(b.redis, cfg.Revocation.RedisPrefix),
		csrfGuard:  csrf.New(b.redis, cfg.CSRF.RedisPrefix, cfg.CSRF.TokenTTL),
		verifier:   b.verifier,
		auditStore: b.auditStore,
		metrics:    NewMetrics(cfg.Metrics),
	}

	engine.rateLimiter = internalrate.New(b.redis, internalrate.Config{
		Categories:         categories,
		Prefix:             cfg.RateLimit.RedisPrefix,
		FallbackMaxKeys:    cfg.RateLimit.FallbackMaxKeys,
		FallbackPruneEvery: cfg.RateLimit.FallbackPruneEvery,
	})

	engine.audit = internalaudit.NewWriter(internalaudit.WriterConfig{
		Enabled:       cfg.Audit.Enabled,
		BufferSize:    cfg.Audit.BufferSize,
		FlushInterval: cfg.Audit.FlushInterval,
		FlushTimeout:  cfg.Audit.FlushTimeout,
	}, b.auditStore)

	b.built = true

	return engine, nil
}
