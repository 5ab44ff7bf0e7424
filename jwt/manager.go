package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the single algorithm the Manager signs and accepts.
// There is no negotiation: tokens signed with any other algorithm are
// rejected at verify time.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Curve25519.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
)

// Config holds token issuance and verification parameters.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Manager signs and verifies the compact claim sets carried by access and
// refresh tokens. Every issued token gets a fresh unique jti.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// Token type discriminators. Both token kinds are signed with the same
// key, so the typ claim is what keeps a refresh token from doubling as a
// bearer credential.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims is the claim set carried by a bearer access token.
// Subject, ID (jti), expiry, issuer, and audience live in RegisteredClaims.
type AccessClaims struct {
	TokenType string `json:"typ"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set carried by a refresh token. FamilyID links
// every token descended from one login; ID (jti) is unique per issuance.
// Email and Role ride along so rotation can re-mint access tokens without
// a principal lookup.
type RefreshClaims struct {
	TokenType string `json:"typ"`
	FamilyID  string `json:"fid"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates the configuration and returns a token [Manager].
//
// NewManager may return an error when input validation fails.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("issuer required")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs a short-lived access token for the subject and returns
// the compact token string plus the minted jti.
//
// IssueAccess may return an error when signing fails.
// IssueAccess does not mutate shared global state and can be used concurrently.
func (j *Manager) IssueAccess(subjectID, email, role string) (string, string, error) {
	tokenID := uuid.NewString()
	now := time.Now()

	claims := AccessClaims{
		TokenType: tokenTypeAccess,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	signed, err := j.sign(claims)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}

// IssueRefresh signs a refresh token for the subject. An empty familyID
// mints a new random family (new login); a non-empty familyID reuses the
// chain (rotation). The jti is always new and distinct.
//
// IssueRefresh may return an error when signing fails.
// IssueRefresh does not mutate shared global state and can be used concurrently.
func (j *Manager) IssueRefresh(subjectID, email, role, familyID string) (string, string, string, error) {
	if familyID == "" {
		familyID = uuid.NewString()
	}
	tokenID := uuid.NewString()
	now := time.Now()

	claims := RefreshClaims{
		TokenType: tokenTypeRefresh,
		FamilyID:  familyID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	signed, err := j.sign(claims)
	if err != nil {
		return "", "", "", err
	}
	return signed, tokenID, familyID, nil
}

// ParseAccess verifies signature, algorithm, token type, issuer, audience,
// and expiry, and returns the decoded [AccessClaims]. Callers must not
// reveal which check failed in externally visible errors.
func (j *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// ParseRefresh verifies signature, algorithm, token type, issuer, audience,
// and expiry, and returns the decoded [RefreshClaims].
func (j *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, errors.New("not a refresh token")
	}
	if claims.FamilyID == "" {
		return nil, errors.New("missing family id")
	}
	return claims, nil
}

// ExtractTokenID decodes the jti without verifying the signature. Used for
// revocation bookkeeping on tokens that may otherwise be invalid; never
// trust any other claim obtained this way.
func (j *Manager) ExtractTokenID(tokenStr string) (string, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return "", false
	}
	if claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}

// ExtractRefreshFamily decodes jti and family id without verifying the
// signature. Best-effort, for logout bookkeeping only.
func (j *Manager) ExtractRefreshFamily(tokenStr string) (string, string, bool) {
	claims := RefreshClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return "", "", false
	}
	if claims.ID == "" || claims.FamilyID == "" {
		return "", "", false
	}
	return claims.ID, claims.FamilyID, true
}

func (j *Manager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(j.getMethod(), claims)

	signKey, err := j.getSignKey()
	if err != nil {
		return "", err
	}

	return token.SignedString(signKey)
}

func (j *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.getMethod().Alg()}),
		jwt.WithIssuer(j.config.Issuer),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.getVerifyKey()
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	return nil
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (j *Manager) getSignKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(j.config.PrivateKey)
	}
}

func (j *Manager) getVerifyKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		if len(j.config.PublicKey) > 0 {
			return parseEdPublicKey(j.config.PublicKey)
		}
		priv, err := parseEdPrivateKey(j.config.PrivateKey)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
