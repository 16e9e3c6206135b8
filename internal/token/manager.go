// Package token issues and verifies the bearer tokens that carry a caller's tenant identity.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskeri/taskeri/internal/shared"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unexpected algorithms.
	ErrInvalidToken = errors.New("token: invalid")
	// ErrExpiredToken is returned once the clock has passed the exp claim.
	ErrExpiredToken = errors.New("token: expired")
	// ErrMissingClaims is returned when sub, tenant_id, tenant_name or exp is absent.
	ErrMissingClaims = errors.New("token: missing claims")
	// ErrConfig is returned by NewManager for unusable settings.
	ErrConfig = errors.New("token: invalid configuration")
)

// Claims is the signed payload.
type Claims struct {
	TenantID   *int64 `json:"tenant_id,omitempty"`
	TenantName string `json:"tenant_name,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a Manager. algorithm must be one of HS256, HS384 or HS512.
func NewManager(secret, algorithm string, ttl time.Duration, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrConfig)
	}
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrConfig, algorithm)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: non-positive ttl", ErrConfig)
	}
	m := &Manager{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for a user of a tenant.
func (m *Manager) Issue(userID, tenantID int64, tenantName string) (string, error) {
	now := m.now()
	tid := tenantID
	claims := Claims{
		TenantID:   &tid,
		TenantName: tenantName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and claims of raw and returns the identity it carries.
func (m *Manager) Verify(raw string) (shared.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return shared.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return shared.Identity{}, ErrMissingClaims
	}
	if m.now().After(claims.ExpiresAt.Time) {
		return shared.Identity{}, ErrExpiredToken
	}
	if claims.Subject == "" || claims.TenantID == nil || claims.TenantName == "" {
		return shared.Identity{}, ErrMissingClaims
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return shared.Identity{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}

	return shared.Identity{
		UserID:     userID,
		TenantID:   *claims.TenantID,
		TenantName: claims.TenantName,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
