package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
)

type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now overrides the clock, nil means time.Now.
	Now func() time.Time
}

// Claims carries the subject (user email) and its roles.
type Claims struct {
	Roles []string `json:"auth"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func New(cfg Config) (*Manager, error) {
	const op = "jwt.New"

	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%s: empty secret", op)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%s: ttl must be positive, got %s", op, cfg.TTL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    now,
	}, nil
}

// Issue returns a signed token for subject and the moment it stops being valid.
func (m *Manager) Issue(subject string, roles []string) (string, time.Time, error) {
	const op = "jwt.Issue"

	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, expiresAt, nil
}

// ExpirationOf reads the exp claim without checking the signature.
// It is meant for display only, never for authorization.
func (m *Manager) ExpirationOf(signed string) (time.Time, error) {
	const op = "jwt.ExpirationOf"

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(signed, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return exp.Time.UTC(), nil
}

// Verify checks the signature and the expiry and returns the embedded claims.
func (m *Manager) Verify(signed string) (*Claims, error) {
	const op = "jwt.Verify"

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		default:
			return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
		}
	}

	return claims, nil
}
