// Package session mints and validates stateless bearer tokens for authenticated users.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrSessionExpired is returned for a well-formed, authentic token past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionMalformed is returned when the value is not a token at all.
	ErrSessionMalformed = errors.New("session token malformed")
	// ErrSessionUnknown is returned for tokens this service did not issue.
	ErrSessionUnknown = errors.New("session token unknown")
)

// Session is an issued bearer token and the identity it is bound to.
type Session struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs HS256 JWTs carrying the user id in sub.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer builds an Issuer. The secret must be non-empty and ttl at least one second.
func NewIssuer(secret string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl < time.Second {
		return nil, fmt.Errorf("session ttl %s is too short", ttl)
	}
	i := &Issuer{secret: []byte(secret), ttl: ttl.Truncate(time.Second), now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// TTL is the lifetime of issued sessions.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a token for userID valid for the configured TTL.
func (i *Issuer) Issue(userID string) (*Session, error) {
	// JWT timestamps have second precision.
	iat := i.now().Truncate(time.Second)
	exp := iat.Add(i.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{Token: token, UserID: userID, IssuedAt: iat, ExpiresAt: exp}, nil
}

// Validate returns the user id bound to token.
// The token is rejected once now > exp regardless of any other state; exp itself is still valid.
func (i *Issuer) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrSessionMalformed
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		// jwt treats now == exp as expired; one nanosecond of leeway moves the cut to now > exp.
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", ErrSessionMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrSessionExpired
	default:
		return "", fmt.Errorf("%w: %v", ErrSessionUnknown, err)
	}

	if claims.Subject == "" {
		return "", ErrSessionUnknown
	}
	return claims.Subject, nil
}
