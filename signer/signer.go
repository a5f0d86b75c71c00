// Package signer issues and verifies HMAC-signed tokens that carry a subject
// and their issue time. A token is accepted only while its age is within the
// signer's max age, and only by a signer configured for the same purpose.
package signer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid is returned for malformed tokens, bad signatures, or a purpose mismatch.
	ErrInvalid = errors.New("invalid token")

	// ErrExpired is returned when a correctly signed token is older than the max age.
	ErrExpired = errors.New("token expired")
)

// Claims is what a verified token carries.
type Claims struct {
	Subject  string
	ID       string
	IssuedAt time.Time
}

// Signer signs subjects for one purpose, e.g. "reset-password" or "session".
type Signer struct {
	secret  []byte
	purpose string
	maxAge  time.Duration
	now     func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New returns a Signer. The secret is copied.
func New(secret, purpose string, maxAge time.Duration, opts ...Option) *Signer {
	s := &Signer{
		secret:  append([]byte(nil), secret...),
		purpose: purpose,
		maxAge:  maxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAge returns how long issued tokens stay valid.
func (s *Signer) MaxAge() time.Duration {
	return s.maxAge
}

// Issue signs subject together with the current time and a random id.
func (s *Signer) Issue(subject string) (string, Claims, error) {
	issued := jwt.NewNumericDate(s.now())
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Audience: jwt.ClaimStrings{s.purpose},
		IssuedAt: issued,
		ID:       uuid.NewString(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return raw, Claims{Subject: subject, ID: claims.ID, IssuedAt: issued.Time}, nil
}

// Verify checks the signature and purpose, then rejects tokens whose age
// exceeds the max age. Tampered and expired tokens both fail; callers that
// must not tell them apart can treat every error the same.
func (s *Signer) Verify(raw string) (Claims, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.purpose),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: missing issue time", ErrInvalid)
	}

	issued := claims.IssuedAt.Time
	// iat has whole-second precision
	if age := s.now().Truncate(time.Second).Sub(issued); age > s.maxAge {
		return Claims{}, fmt.Errorf("%w: age %s exceeds %s", ErrExpired, age.Truncate(time.Second), s.maxAge)
	}

	return Claims{Subject: claims.Subject, ID: claims.ID, IssuedAt: issued}, nil
}
