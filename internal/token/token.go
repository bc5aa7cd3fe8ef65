// Package token issues and validates signed, time-limited capability tokens
// that wrap a content identifier.
//
// Tokens are HS256 JWTs carrying the content id as subject, the issue time,
// and the namespace as audience. The signing key is derived from the shared
// secret and the namespace, so a token minted for one namespace never
// verifies in another. Nothing is persisted: validity is computed from the
// signed payload and the clock.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leca/loqed-births/internal/apperr"
)

// ImageNamespace is the namespace reserved for image capabilities.
const ImageNamespace = "image_salt"

// Service signs and verifies capability tokens for one namespace.
type Service struct {
	key       []byte
	namespace string
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service for namespace signing with secret.
func New(secret, namespace string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if namespace == "" {
		return nil, errors.New("token: namespace is required")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(namespace))

	s := &Service{
		key:       mac.Sum(nil),
		namespace: namespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs contentID together with the current time.
func (s *Service) Issue(contentID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  contentID,
		Audience: jwt.ClaimStrings{s.namespace},
		IssuedAt: jwt.NewNumericDate(s.now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tok and returns the content id it carries. It fails with
// apperr.ErrTokenInvalid when the signature does not verify, the namespace
// does not match, or more than window has passed since the token was issued.
func (s *Service) Validate(tok string, window time.Duration) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.namespace),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTokenInvalid, "invalid or expired token", err)
	}
	if !parsed.Valid || claims.IssuedAt == nil || claims.Subject == "" {
		return "", apperr.New(apperr.KindTokenInvalid, "invalid or expired token")
	}
	// iat carries whole seconds, so compare at the same precision.
	if s.now().Truncate(time.Second).Sub(claims.IssuedAt.Time) > window {
		return "", apperr.New(apperr.KindTokenInvalid, "invalid or expired token")
	}
	return claims.Subject, nil
}
