package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// ephemeralSecretBytes sizes the random secret at 256 bits.
const ephemeralSecretBytes = 32

// TokenRepository is the persistence surface the ephemeral store needs.
type TokenRepository interface {
	// ReplaceEphemeralToken atomically marks prior unconsumed tokens of the
	// same user and class as used and inserts the new row.
	ReplaceEphemeralToken(ctx context.Context, token EphemeralToken) error
	// ConsumeEphemeralToken atomically marks the token used and returns the
	// owning user id. Exactly one concurrent caller may succeed; the rest
	// observe ErrTokenAlreadyUsed. Failures are ErrTokenNotFound,
	// ErrTokenAlreadyUsed or ErrTokenExpired.
	ConsumeEphemeralToken(ctx context.Context, secret string, class TokenClass, now time.Time) (int64, error)
}

// EphemeralStore generates and consumes single-use opaque tokens for the
// verification and reset flows. The plaintext secret is visible only in the
// return value of Issue and must never be logged.
type EphemeralStore struct {
	repo            TokenRepository
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// NewEphemeralStore constructs an EphemeralStore with per-class lifetimes.
func NewEphemeralStore(repo TokenRepository, verificationTTL, resetTTL time.Duration) *EphemeralStore {
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &EphemeralStore{repo: repo, verificationTTL: verificationTTL, resetTTL: resetTTL}
}

// Issue creates a fresh token for the user, superseding any unconsumed token
// of the same class, and returns the plaintext secret.
func (s *EphemeralStore) Issue(ctx context.Context, userID int64, class TokenClass, now time.Time) (string, error) {
	ttl, err := s.ttl(class)
	if err != nil {
		return "", err
	}
	secret, err := newSecret()
	if err != nil {
		return "", err
	}
	token := EphemeralToken{
		UserID:    userID,
		Token:     secret,
		Class:     class,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.repo.ReplaceEphemeralToken(ctx, token); err != nil {
		return "", fmt.Errorf("auth: issue ephemeral token: %w", err)
	}
	return secret, nil
}

// Consume redeems a secret. On success the token is marked used and the
// owning user id is returned.
func (s *EphemeralStore) Consume(ctx context.Context, secret string, class TokenClass, now time.Time) (int64, error) {
	return s.repo.ConsumeEphemeralToken(ctx, secret, class, now)
}

func (s *EphemeralStore) ttl(class TokenClass) (time.Duration, error) {
	switch class {
	case ClassVerification:
		return s.verificationTTL, nil
	case ClassReset:
		return s.resetTTL, nil
	default:
		return 0, fmt.Errorf("auth: no ephemeral lifetime for class %q", class)
	}
}

// newSecret draws a URL-safe secret from a cryptographically secure source.
func newSecret() (string, error) {
	buf := make([]byte, ephemeralSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
