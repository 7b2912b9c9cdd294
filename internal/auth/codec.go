package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/furu-identity/furu-identity/internal/shared"
)

// SessionClaims are the claims carried by access and refresh tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	Class string `json:"cls"`
}

// UserID returns the subject claim as a user id.
func (c *SessionClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, shared.ErrInvalidToken
	}
	return id, nil
}

// Codec issues and parses signed session tokens. The current time is always
// supplied by the caller so expiry can be exercised with synthetic clocks.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec constructs a Codec with the process-wide signing secret.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Issue signs a token of the given class with its default lifetime.
func (c *Codec) Issue(userID int64, class TokenClass, now time.Time) (string, error) {
	switch class {
	case ClassAccess:
		return c.IssueWithTTL(userID, class, now, c.accessTTL)
	case ClassRefresh:
		return c.IssueWithTTL(userID, class, now, c.refreshTTL)
	default:
		return "", shared.ErrInvalidToken
	}
}

// IssueWithTTL signs a token of the given class with an explicit lifetime.
func (c *Codec) IssueWithTTL(userID int64, class TokenClass, now time.Time, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Class: string(class),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse validates signature, expiry and token class. Any failure collapses to
// ErrInvalidToken so callers cannot distinguish a forged token from an
// expired one.
func (c *Codec) Parse(tokenString string, class TokenClass, now time.Time) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidToken
	}
	if claims.Class != string(class) {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}
