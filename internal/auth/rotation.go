package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rotationKeyPrefix = "auth:rotated:"

// RevocationList tracks refresh tokens invalidated by rotation. Revoke
// reports whether this call claimed the jti; a second revocation of the same
// jti returns false, which lets callers detect a replayed token atomically.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, until, now time.Time) (bool, error)
	Revoked(ctx context.Context, jti string) (bool, error)
}

// RotationList is the Redis-backed RevocationList. Entries expire together
// with the token they shadow, so the set stays bounded by the refresh TTL.
type RotationList struct {
	client *redis.Client
}

// NewRotationList constructs a RotationList.
func NewRotationList(client *redis.Client) *RotationList {
	return &RotationList{client: client}
}

// Revoke records the jti until the token's own expiry. SETNX makes the write
// conditional: only the first caller for a given jti gets true. A token
// already past its deadline needs no entry; Parse rejects it anyway.
func (l *RotationList) Revoke(ctx context.Context, jti string, until, now time.Time) (bool, error) {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return false, nil
	}
	claimed, err := l.client.SetNX(ctx, rotationKeyPrefix+jti, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("auth: revoke token: %w", err)
	}
	return claimed, nil
}

// Revoked reports whether the jti was rotated out.
func (l *RotationList) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, rotationKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation: %w", err)
	}
	return n > 0, nil
}

var _ RevocationList = (*RotationList)(nil)
