package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "taskeri:revoked:"

// Revocations records token ids that were logged out before expiry.
type Revocations struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRevocations creates a Redis-backed revocation list.
func NewRevocations(client redis.UniversalClient) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

// Revoke marks id as revoked until the token would have expired anyway.
func (r *Revocations) Revoke(ctx context.Context, id string, until time.Time) error {
	if id == "" {
		return nil
	}
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("token: revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether id has been revoked.
func (r *Revocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("token: revocation lookup: %w", err)
	}
	return n > 0, nil
}
