package user

import (
	"context"
	"fmt"
	"time"

	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/go-redis/redis/v8"
)

// TokenStore persists refresh-token state. Tokens are stored hashed; a used
// token is retired but remembered so a replay can be recognized as reuse.
type TokenStore interface {
	// Save records a live refresh token hash for the user.
	Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error

	// Lookup resolves a token hash. reused is true when the token was already
	// rotated away, which means someone is replaying an old token.
	Lookup(ctx context.Context, tokenHash string) (userID string, reused bool, err error)

	// MarkRotated retires a live token while keeping its hash around for
	// reuse detection.
	MarkRotated(ctx context.Context, userID, tokenHash string, ttl time.Duration) error

	// RevokeAll drops every live session for the user.
	RevokeAll(ctx context.Context, userID string) error
}

const (
	refreshKeyFmt  = "refresh:%s"
	rotatedKeyFmt  = "refresh:rotated:%s"
	sessionsKeyFmt = "sessions:%s"
)

// RedisTokenStore keeps refresh sessions in the auth Redis database. Each
// live token maps hash -> userID, and a per-user set tracks live hashes so
// revocation can find them.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, fmt.Sprintf(refreshKeyFmt, tokenHash), userID, ttl).Err(); err != nil {
		return utils.NewInternalError("failed to store refresh token: %v", err)
	}
	sessionsKey := fmt.Sprintf(sessionsKeyFmt, userID)
	if err := s.client.SAdd(ctx, sessionsKey, tokenHash).Err(); err != nil {
		return utils.NewInternalError("failed to track session: %v", err)
	}
	// The set outlives its members only in bookkeeping; stale hashes are
	// harmless because revocation just deletes missing keys.
	if err := s.client.Expire(ctx, sessionsKey, ttl).Err(); err != nil {
		return utils.NewInternalError("failed to expire session set: %v", err)
	}
	return nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, tokenHash string) (string, bool, error) {
	userID, err := s.client.Get(ctx, fmt.Sprintf(refreshKeyFmt, tokenHash)).Result()
	if err == nil {
		return userID, false, nil
	}
	if err != redis.Nil {
		return "", false, utils.NewInternalError("failed to look up refresh token: %v", err)
	}

	userID, err = s.client.Get(ctx, fmt.Sprintf(rotatedKeyFmt, tokenHash)).Result()
	if err == nil {
		return userID, true, nil
	}
	if err != redis.Nil {
		return "", false, utils.NewInternalError("failed to look up rotated token: %v", err)
	}
	return "", false, utils.NewNotFoundError("refresh token not found")
}

func (s *RedisTokenStore) MarkRotated(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if err := s.client.Del(ctx, fmt.Sprintf(refreshKeyFmt, tokenHash)).Err(); err != nil {
		return utils.NewInternalError("failed to retire refresh token: %v", err)
	}
	if err := s.client.SRem(ctx, fmt.Sprintf(sessionsKeyFmt, userID), tokenHash).Err(); err != nil {
		return utils.NewInternalError("failed to untrack session: %v", err)
	}
	if err := s.client.Set(ctx, fmt.Sprintf(rotatedKeyFmt, tokenHash), userID, ttl).Err(); err != nil {
		return utils.NewInternalError("failed to remember rotated token: %v", err)
	}
	return nil
}

func (s *RedisTokenStore) RevokeAll(ctx context.Context, userID string) error {
	sessionsKey := fmt.Sprintf(sessionsKeyFmt, userID)
	hashes, err := s.client.SMembers(ctx, sessionsKey).Result()
	if err != nil && err != redis.Nil {
		return utils.NewInternalError("failed to list sessions: %v", err)
	}
	for _, h := range hashes {
		if err := s.client.Del(ctx, fmt.Sprintf(refreshKeyFmt, h)).Err(); err != nil {
			return utils.NewInternalError("failed to revoke session: %v", err)
		}
	}
	if err := s.client.Del(ctx, sessionsKey).Err(); err != nil {
		return utils.NewInternalError("failed to drop session set: %v", err)
	}
	return nil
}
