package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// SessionStore tracks issued token ids so logout can revoke a token before
// its signature expires.
type SessionStore interface {
	Save(ctx context.Context, sess *Session) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

// RedisSessionStore keeps one key per active session with a TTL matching the
// token expiry.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(tokenID string) string {
	return "session:" + tokenID
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	value := strconv.FormatInt(sess.UserID, 10)
	if err := s.rdb.Set(ctx, sessionKey(sess.TokenID), value, ttl).Err(); err != nil {
		return apperrors.Storage("save session", err)
	}
	return nil
}

func (s *RedisSessionStore) Active(ctx context.Context, tokenID string) (bool, error) {
	err := s.rdb.Get(ctx, sessionKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Storage("check session", err)
	}
	return true, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.rdb.Del(ctx, sessionKey(tokenID)).Err(); err != nil {
		return apperrors.Storage("revoke session", err)
	}
	return nil
}
