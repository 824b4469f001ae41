package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionManager binds opaque tokens to user ids. The cookie only ever
// carries the token; the binding lives server-side so logout revokes it
// immediately for every copy of the cookie.
type SessionManager interface {
	// Issue creates a fresh token bound to userID.
	Issue(ctx context.Context, userID int64) (string, error)
	// Resolve maps a token back to its user id. ok is false for unknown,
	// expired, or revoked tokens.
	Resolve(ctx context.Context, token string) (userID int64, ok bool, err error)
	// Revoke invalidates a token. Revoking an unknown token is a no-op.
	Revoke(ctx context.Context, token string) error
}

const sessionKeyPrefix = "session:"

// RedisSessionManager stores token -> userID with a TTL.
type RedisSessionManager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionManager(client *redis.Client, ttl time.Duration) *RedisSessionManager {
	if ttl <= 0 {
		ttl = 5 * time.Hour
	}
	return &RedisSessionManager{client: client, ttl: ttl}
}

func (m *RedisSessionManager) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", err
	}
	key := sessionKeyPrefix + token
	if err := m.client.Set(ctx, key, strconv.FormatInt(userID, 10), m.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (m *RedisSessionManager) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	val, err := m.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt value; treat the token as invalid rather than failing the request.
		return 0, false, nil
	}
	return userID, true, nil
}

func (m *RedisSessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.client.Del(ctx, sessionKeyPrefix+token).Err()
}

func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
