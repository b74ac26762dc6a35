package api

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker remembers revoked token ids until the tokens expire
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevoker keeps revocations in process memory. Revocations are lost on
// restart and are not shared between instances.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	Now     func() time.Time
}

// NewMemoryRevoker returns an empty MemoryRevoker
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: map[string]time.Time{}, Now: time.Now}
}

// Revoke implements TokenRevoker
func (m *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	if until.After(now) {
		m.revoked[jti] = until
	}
	return nil
}

// IsRevoked implements TokenRevoker
func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	return ok && exp.After(m.Now()), nil
}

// RedisRevoker stores revocations as expiring Redis keys so every instance
// sees them
type RedisRevoker struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedisRevoker returns a RedisRevoker using the "revoked:" key prefix
func NewRedisRevoker(client redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{Client: client, Prefix: "revoked:"}
}

// Revoke implements TokenRevoker
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.Prefix+jti, 1, ttl).Err()
}

// IsRevoked implements TokenRevoker
func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.Client.Exists(ctx, r.Prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
