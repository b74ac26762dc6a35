package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a named lease held by one owner at a time
type Locker interface {
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// LocalLock only excludes jobs within this process
type LocalLock struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewLocalLock returns an unheld LocalLock
func NewLocalLock() *LocalLock {
	return &LocalLock{owners: map[string]string{}}
}

// TryAcquire implements Locker. The ttl is ignored.
func (l *LocalLock) TryAcquire(_ context.Context, name, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.owners[name]; held {
		return false, nil
	}
	l.owners[name] = owner
	return true, nil
}

// Release implements Locker
func (l *LocalLock) Release(_ context.Context, name, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[name] == owner {
		delete(l.owners, name)
	}
	return nil
}

// releaseScript deletes the lock only while owner still holds it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is shared by every instance using the same Redis
type RedisLock struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedisLock returns a RedisLock using the "lock:" key prefix
func NewRedisLock(client redis.Cmdable) *RedisLock {
	return &RedisLock{Client: client, Prefix: "lock:"}
}

// TryAcquire implements Locker. The lease expires after ttl so a crashed
// holder cannot block the job forever.
func (l *RedisLock) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, l.Prefix+name, owner, ttl).Result()
}

// Release implements Locker
func (l *RedisLock) Release(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, l.Client, []string{l.Prefix + name}, owner).Err()
}
