package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when another worker already holds the lock.
var ErrLockBusy = errors.New("lock is held by another worker")

// Locker guards batch jobs so only one replica runs a given job at a time.
type Locker interface {
	// TryLock acquires key without waiting. The returned func releases it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type redisLocker struct {
	rs *redsync.Redsync
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{rs: redsync.New(goredis.NewPool(client))}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	return func() {
		// detached: the job context may already be past its deadline
		_, _ = mutex.UnlockContext(context.Background())
	}, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker is the single-process fallback used when Redis is not configured.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]bool)}
}

func (l *localLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrLockBusy
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
