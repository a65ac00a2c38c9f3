package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotAcquired = errors.New("lock not acquired")
	ErrNotHeld     = errors.New("lock was not held by this holder")
)

// Deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a single-holder mutex stored in one Redis key. The key expires after
// ttl so a crashed holder cannot block others forever.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
	poll   time.Duration
}

// NewLock creates a lock on key.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		token:  newToken(),
		ttl:    ttl,
		poll:   100 * time.Millisecond,
	}
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Key returns the Redis key backing the lock.
func (l *Lock) Key() string {
	return l.key
}

// TryAcquire takes the lock if it is free.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Acquire polls until the lock is taken, wait elapses or ctx is done.
func (l *Lock) Acquire(ctx context.Context, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.TryAcquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrNotAcquired, l.key)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

// Release frees the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// WithLock runs fn while holding the lock on key.
func WithLock(ctx context.Context, client *redis.Client, key string, ttl, wait time.Duration, fn func(ctx context.Context) error) error {
	lock := NewLock(client, key, ttl)
	if err := lock.Acquire(ctx, wait); err != nil {
		return err
	}
	defer lock.Release(context.WithoutCancel(ctx))
	return fn(ctx)
}
