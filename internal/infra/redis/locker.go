package redis

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errLockTimeout = errors.New("redis lock: timed out")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serialises per-user session creation across service instances.
// Locks expire after ttl so a crashed holder cannot block a user forever.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{
		client: client,
		ttl:    ttl,
		retry:  20 * time.Millisecond,
		wait:   ttl,
	}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	key = l.key(key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, errLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// the caller's context may already be cancelled
		if err := unlockScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
			log.Printf("redis unlock %s: %v", key, err)
		}
	}, nil
}

func (l *Locker) key(name string) string {
	return "philosophers:lock:" + name
}
