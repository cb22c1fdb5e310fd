package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/praktijk-epd/scheduling/internal/scheduling"
)

type therapistLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTherapistLocker creates a scheduling.Locker that uses a per-therapist
// Redis key, so calendar mutations stay serialized across API instances. The
// critical section runs under a context bounded by the lock TTL.
func NewTherapistLocker(client *redis.Client, ttl time.Duration) scheduling.Locker {
	return &therapistLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *therapistLocker) WithTherapistLock(ctx context.Context, therapistID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:therapist:%s", therapistID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire therapist lock: %w", err)
	}
	if !ok {
		return scheduling.ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// Only the holder's token may delete the key; a lock that expired and was
// re-acquired by someone else stays untouched.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *therapistLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release therapist lock: %w", err)
	}
	return nil
}
