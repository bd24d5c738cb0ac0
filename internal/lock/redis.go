package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the lock key only if it still holds our token,
// so a holder whose lease already expired cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCoordinator implements Coordinator on a shared redis instance using
// SET NX PX leases. All application nodes pointing at the same redis agree
// on lease ownership, which is what makes the serialization distributed.
type RedisCoordinator struct {
	client        *redis.Client
	waitTimeout   time.Duration
	leaseTimeout  time.Duration
	retryInterval time.Duration
}

func NewRedisCoordinator(client *redis.Client, waitTimeout, leaseTimeout time.Duration) *RedisCoordinator {
	return &RedisCoordinator{
		client:        client,
		waitTimeout:   waitTimeout,
		leaseTimeout:  leaseTimeout,
		retryInterval: 50 * time.Millisecond,
	}
}

func (c *RedisCoordinator) Acquire(ctx context.Context, key string) (*Lease, error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(c.waitTimeout)

	for {
		ok, err := c.client.SetNX(ctx, redisKey, token, c.leaseTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s failed: %w", key, err)
		}
		if ok {
			return &Lease{Key: redisKey, Token: token}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

func (c *RedisCoordinator) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, c.client, []string{lease.Key}, lease.Token).Err(); err != nil {
		return fmt.Errorf("release lock %s failed: %w", lease.Key, err)
	}
	return nil
}
