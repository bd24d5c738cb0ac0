package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StandaloneCoordinator implements Coordinator with in-process state.
// It provides the same semantics as the redis coordinator (bounded wait,
// lease auto-expiry, token-checked release) for single-node deployments
// and tests, but offers no cross-process serialization.
type StandaloneCoordinator struct {
	mu            sync.Mutex
	leases        map[string]standaloneLease
	waitTimeout   time.Duration
	leaseTimeout  time.Duration
	retryInterval time.Duration
}

type standaloneLease struct {
	token     string
	expiresAt time.Time
}

func NewStandaloneCoordinator(waitTimeout, leaseTimeout time.Duration) *StandaloneCoordinator {
	return &StandaloneCoordinator{
		leases:        make(map[string]standaloneLease),
		waitTimeout:   waitTimeout,
		leaseTimeout:  leaseTimeout,
		retryInterval: time.Millisecond,
	}
}

func (c *StandaloneCoordinator) Acquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(c.waitTimeout)

	for {
		if c.tryAcquire(key, token) {
			return &Lease{Key: key, Token: token}, nil
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

func (c *StandaloneCoordinator) tryAcquire(key, token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if held, ok := c.leases[key]; ok && now.Before(held.expiresAt) {
		return false
	}
	c.leases[key] = standaloneLease{token: token, expiresAt: now.Add(c.leaseTimeout)}
	return true
}

func (c *StandaloneCoordinator) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if held, ok := c.leases[lease.Key]; ok && held.token == lease.Token {
		delete(c.leases, lease.Key)
	}
	return nil
}
