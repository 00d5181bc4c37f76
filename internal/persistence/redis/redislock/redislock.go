package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrNotAcquired = errors.New("lock not acquired")

// deletes the lock only when it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Opts struct {
	Lease        time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

type Option func(*Opts)

func WithLease(lease time.Duration) Option {
	return func(o *Opts) {
		o.Lease = lease
	}
}

func WithRetries(attempts int, backoff time.Duration) Option {
	return func(o *Opts) {
		o.MaxAttempts = attempts
		o.RetryBackoff = backoff
	}
}

type Manager struct {
	client *redis.Client
	clock  clockwork.Clock
	logger *zerolog.Logger
	opts   Opts
}

func NewManager(
	client *redis.Client,
	clock clockwork.Clock,
	logger *zerolog.Logger,
	options ...Option,
) *Manager {
	opts := Opts{
		Lease:        time.Second,
		MaxAttempts:  5,
		RetryBackoff: time.Millisecond * 100,
	}
	for _, opt := range options {
		opt(&opts)
	}
	return &Manager{
		client: client,
		clock:  clock,
		logger: logger,
		opts:   opts,
	}
}

// Guard runs op inside a WATCH transaction while holding the lock stored under key.
// ErrNotAcquired is returned when the lock is held by someone else for all attempts,
// or when the lease expires before op has committed.
func (m *Manager) Guard(ctx context.Context, key string, op func(tx *redis.Tx) error) error {
	token := uuid.NewString()

	if err := m.acquire(ctx, key, token); err != nil {
		return err
	}
	defer m.release(context.WithoutCancel(ctx), key, token)

	err := m.client.Watch(ctx, func(tx *redis.Tx) error {
		// the lease may have expired between SETNX and WATCH
		owner, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotAcquired
			}
			return fmt.Errorf("check lock owner: %w", err)
		}
		if owner != token {
			return ErrNotAcquired
		}
		return op(tx)
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) || errors.Is(err, ErrNotAcquired) {
			return ErrNotAcquired
		}
		return fmt.Errorf("guard %s: %w", key, err)
	}

	return nil
}

func (m *Manager) acquire(ctx context.Context, key, token string) error {
	attempts := max(m.opts.MaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		ok, err := m.client.SetNX(ctx, key, token, m.opts.Lease).Result()
		if err != nil {
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if attempt >= attempts {
			return ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.opts.RetryBackoff):
		}
	}
}

func (m *Manager) release(ctx context.Context, key, token string) {
	released, err := releaseScript.Run(ctx, m.client, []string{key}, token).Int()
	if err != nil {
		m.logger.Error().Err(err).Str("key", key).Msg("Failed to release lock")
		return
	}
	if released == 0 {
		m.logger.Warn().Str("key", key).Msg("Lock lease expired before release")
	}
}
