// Package otp holds the one-time-password cache: at most one current
// six-digit code per principal email, evicted by TTL, invalidated explicitly
// before every reissue.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saludware/citamed/pkg/cryptox"
)

const keyPrefix = "otp"

var (
	// ErrNoCode reports that no code is currently cached for the principal,
	// either because none was issued or because the TTL evicted it. This is
	// an explicit absent state: a never-issued code can never compare equal
	// to a submitted value.
	ErrNoCode = errors.New("otp: no active code")

	// ErrUnavailable reports a cache infrastructure failure. It must never
	// be conflated with a wrong code.
	ErrUnavailable = errors.New("otp: cache unavailable")
)

// Cache is a Redis-backed TTL store for one-time codes.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) key(email string) string {
	return keyPrefix + ":" + email
}

// TTL returns the configured code lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Issue invalidates any prior code for the email and stores a fresh random
// six-digit code with the configured TTL. The explicit DEL before SET
// guarantees at most one semantically current code per principal, even
// though the old entry would also expire naturally.
func (c *Cache) Issue(ctx context.Context, email string) (string, error) {
	code, err := cryptox.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	key := c.key(email)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Set(ctx, key, code, c.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return code, nil
}

// Get returns the current code for the email. Missing or expired keys yield
// ErrNoCode; any other failure is ErrUnavailable.
func (c *Cache) Get(ctx context.Context, email string) (string, error) {
	code, err := c.rdb.Get(ctx, c.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCode
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return code, nil
}

// Verify compares a submitted code against the cached one. A match does NOT
// consume the code: it stays valid until its TTL elapses or a new code is
// issued. Callers needing single-use semantics call Invalidate explicitly.
func (c *Cache) Verify(ctx context.Context, email, submitted string) (bool, error) {
	current, err := c.Get(ctx, email)
	if errors.Is(err, ErrNoCode) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(current), []byte(submitted)) == 1, nil
}

// Ping verifies the cache connection is still alive.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Invalidate removes the current code, if any.
func (c *Cache) Invalidate(ctx context.Context, email string) error {
	if err := c.rdb.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
