package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLoginAttempts = 5
	DefaultLoginWindow   = 15 * time.Minute
)

// LoginLimiter counts failed logins per email in Redis. The window restarts
// on every failure.
type LoginLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewLoginLimiter(rdb *redis.Client, maxAttempts int64, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, max: maxAttempts, window: window}
}

func failKey(email string) string {
	return "login:fail:" + email
}

// Allow reports whether another login attempt for email may proceed.
func (l *LoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, failKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < l.max, nil
}

// Fail records a failed attempt for email.
func (l *LoginLimiter) Fail(ctx context.Context, email string) error {
	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, failKey(email))
	pipe.Expire(ctx, failKey(email), l.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset forgets the failures recorded for email.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	return l.rdb.Del(ctx, failKey(email)).Err()
}
