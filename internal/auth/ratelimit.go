package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginAttemptPrefix = "login_attempts:"

// LoginLimiter throttles failed login attempts per client key using a
// fixed Redis window. The limiter fails open: if Redis is unreachable
// the login flow proceeds and the incident is logged.
type LoginLimiter struct {
	client      *redis.Client
	logger      *zap.Logger
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter constructs the limiter.
func NewLoginLimiter(client *redis.Client, logger *zap.Logger, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, logger: logger, maxAttempts: maxAttempts, window: window}
}

// Allow reports whether the key is still under the attempt limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) bool {
	if l.client == nil {
		return true
	}
	count, err := l.client.Get(ctx, loginAttemptPrefix+key).Int()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
		}
		return true
	}
	return count < l.maxAttempts
}

// RecordFailure counts a failed attempt. The window starts at the
// first failure and is not extended by later ones.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) {
	if l.client == nil {
		return
	}
	redisKey := loginAttemptPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("login limiter expire failed", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) {
	if l.client == nil {
		return
	}
	if err := l.client.Del(ctx, loginAttemptPrefix+key).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
