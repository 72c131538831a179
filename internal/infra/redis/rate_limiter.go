package redis

import (
	"context"
	"strconv"
	"time"
)

// RateLimiter is a fixed-window counter with one redis key per window.
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow counts one hit for key in the current window and reports whether the
// count is still within limit.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	slot := r.now().UnixNano() / int64(window)
	k := key + ":" + strconv.FormatInt(slot, 10)

	n, err := r.client.Incr(ctx, k)
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, window); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// CommandKey scopes a limit to one chat and command.
func CommandKey(userID, command string) string {
	return "rl:cmd:" + userID + ":" + command
}
