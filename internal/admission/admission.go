// Package admission bounds the total request rate accepted by the process.
// One Limiter is built at startup and shared by every route.
package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Decision is the verdict for one request.
type Decision struct {
	Allowed bool
	// RetryAfter is how long a rejected caller should wait.
	RetryAfter time.Duration
}

// Limiter admits or rejects a single request. An error means the limiter
// itself failed and no decision was made.
type Limiter interface {
	Allow(ctx context.Context) (Decision, error)
}

// MemoryLimiter is a process-local token bucket holding limit tokens that
// refill evenly over window.
type MemoryLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewMemoryLimiter allows bursts up to limit and a sustained rate of limit
// per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	every := rate.Every(window / time.Duration(limit))
	return &MemoryLimiter{limiter: rate.NewLimiter(every, limit), now: time.Now}
}

func (l *MemoryLimiter) Allow(context.Context) (Decision, error) {
	now := l.now()
	r := l.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Decision{}, fmt.Errorf("admission: limiter cannot grant a single token")
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// RedisLimiter is a fixed-window counter kept in Redis, so several replicas
// share one budget.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter counts requests under keys named prefix:<window start>.
func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.window)
	key := fmt.Sprintf("%s:%d", l.prefix, start.UnixMilli())

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("admission: redis: %w", err)
	}

	if incr.Val() > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: start.Add(l.window).Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}
