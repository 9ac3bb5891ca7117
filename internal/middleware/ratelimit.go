// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/config"
	"github.com/auratrack/auratrack-api/internal/core"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
	Skip    func(*http.Request) bool
}

// RateLimiter enforces one GCRA budget per key, shared across instances
// through Redis. While Redis is unreachable each instance falls back to
// its own token buckets with the same rate, so limiting degrades rather
// than disappears.
type RateLimiter struct {
	shared *redis_rate.Limiter
	local  *localBuckets
	cfg    RateLimitConfig
}

type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	resetAfter time.Duration
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		shared: redis_rate.NewLimiter(rdb),
		local:  newLocalBuckets(),
		cfg:    cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		d := rl.decide(r.Context(), rl.cfg.KeyFunc(r))
		writeRateLimitHeaders(w, rl.cfg.Limit, d)

		if !d.allowed {
			rejectRateLimited(w, d)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) decide(ctx context.Context, key string) decision {
	res, err := rl.shared.Allow(ctx, key, rl.cfg.Limit)
	if err == nil {
		return decision{
			allowed:    res.Allowed > 0,
			remaining:  res.Remaining,
			retryAfter: res.RetryAfter,
			resetAfter: res.ResetAfter,
		}
	}

	slog.WarnContext(ctx, "shared rate limiter unavailable, using local buckets",
		"key", key,
		"error", err,
	)
	return rl.local.take(key, rl.cfg.Limit)
}

// SkipOperational exempts probes and scrapes, which must keep answering
// even when a client floods the API from the same address.
func SkipOperational(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz", "/metrics":
		return true
	}
	return false
}

// KeyByIP trusts the right-most X-Forwarded-For hop, the one appended by
// our own proxy.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return "ratelimit:ip:" + strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ratelimit:ip:" + host
}

// KeyByUser buckets signed-in callers by account and everyone else by
// address. It must run after Identify.
func KeyByUser(r *http.Request) string {
	if id := authz.FromContext(r.Context()); id != nil {
		return "ratelimit:user:" + id.UserID
	}
	return KeyByIP(r)
}

func LimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   cfg.Requests,
		Burst:  cfg.Burst,
		Period: cfg.Window,
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, limit redis_rate.Limit, d decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.remaining, 0)))
	h.Set("X-RateLimit-Reset",
		strconv.FormatInt(time.Now().Add(d.resetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func rejectRateLimited(w http.ResponseWriter, d decision) {
	wait := max(int(d.retryAfter.Round(time.Second)/time.Second), 1)

	rateLimitedTotal.Inc()

	w.Header().Set("Retry-After", strconv.Itoa(wait))
	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Error: &core.ErrorBody{
			Code:    "RATE_LIMITED",
			Message: fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", wait),
		},
	})
}

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLocalBuckets() *localBuckets {
	return &localBuckets{
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *localBuckets) take(key string, limit redis_rate.Limit) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idleAfter {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	perToken := limit.Period / time.Duration(max(limit.Rate, 1))

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(perToken), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	d := decision{resetAfter: perToken}
	if b.limiter.AllowN(now, 1) {
		d.allowed = true
	} else {
		d.retryAfter = perToken
	}
	d.remaining = int(b.limiter.TokensAt(now))

	return d
}
