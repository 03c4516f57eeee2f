package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"challan-backend/internal/components/chrono"

	"golang.org/x/time/rate"
)

// RateLimit is a token bucket: Burst requests at once, refilled at PerSecond.
type RateLimit struct {
	Burst     int     `json:"burst"`
	PerSecond float64 `json:"per_second"`
}

var (
	DefaultRateLimit = RateLimit{Burst: 30, PerSecond: 2}
	BarcodeRateLimit = RateLimit{Burst: 10, PerSecond: 1}
	CSRFRateLimit    = RateLimit{Burst: 30, PerSecond: 5}
)

// limiterIdle is how long the bucket of a quiet client is kept.
const limiterIdle = 5 * time.Minute

// Limiter keeps one token bucket per client.
type Limiter struct {
	store Store[*rate.Limiter]
	limit RateLimit
	time  chrono.TimeAPI
	mutex sync.Mutex
}

func NewLimiter(store Store[*rate.Limiter], limit RateLimit, timeAPI chrono.TimeAPI) *Limiter {
	return &Limiter{store: store, limit: limit, time: timeAPI}
}

func (l *Limiter) Allow(client string) bool {
	l.mutex.Lock()
	limiter, ok := l.store.Get(client)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.limit.PerSecond), l.limit.Burst)
	}
	l.store.Set(client, limiter, limiterIdle)
	l.mutex.Unlock()

	return limiter.AllowN(l.time.Now(), 1)
}

// Attempts is the state of one client in an AttemptLimiter.
type Attempts struct {
	count   int
	resetAt time.Time
}

// AttemptLimiter allows a limited number of attempts per client in a fixed window.
type AttemptLimiter struct {
	store  Store[Attempts]
	limit  int
	window time.Duration
	time   chrono.TimeAPI
	mutex  sync.Mutex
}

func NewAttemptLimiter(store Store[Attempts], limit int, window time.Duration, timeAPI chrono.TimeAPI) *AttemptLimiter {
	return &AttemptLimiter{store: store, limit: limit, window: window, time: timeAPI}
}

// NewAttemptStore creates the store an AttemptLimiter needs.
func NewAttemptStore(size int, timeAPI chrono.TimeAPI) *LRUStore[Attempts] {
	return NewLRUStore[Attempts](size, timeAPI)
}

func (a *AttemptLimiter) Allow(client string) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := a.time.Now()
	entry, ok := a.store.Get(client)
	if !ok || !now.Before(entry.resetAt) {
		a.store.Set(client, Attempts{count: 1, resetAt: now.Add(a.window)}, a.window)
		return true
	}
	entry.count++
	a.store.Set(client, entry, entry.resetAt.Sub(now))
	return entry.count <= a.limit
}

// ClientIP is the first X-Forwarded-For hop, X-Real-Ip or the remote address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}
