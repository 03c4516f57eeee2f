package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"challan-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type clock struct {
	mutex sync.Mutex
	now   time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

type fakeCron struct {
	spec     string
	callback func()
}

func (f *fakeCron) Cron(spec string, callback func()) error {
	f.spec = spec
	f.callback = callback
	return nil
}

func TestLRUStore(t *testing.T) {
	c := newClock()
	store := NewLRUStore[string](2, c)

	store.Set("a", "1", time.Minute)
	value, ok := store.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", value)

	c.Advance(time.Minute)
	_, ok = store.Get("a")
	require.False(t, ok, "entries expire at their ttl")

	store.Set("b", "2", time.Minute)
	store.Set("c", "3", time.Hour)
	store.Set("d", "4", time.Hour)
	_, ok = store.Get("b")
	require.False(t, ok, "least recently used entry is evicted")

	store.Delete("c")
	_, ok = store.Get("c")
	require.False(t, ok)
}

func TestScheduleSweep(t *testing.T) {
	c := newClock()
	first := NewLRUStore[string](10, c)
	second := NewLRUStore[int](10, c)
	first.Set("short", "x", time.Second)
	first.Set("long", "y", time.Hour)
	second.Set("short", 1, time.Second)

	cron := &fakeCron{}
	tel := &telemetry.MemoryAPI{}
	require.NoError(t, ScheduleSweep(cron, "@every 1m", tel, first, second))
	require.Equal(t, "@every 1m", cron.spec)

	c.Advance(time.Minute)
	cron.callback()

	counts := tel.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(2)}, counts[0].Params)
	_, ok := first.Get("long")
	require.True(t, ok)
	require.Zero(t, first.SweepExpired())
}

func TestLimiter(t *testing.T) {
	c := newClock()
	limiter := NewLimiter(NewLRUStore[*rate.Limiter](10, c), RateLimit{Burst: 3, PerSecond: 1}, c)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("1.1.1.1"))
	}
	require.False(t, limiter.Allow("1.1.1.1"))
	require.True(t, limiter.Allow("2.2.2.2"), "clients have separate buckets")

	c.Advance(time.Second)
	require.True(t, limiter.Allow("1.1.1.1"))
	require.False(t, limiter.Allow("1.1.1.1"))
}

func TestAttemptLimiter(t *testing.T) {
	c := newClock()
	limiter := NewAttemptLimiter(NewAttemptStore(10, c), 5, 5*time.Minute, c)

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow("ip"))
	}
	require.False(t, limiter.Allow("ip"))

	c.Advance(4 * time.Minute)
	require.False(t, limiter.Allow("ip"), "the window does not slide")

	c.Advance(time.Minute)
	require.True(t, limiter.Allow("ip"))
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name     string
		header   map[string]string
		remote   string
		expected string
	}{
		{name: "forwarded", header: map[string]string{"X-Forwarded-For": " 10.0.0.1 , 10.0.0.2"}, expected: "10.0.0.1"},
		{name: "real ip", header: map[string]string{"X-Real-Ip": "10.0.0.3"}, expected: "10.0.0.3"},
		{name: "remote addr", remote: "10.0.0.4:5555", expected: "10.0.0.4"},
		{name: "unknown", remote: "garbage", expected: "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			require.Equal(t, tc.expected, ClientIP(r))
		})
	}
}

func TestCSRF(t *testing.T) {
	c := newClock()
	csrf, err := NewCSRF("secret", time.Hour, c)
	require.NoError(t, err)

	token, err := csrf.Issue()
	require.NoError(t, err)
	require.Len(t, strings.Split(token, ":"), 3)
	require.True(t, csrf.Valid(token))

	parts := strings.Split(token, ":")
	require.False(t, csrf.Valid(parts[0]+"x:"+parts[1]+":"+parts[2]), "tampered nonce")
	require.False(t, csrf.Valid(token+":extra"))

	other, err := NewCSRF("other secret", time.Hour, c)
	require.NoError(t, err)
	require.False(t, other.Valid(token))

	request := func(cookie, header string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/barcode", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: CSRFCookie, Value: cookie})
		}
		if header != "" {
			r.Header.Set(CSRFHeader, header)
		}
		return r
	}
	require.True(t, csrf.Verify(request(token, token)))
	require.False(t, csrf.Verify(request(token, "")))
	require.False(t, csrf.Verify(request("", token)))

	second, err := csrf.Issue()
	require.NoError(t, err)
	require.False(t, csrf.Verify(request(token, second)))

	c.Advance(time.Hour + time.Millisecond)
	require.False(t, csrf.Valid(token), "expired")
}

func TestValidOrigin(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		origin   string
		referer  string
		expected bool
	}{
		{name: "same origin", method: http.MethodPost, origin: "https://app.example.com", expected: true},
		{name: "same referer", method: http.MethodPost, referer: "https://app.example.com/create", expected: true},
		{name: "cross origin", method: http.MethodPost, origin: "https://evil.example.com", expected: false},
		{name: "cross origin, same referer", method: http.MethodPost, origin: "https://evil.example.com", referer: "https://app.example.com/", expected: true},
		{name: "post without either", method: http.MethodPost, expected: false},
		{name: "get without either", method: http.MethodGet, expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, "https://app.example.com/api/x", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				r.Header.Set("Referer", tc.referer)
			}
			require.Equal(t, tc.expected, ValidOrigin(r))
		})
	}
}

func TestSanitize(t *testing.T) {
	testCases := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{input: "  CH-9001 ", expected: "CH-9001"},
		{input: `{"$gt": ""}`, expected: "{: }"},
		{input: "<script>alert('x');</script>", expected: "scriptalert(x)/script"},
		{input: "abcdef", maxLen: 3, expected: "abc"},
		{input: "a\\b`c", expected: "abc"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			require.Equal(t, tc.expected, Sanitize(tc.input, tc.maxLen))
		})
	}

	require.Equal(t, "12", Digits(" 1a2 "))
	require.Equal(t, []string{"301", "302"}, ColorIDs("301, x, 3a02,"))
	require.Empty(t, ColorIDs(""))
}
