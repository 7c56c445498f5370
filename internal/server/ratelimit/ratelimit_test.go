package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestTokenBucket_Take(t *testing.T) {
	start := time.Now()
	b := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		allowed, _, _ := b.take(start)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, remaining, resetAt := b.take(start)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, start.Add(3*time.Second), resetAt)

	allowed, _, _ = b.take(start.Add(1100 * time.Millisecond))
	assert.True(t, allowed, "one token refilled")
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpoints()

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
		wantNil  bool
	}{
		{name: "exact", path: "/auth/login", method: "POST", wantPath: "/auth/login"},
		{name: "prefix", path: "/applications/123/move", method: "POST", wantPath: "/applications/"},
		{name: "collection post", path: "/applications", method: "POST", wantPath: "/applications"},
		{name: "method mismatch", path: "/auth/login", method: "GET", wantNil: true},
		{name: "read falls through", path: "/applications/123", method: "GET", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}

	t.Run("health is unlimited", func(t *testing.T) {
		got := MatchEndpoint("/health", "GET", configs)
		require.NotNil(t, got)
		assert.Equal(t, 0, got.Limit)
	})
}

func TestLimiter_Allow(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Allowlist:     map[string]bool{"10.0.0.1": true},
		Denylist:      map[string]bool{"10.0.0.2": true},
		Endpoints:     []EndpointConfig{{Path: "/auth/login", Method: "POST", Limit: 2, Window: time.Minute}},
	}
	l, clock := newTestLimiter(cfg)
	defer l.Stop()

	t.Run("endpoint limit", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			allowed, info := l.Allow("1.1.1.1", "/auth/login", "POST")
			require.True(t, allowed)
			assert.Equal(t, 2, info.Limit)
		}
		allowed, info := l.Allow("1.1.1.1", "/auth/login", "POST")
		assert.False(t, allowed)
		assert.Greater(t, info.RetryAfter, time.Duration(0))

		allowed, _ = l.Allow("2.2.2.2", "/auth/login", "POST")
		assert.True(t, allowed, "clients are limited independently")
	})

	t.Run("refills over the window", func(t *testing.T) {
		clock.advance(30 * time.Second)
		allowed, _ := l.Allow("1.1.1.1", "/auth/login", "POST")
		assert.True(t, allowed)
	})

	t.Run("default limit shares one bucket across paths", func(t *testing.T) {
		_, a := l.Allow("3.3.3.3", "/applications/a", "GET")
		_, b := l.Allow("3.3.3.3", "/applications/b", "GET")
		assert.Equal(t, 100, a.Limit)
		assert.Equal(t, a.Remaining-1, b.Remaining)
	})

	t.Run("allowlist and denylist", func(t *testing.T) {
		allowed, _ := l.Allow("10.0.0.1", "/auth/login", "POST")
		assert.True(t, allowed)
		allowed, _ = l.Allow("10.0.0.2", "/health", "GET")
		assert.False(t, allowed)
	})
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()
	for i := 0; i < 1000; i++ {
		allowed, _ := l.Allow("1.1.1.1", "/auth/login", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	defer l.Stop()

	l.Allow("1.1.1.1", "/recruitments", "GET")
	clock.advance(2 * time.Minute)
	l.Allow("2.2.2.2", "/recruitments", "GET")

	l.cleanup()
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "2.2.2.2:GET:*")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "10.0.0.1, 10.0.0.2,")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Allowlist)
	assert.NotEmpty(t, cfg.Endpoints)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
