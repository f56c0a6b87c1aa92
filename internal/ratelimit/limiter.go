// Package ratelimit implements the token-bucket rate limiter that sits in
// front of the HTTP layer (spec §5): default 30 requests per 60 s, keyed
// by whatever string the caller passes. The HTTP layer keys it by the
// client's remote address, not by session id.
package ratelimit

import (
	"sync"
	"time"
)

// Config configures rate limiting behavior, in the shape the service
// config exposes it (rate_limit_max_requests over rate_limit_window_seconds).
type Config struct {
	MaxRequests   int  `yaml:"rate_limit_max_requests"`
	WindowSeconds int  `yaml:"rate_limit_window_seconds"`
	Enabled       bool `yaml:"rate_limit_enabled"`
}

// DefaultConfig is the spec's documented default: 30 requests per 60 s.
func DefaultConfig() Config {
	return Config{
		MaxRequests:   30,
		WindowSeconds: 60,
		Enabled:       true,
	}
}

func (c Config) requestsPerSecond() float64 {
	if c.WindowSeconds <= 0 {
		return float64(c.MaxRequests)
	}
	return float64(c.MaxRequests) / float64(c.WindowSeconds)
}

// Bucket implements token bucket rate limiting.
type Bucket struct {
	mu          sync.Mutex
	tokens      float64
	maxTokens   float64
	refillRate  float64 // tokens per second
	lastRefill  time.Time
}

// NewBucket creates a new token bucket sized to MaxRequests, refilling
// at MaxRequests per WindowSeconds.
func NewBucket(config Config) *Bucket {
	if config.MaxRequests <= 0 {
		config = DefaultConfig()
	}

	return &Bucket{
		tokens:     float64(config.MaxRequests),
		maxTokens:  float64(config.MaxRequests),
		refillRate: config.requestsPerSecond(),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request should be allowed and consumes a token if so.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// AllowN checks if n requests should be allowed.
func (b *Bucket) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// refill adds tokens based on time elapsed (must be called with lock held).
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
}

// Tokens returns the current number of available tokens.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// WaitTime returns how long to wait before a request would be allowed.
func (b *Bucket) WaitTime() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= 1 {
		return 0
	}

	needed := 1 - b.tokens
	seconds := needed / b.refillRate
	return time.Duration(seconds * float64(time.Second))
}

// Limiter manages rate limits for multiple keys (users, channels, etc).
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	config  Config
	maxKeys int
}

// NewLimiter creates a new rate limiter.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		buckets: make(map[string]*Bucket),
		config:  config,
		maxKeys: 10000,
	}
}

// Allow checks if a request for the given key should be allowed.
func (l *Limiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	bucket := l.getBucket(key)
	return bucket.Allow()
}

// AllowN checks if n requests for the given key should be allowed.
func (l *Limiter) AllowN(key string, n int) bool {
	if !l.config.Enabled {
		return true
	}

	bucket := l.getBucket(key)
	return bucket.AllowN(n)
}

// getBucket returns or creates a bucket for the given key.
func (l *Limiter) getBucket(key string) *Bucket {
	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()

	if exists {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists = l.buckets[key]; exists {
		return bucket
	}

	// Prune if too many keys
	if len(l.buckets) >= l.maxKeys {
		l.prune()
	}

	bucket = NewBucket(l.config)
	l.buckets[key] = bucket
	return bucket
}

// prune removes buckets that are at least 90% full (inactive keys).
func (l *Limiter) prune() {
	// Simple approach: remove entries with nearly full tokens (likely inactive)
	for key, bucket := range l.buckets {
		if bucket.Tokens() >= bucket.maxTokens*0.9 {
			delete(l.buckets, key)
		}
	}
}

// WaitTime returns how long to wait before a request would be allowed.
func (l *Limiter) WaitTime(key string) time.Duration {
	if !l.config.Enabled {
		return 0
	}

	bucket := l.getBucket(key)
	return bucket.WaitTime()
}

// Reset resets the rate limit for a key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Status returns rate limit status for a key.
type Status struct {
	Key            string        `json:"key"`
	AllowedNow     bool          `json:"allowed_now"`
	TokensRemaining float64      `json:"tokens_remaining"`
	WaitTime       time.Duration `json:"wait_time"`
}

// GetStatus returns the rate limit status for a key.
func (l *Limiter) GetStatus(key string) Status {
	if !l.config.Enabled {
		return Status{
			Key:             key,
			AllowedNow:      true,
			TokensRemaining: float64(l.config.MaxRequests),
			WaitTime:        0,
		}
	}

	bucket := l.getBucket(key)
	tokens := bucket.Tokens()

	return Status{
		Key:             key,
		AllowedNow:      tokens >= 1,
		TokensRemaining: tokens,
		WaitTime:        bucket.WaitTime(),
	}
}

