package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestBucket_Allow(t *testing.T) {
	config := Config{MaxRequests: 5, WindowSeconds: 60, Enabled: true}
	bucket := NewBucket(config)

	for i := 0; i < 5; i++ {
		if !bucket.Allow() {
			t.Errorf("request %d should be allowed", i)
		}
	}

	if bucket.Allow() {
		t.Error("request after burst should be denied")
	}
}

func TestBucket_Refill(t *testing.T) {
	config := Config{MaxRequests: 2, WindowSeconds: 1, Enabled: true} // fast refill for test
	bucket := NewBucket(config)

	bucket.Allow()
	bucket.Allow()

	if bucket.Allow() {
		t.Error("should be denied after exhausting tokens")
	}

	time.Sleep(600 * time.Millisecond)

	if !bucket.Allow() {
		t.Error("should be allowed after refill")
	}
}

func TestBucket_Tokens(t *testing.T) {
	config := Config{MaxRequests: 5, WindowSeconds: 60, Enabled: true}
	bucket := NewBucket(config)

	initial := bucket.Tokens()
	if initial != 5 {
		t.Errorf("initial tokens = %f, want 5", initial)
	}

	bucket.Allow()
	after := bucket.Tokens()
	if after >= initial {
		t.Error("tokens should decrease after Allow()")
	}
}

func TestBucket_WaitTime(t *testing.T) {
	config := Config{MaxRequests: 1, WindowSeconds: 6, Enabled: true}
	bucket := NewBucket(config)

	if bucket.WaitTime() != 0 {
		t.Error("should not wait when tokens available")
	}

	bucket.Allow()

	wait := bucket.WaitTime()
	if wait <= 0 {
		t.Error("should need to wait when no tokens")
	}
}

func TestLimiter_Allow(t *testing.T) {
	config := Config{MaxRequests: 3, WindowSeconds: 60, Enabled: true}
	limiter := NewLimiter(config)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("session1") {
			t.Errorf("session1 request %d should be allowed", i)
		}
	}

	if limiter.Allow("session1") {
		t.Error("session1 should be rate limited")
	}

	if !limiter.Allow("session2") {
		t.Error("session2 should be allowed, limits are per-session")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	config := Config{MaxRequests: 1, WindowSeconds: 60, Enabled: false}
	limiter := NewLimiter(config)

	for i := 0; i < 100; i++ {
		if !limiter.Allow("session1") {
			t.Error("disabled limiter should always allow")
		}
	}
}

func TestLimiter_Reset(t *testing.T) {
	config := Config{MaxRequests: 2, WindowSeconds: 60, Enabled: true}
	limiter := NewLimiter(config)

	limiter.Allow("session1")
	limiter.Allow("session1")

	if limiter.Allow("session1") {
		t.Error("should be rate limited")
	}

	limiter.Reset("session1")

	if !limiter.Allow("session1") {
		t.Error("should be allowed after reset")
	}
}

func TestLimiter_GetStatus(t *testing.T) {
	config := Config{MaxRequests: 5, WindowSeconds: 60, Enabled: true}
	limiter := NewLimiter(config)

	status := limiter.GetStatus("session1")
	if !status.AllowedNow {
		t.Error("should be allowed initially")
	}
	if status.TokensRemaining != 5 {
		t.Errorf("initial tokens = %f, want 5", status.TokensRemaining)
	}
}

func TestBucket_AllowN(t *testing.T) {
	config := Config{MaxRequests: 5, WindowSeconds: 60, Enabled: true}
	bucket := NewBucket(config)

	if !bucket.AllowN(3) {
		t.Error("should allow 3 requests")
	}
	if !bucket.AllowN(2) {
		t.Error("should allow 2 more requests")
	}
	if bucket.AllowN(1) {
		t.Error("should deny when no tokens left")
	}
}

func TestLimiter_AllowN(t *testing.T) {
	config := Config{MaxRequests: 5, WindowSeconds: 60, Enabled: true}
	limiter := NewLimiter(config)

	if !limiter.AllowN("session1", 5) {
		t.Error("should allow 5 requests")
	}
	if limiter.AllowN("session1", 1) {
		t.Error("should deny when exhausted")
	}
}

func TestBucket_ZeroConfig_UsesDefaults(t *testing.T) {
	config := Config{MaxRequests: 0, WindowSeconds: 0, Enabled: true}
	bucket := NewBucket(config)

	// Defaults are 30 requests / 60 s.
	if !bucket.Allow() {
		t.Error("Allow() should succeed on a zero-config bucket with defaults applied")
	}

	tokens := bucket.Tokens()
	if tokens <= 0 {
		t.Errorf("expected positive default tokens after one Allow(), got %f", tokens)
	}
	if tokens < 25 || tokens > 30 {
		t.Errorf("expected tokens in range [25,30] with default burst of 30, got %f", tokens)
	}

	if !bucket.AllowN(5) {
		t.Error("AllowN(5) should succeed with default burst")
	}
	if bucket.WaitTime() != 0 {
		t.Error("WaitTime should be 0 while tokens remain")
	}
}

func TestLimiter_ManyKeys_PrunesInactive(t *testing.T) {
	config := Config{MaxRequests: 3, WindowSeconds: 60, Enabled: true}
	limiter := NewLimiter(config)

	keyCount := 10001
	for i := 0; i < keyCount; i++ {
		key := fmt.Sprintf("key-%d", i)
		for j := 0; j < 3; j++ {
			limiter.Allow(key)
		}
	}

	if !limiter.Allow("brand-new-key") {
		t.Error("brand new key should be allowed after prune cycle")
	}

	status := limiter.GetStatus("brand-new-key")
	if status.Key != "brand-new-key" {
		t.Errorf("expected key 'brand-new-key', got %q", status.Key)
	}

	_ = limiter.WaitTime("brand-new-key")
	limiter.Reset("brand-new-key")
}
