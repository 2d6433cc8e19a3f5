package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter limits the rate of requests for a key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// TokenBucketLimiter implements a token bucket per key
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a token bucket limiter
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
	}
	go l.cleanup()
	return l
}

// Allow checks whether the key may proceed and consumes a token if so
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.maxTokens - 1, lastRefill: now}
		return true, nil
	}

	// Refill proportionally to elapsed time
	elapsed := now.Sub(b.lastRefill)
	refill := int(elapsed / l.refillRate)
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Reset clears the bucket for a key
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// cleanup evicts idle buckets so the map does not grow without bound
func (l *TokenBucketLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-30 * time.Minute)
		for key, b := range l.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// IPRateLimiter limits requests per client IP
type IPRateLimiter struct {
	limiter *TokenBucketLimiter
}

// NewIPRateLimiter creates an IP rate limiter allowing requestsPerMinute
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewTokenBucketLimiter(requestsPerMinute, time.Minute/time.Duration(requestsPerMinute)),
	}
}

// Allow checks whether the IP may proceed
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, ip)
}

// UserRateLimiter limits requests per authenticated user
type UserRateLimiter struct {
	limiter *TokenBucketLimiter
}

// NewUserRateLimiter creates a user rate limiter allowing requestsPerMinute
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewTokenBucketLimiter(requestsPerMinute, time.Minute/time.Duration(requestsPerMinute)),
	}
}

// Allow checks whether the user may proceed
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, userID)
}
