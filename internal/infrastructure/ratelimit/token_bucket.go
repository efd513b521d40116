// Package ratelimit provides per-PKP rate limiting.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxBuckets bounds how many keys keep an in-process bucket.
const DefaultMaxBuckets = 10000

// TokenBucket refills continuously at rate tokens per second up to capacity.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	tokens   float64
	updated  time.Time
	now      func() time.Time
}

// TokenBucketConfig configures buckets.
type TokenBucketConfig struct {
	Capacity float64
	// Rate is in tokens per second
	Rate float64
	Now  func() time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(cfg TokenBucketConfig) *TokenBucket {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenBucket{
		capacity: cfg.Capacity,
		rate:     cfg.Rate,
		tokens:   cfg.Capacity,
		updated:  now(),
		now:      now,
	}
}

// Take consumes one token if available. It returns the whole tokens left and how long
// until the next token.
func (b *TokenBucket) Take() (allowed bool, left int, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.now()
	if elapsed := t.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.updated = t

	if b.tokens >= 1 {
		b.tokens--
		allowed = true
	}
	if b.tokens < 1 && b.rate > 0 {
		wait = time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	}
	return allowed, int(b.tokens), wait
}

// bucketSet keeps one bucket per key. Least recently used keys are evicted once
// maxKeys is reached; an evicted key starts again with a full bucket.
type bucketSet struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *TokenBucket]
	config  TokenBucketConfig
}

func newBucketSet(config TokenBucketConfig, maxKeys int) (*bucketSet, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxBuckets
	}
	buckets, err := lru.New[string, *TokenBucket](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket cache: %w", err)
	}
	return &bucketSet{buckets: buckets, config: config}, nil
}

func (s *bucketSet) get(key string) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets.Get(key); ok {
		return b
	}
	b := NewTokenBucket(s.config)
	s.buckets.Add(key, b)
	return b
}

func (s *bucketSet) len() int { return s.buckets.Len() }
