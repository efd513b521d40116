// Package cache memoises successful Vincent JWT verifications in process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
)

// VerificationCache keeps decoded tokens keyed by sha256(audience, token). An entry never
// outlives the token's exp.
type VerificationCache struct {
	store *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ service.VerificationCache = (*VerificationCache)(nil)

// NewVerificationCache creates a cache whose entries live at most ttl.
func NewVerificationCache(ttl time.Duration, now func() time.Time) *VerificationCache {
	if now == nil {
		now = time.Now
	}
	cleanup := 2 * ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &VerificationCache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   now,
	}
}

func cacheKey(audience, token string) string {
	sum := sha256.Sum256([]byte(audience + "\x00" + token))
	return hex.EncodeToString(sum[:])
}

// Get returns the decoded token if it was verified for audience and has not expired.
func (c *VerificationCache) Get(audience, token string) (*models.VincentJWT, bool) {
	v, found := c.store.Get(cacheKey(audience, token))
	if !found {
		return nil, false
	}
	decoded := v.(*models.VincentJWT)
	if exp := decoded.ExpiresAt(); exp != 0 && c.now().Unix() >= exp {
		c.store.Delete(cacheKey(audience, token))
		return nil, false
	}
	return decoded, true
}

// Set stores a verified token. Tokens that are about to expire are not stored.
func (c *VerificationCache) Set(audience, token string, decoded *models.VincentJWT) {
	if decoded == nil {
		return
	}
	ttl := c.ttl
	if exp := decoded.ExpiresAt(); exp != 0 {
		left := time.Unix(exp, 0).Sub(c.now())
		if left <= 0 {
			return
		}
		if left < ttl {
			ttl = left
		}
	}
	c.store.Set(cacheKey(audience, token), decoded, ttl)
}

// Len returns the number of cached entries, expired ones included until cleanup.
func (c *VerificationCache) Len() int { return c.store.ItemCount() }

// Flush drops every entry.
func (c *VerificationCache) Flush() { c.store.Flush() }
