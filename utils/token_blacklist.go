package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// revocationTTL bounds how long revocations of non-expiring sessions are remembered.
const revocationTTL = 30 * 24 * time.Hour

// Blacklist remembers revoked session ids until they would have expired.
// Redis is preferred so revocations survive restarts; memory is the fallback.
type Blacklist struct {
	rc *redis.Client

	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewBlacklist creates a blacklist; rc may be nil.
func NewBlacklist(rc *redis.Client) *Blacklist {
	return &Blacklist{rc: rc, entries: map[string]time.Time{}}
}

// Revoke stores id until expiresAt. A zero expiresAt uses revocationTTL.
func (b *Blacklist) Revoke(ctx context.Context, id string, expiresAt time.Time) {
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(revocationTTL)
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := b.rc.Set(ctx, blacklistKey(id), "1", ttl).Err(); err == nil {
			return
		}
	}
	b.mu.Lock()
	b.entries[id] = expiresAt
	b.mu.Unlock()
}

// IsRevoked checks if a session id was revoked before natural expiration.
func (b *Blacklist) IsRevoked(ctx context.Context, id string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistKey(id)).Result()
		if err == nil && n > 0 {
			return true
		}
		// fail open on Redis errors; the memory fallback may still know the id
	}

	b.mu.RLock()
	expiresAt, ok := b.entries[id]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, id)
		b.mu.Unlock()
		return false
	}
	return true
}

func blacklistKey(id string) string { return "jwt:blacklist:" + id }
