// Package ratelimit protects outbound LLM, web-search, and connector calls
// with in-process token buckets scoped per tenant and per user, per spec
// §5 "Shared resource policy".
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter is the narrow interface every quota check goes through.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// TokenBucketLimiter is a classic token bucket keyed by an arbitrary string,
// refilled lazily on each Allow call rather than by a background ticker per
// key.
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
	idleAfter  time.Duration
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucketLimiter builds a limiter that allows maxTokens requests per
// key, refilling one token every refillRate.
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		idleAfter:  time.Hour,
	}
}

// Allow consumes one token for key if available.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastRefill: time.Now()}
		l.buckets[key] = b
	}

	now := time.Now()
	if elapsed := now.Sub(b.lastRefill); elapsed >= l.refillRate {
		add := int(elapsed / l.refillRate)
		b.tokens = min(b.tokens+add, l.maxTokens)
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Reset clears a key's bucket, returning it to full.
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// Sweep drops buckets idle longer than idleAfter, bounding memory for
// long-lived processes with a churning tenant population. Callers run this
// from a periodic background goroutine rather than having the limiter own
// one, so shutdown doesn't need to coordinate with an internal ticker.
func (l *TokenBucketLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.idleAfter {
			delete(l.buckets, key)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Quota names one of the three outbound call classes spec §5 rate-limits.
type Quota string

const (
	QuotaLLM       Quota = "llm"
	QuotaWebSearch Quota = "web_search"
	QuotaConnector Quota = "connector"
)

// Policy is the configured bucket size/refill per quota, per scope.
type Policy struct {
	MaxTokens  int
	RefillRate time.Duration
}

// Guard is the per-tenant/per-user rate-limit front door for a GraphSpace
// service boundary. Each quota gets its own bucket space so exhausting the
// LLM quota never blocks web-search or connector calls.
type Guard struct {
	limiters map[Quota]*TokenBucketLimiter
}

// NewGuard builds a Guard from a policy-per-quota map; quotas absent from
// policies are left unlimited (Allow always returns true).
func NewGuard(policies map[Quota]Policy) *Guard {
	g := &Guard{limiters: make(map[Quota]*TokenBucketLimiter, len(policies))}
	for q, p := range policies {
		g.limiters[q] = NewTokenBucketLimiter(p.MaxTokens, p.RefillRate)
	}
	return g
}

// AllowTenant checks a tenant-scoped bucket for the given quota.
func (g *Guard) AllowTenant(ctx context.Context, quota Quota, tenantID string) (bool, error) {
	return g.allow(ctx, quota, fmt.Sprintf("tenant:%s", tenantID))
}

// AllowUser checks a user-scoped bucket for the given quota, layered
// independently of the tenant bucket — a single noisy user inside a tenant
// trips their own limiter before starving the whole tenant's quota.
func (g *Guard) AllowUser(ctx context.Context, quota Quota, userID string) (bool, error) {
	return g.allow(ctx, quota, fmt.Sprintf("user:%s", userID))
}

func (g *Guard) allow(ctx context.Context, quota Quota, key string) (bool, error) {
	l, ok := g.limiters[quota]
	if !ok {
		return true, nil
	}
	return l.Allow(ctx, key)
}

// Sweep runs idle-bucket eviction across every configured quota.
func (g *Guard) Sweep() {
	for _, l := range g.limiters {
		l.Sweep()
	}
}
