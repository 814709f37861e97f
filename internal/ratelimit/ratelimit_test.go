package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_ExhaustsAndRefills(t *testing.T) {
	l := NewTokenBucketLimiter(2, 10*time.Millisecond)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok, "third request within the same window should be denied")

	time.Sleep(15 * time.Millisecond)
	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "bucket should refill after refillRate elapses")
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	l := NewTokenBucketLimiter(1, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "a")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	require.False(t, ok)

	ok, _ = l.Allow(ctx, "b")
	require.True(t, ok, "a different key must have its own bucket")
}

func TestTokenBucketLimiter_Reset(t *testing.T) {
	l := NewTokenBucketLimiter(1, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))

	ok, _ = l.Allow(ctx, "k")
	require.True(t, ok, "reset should return the bucket to full")
}

func TestGuard_UnconfiguredQuotaIsUnlimited(t *testing.T) {
	g := NewGuard(map[Quota]Policy{
		QuotaLLM: {MaxTokens: 1, RefillRate: time.Hour},
	})
	ctx := context.Background()

	ok, err := g.AllowTenant(ctx, QuotaWebSearch, "tenant-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGuard_TenantAndUserBucketsAreIndependent(t *testing.T) {
	g := NewGuard(map[Quota]Policy{
		QuotaLLM: {MaxTokens: 1, RefillRate: time.Hour},
	})
	ctx := context.Background()

	ok, _ := g.AllowTenant(ctx, QuotaLLM, "tenant-1")
	require.True(t, ok)
	ok, _ = g.AllowTenant(ctx, QuotaLLM, "tenant-1")
	require.False(t, ok, "tenant bucket should be exhausted")

	ok, _ = g.AllowUser(ctx, QuotaLLM, "user-1")
	require.True(t, ok, "user bucket is layered independently of the tenant bucket")
}

func TestGuard_SweepDropsIdleBucketsAcrossQuotas(t *testing.T) {
	g := NewGuard(map[Quota]Policy{
		QuotaLLM: {MaxTokens: 1, RefillRate: time.Hour},
	})
	g.limiters[QuotaLLM].idleAfter = 0
	ctx := context.Background()

	_, _ = g.AllowTenant(ctx, QuotaLLM, "tenant-1")
	require.Len(t, g.limiters[QuotaLLM].buckets, 1)

	g.Sweep()
	require.Empty(t, g.limiters[QuotaLLM].buckets)
}
