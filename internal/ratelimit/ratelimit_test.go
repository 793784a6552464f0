package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTTL(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		burst int
		want  time.Duration
	}{
		{name: "full_refill_doubled", rate: 1, burst: 5, want: 10 * time.Second},
		{name: "slow_refill", rate: 0.5, burst: 5, want: 20 * time.Second},
		{name: "fast_refill_floors_at_one_second", rate: 100, burst: 1, want: time.Second},
		{name: "zero_rate_falls_back", rate: 0, burst: 5, want: time.Second},
		{name: "zero_burst_falls_back", rate: 1, burst: 0, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bucketTTL(tt.rate, tt.burst))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name      string
		remaining float64
		rate      float64
		want      time.Duration
	}{
		{name: "empty_bucket", remaining: 0, rate: 0.5, want: 2 * time.Second},
		{name: "partial_token", remaining: 0.5, rate: 0.5, want: time.Second},
		{name: "token_available", remaining: 1, rate: 0.5, want: 0},
		{name: "zero_rate", remaining: 0, rate: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.remaining, tt.rate))
		})
	}
}

func TestAllowValidatesArguments(t *testing.T) {
	ctx := context.Background()

	var missing *TokenBucket
	_, err := missing.Allow(ctx, "k", 1, 1)
	require.Error(t, err)

	require.Nil(t, NewTokenBucket(nil))

	// The client never dials: every case below fails before the script runs.
	bucket := NewTokenBucket(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	require.NotNil(t, bucket)

	_, err = bucket.Allow(ctx, "", 1, 1)
	assert.ErrorContains(t, err, "key")

	_, err = bucket.Allow(ctx, "k", 0, 1)
	assert.ErrorContains(t, err, "rate")

	_, err = bucket.Allow(ctx, "k", 1, 0)
	assert.ErrorContains(t, err, "burst")
}

func TestLockerValidatesArguments(t *testing.T) {
	ctx := context.Background()

	var missing *Locker
	_, _, err := missing.TryLock(ctx, "k", time.Second)
	require.Error(t, err)
	assert.NoError(t, missing.Release(ctx, "k", "token"))

	require.Nil(t, NewLocker(nil))

	locker := NewLocker(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	require.NotNil(t, locker)

	_, _, err = locker.TryLock(ctx, "", time.Second)
	assert.ErrorContains(t, err, "key")

	_, _, err = locker.TryLock(ctx, "k", 0)
	assert.ErrorContains(t, err, "ttl")

	assert.NoError(t, locker.Release(ctx, "", "token"))
	assert.NoError(t, locker.Release(ctx, "k", ""))
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	ctx := context.Background()

	var l *OutputLimiter
	assert.False(t, l.Enabled())

	dec := l.AllowGenerate(ctx, "203.0.113.9")
	assert.True(t, dec.Allowed)
	assert.Zero(t, dec.RetryAfter)

	token, ok := l.TryLockRender(ctx, "1234567890")
	assert.True(t, ok)
	assert.Empty(t, token)

	l.ReleaseRender(ctx, "1234567890", token)
}
