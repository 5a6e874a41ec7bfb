package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hourBoundary = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestBucketStart_HourBoundary(t *testing.T) {
	before := BucketStart(hourBoundary.Add(-time.Millisecond), time.Hour)
	at := BucketStart(hourBoundary, time.Hour)
	after := BucketStart(hourBoundary.Add(time.Millisecond), time.Hour)

	assert.Equal(t, hourBoundary.Add(-time.Hour), before)
	assert.Equal(t, hourBoundary, at)
	assert.Equal(t, hourBoundary, after)
	assert.NotEqual(t, BucketKey("ip", before), BucketKey("ip", at))
}

func TestBucketStart_UsesUTCRegardlessOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC+05:30", 5*3600+1800)
	local := hourBoundary.Add(15 * time.Minute).In(loc)

	assert.Equal(t, hourBoundary, BucketStart(local, time.Hour))
}

func TestBucketKey_Format(t *testing.T) {
	assert.Equal(t, "ratelimit_203.0.113.7_"+strconv.FormatInt(hourBoundary.UnixMilli(), 10),
		BucketKey("203.0.113.7", hourBoundary))
}

func TestRateLimiter_EmptyBucketAllowsAndIncrements(t *testing.T) {
	kv := newFakeKV()
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	dec := l.Decide(context.Background(), "1.2.3.4", hourBoundary.Add(time.Minute))
	assert.True(t, dec.Allowed)
	assert.Equal(t, 4, dec.Remaining)
	assert.Equal(t, 5, dec.Limit)

	puts := kv.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, BucketKey("1.2.3.4", hourBoundary), puts[0].key)
	assert.Equal(t, "1", puts[0].value)
	assert.Equal(t, time.Hour, puts[0].ttl)
}

func TestRateLimiter_CountFourAllowsWithZeroRemaining(t *testing.T) {
	kv := newFakeKV()
	kv.data[BucketKey("1.2.3.4", hourBoundary)] = "4"
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	dec := l.Decide(context.Background(), "1.2.3.4", hourBoundary.Add(time.Minute))
	assert.True(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	assert.Equal(t, "5", kv.data[BucketKey("1.2.3.4", hourBoundary)])
}

func TestRateLimiter_CountFiveRejectsWithoutIncrement(t *testing.T) {
	kv := newFakeKV()
	kv.data[BucketKey("1.2.3.4", hourBoundary)] = "5"
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	now := hourBoundary.Add(45 * time.Minute)
	dec := l.Decide(context.Background(), "1.2.3.4", now)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	assert.Equal(t, 15*time.Minute, dec.RetryAfter)
	assert.Empty(t, kv.Puts())
}

func TestRateLimiter_NewBucketAfterBoundary(t *testing.T) {
	kv := newFakeKV()
	kv.data[BucketKey("1.2.3.4", hourBoundary.Add(-time.Hour))] = "5"
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	dec := l.Decide(context.Background(), "1.2.3.4", hourBoundary)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 4, dec.Remaining)
}

func TestRateLimiter_FailsOpenOnStoreError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errStoreDown
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	dec := l.Decide(context.Background(), "1.2.3.4", hourBoundary)
	assert.True(t, dec.Allowed)
	assert.True(t, dec.Degraded)
	assert.Equal(t, 4, dec.Remaining)

	kv = newFakeKV()
	kv.putErr = errStoreDown
	l.Store = kv
	dec = l.Decide(context.Background(), "1.2.3.4", hourBoundary)
	assert.True(t, dec.Allowed)
	assert.True(t, dec.Degraded)
}

func TestRateLimiter_CorruptCounterTreatedAsZero(t *testing.T) {
	kv := newFakeKV()
	kv.data[BucketKey("1.2.3.4", hourBoundary)] = "not-a-number"
	l := RateLimiter{Store: kv, Limit: 5, Window: time.Hour}

	dec := l.Decide(context.Background(), "1.2.3.4", hourBoundary)
	assert.True(t, dec.Allowed)
	assert.Equal(t, "1", kv.data[BucketKey("1.2.3.4", hourBoundary)])
}

func TestRateLimiter_SeparateClientsSeparateBuckets(t *testing.T) {
	kv := newFakeKV()
	l := RateLimiter{Store: kv, Limit: 1, Window: time.Hour}

	assert.True(t, l.Decide(context.Background(), "a", hourBoundary).Allowed)
	assert.False(t, l.Decide(context.Background(), "a", hourBoundary).Allowed)
	assert.True(t, l.Decide(context.Background(), "b", hourBoundary).Allowed)
}
