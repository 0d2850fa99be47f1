package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var hooked []time.Duration
	f.OnSleep = func(d time.Duration) { hooked = append(hooked, d) }

	assert.NoError(t, f.Sleep(context.Background(), time.Second))
	assert.NoError(t, f.Sleep(context.Background(), 500*time.Millisecond))
	f.Advance(time.Minute)

	assert.Equal(t, start.Add(time.Minute+1500*time.Millisecond), f.Now())
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, f.Sleeps())
	assert.Equal(t, hooked, f.Sleeps())
	assert.Equal(t, 1, f.Count(time.Second))
}

func TestFakeSleepCancelled(t *testing.T) {
	f := NewFake(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, f.Sleep(ctx, time.Second), context.Canceled)
	assert.Empty(t, f.Sleeps())
}

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New().Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
