package chainsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerAdvanceIsMonotonic(t *testing.T) {
	tr := NewTracker()
	tr.Advance(10)
	tr.Advance(5)
	assert.Equal(t, uint64(10), tr.Height())
}

func TestWaitForHeightReturnsImmediatelyWhenPast(t *testing.T) {
	tr := NewTracker()
	tr.Advance(10)

	height, advanced, err := tr.WaitForHeight(context.Background(), 5, time.Second)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, uint64(10), height)
}

func TestWaitForHeightWakesOnAdvance(t *testing.T) {
	tr := NewTracker()
	tr.Advance(10)

	go func() {
		time.Sleep(20 * time.Millisecond)
		tr.Advance(11)
	}()

	height, advanced, err := tr.WaitForHeight(context.Background(), 10, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, uint64(11), height)
}

func TestWaitForHeightTimesOut(t *testing.T) {
	tr := NewTracker()
	tr.Advance(10)

	height, advanced, err := tr.WaitForHeight(context.Background(), 10, 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, uint64(10), height)
}

func TestWaitForHeightHonorsContext(t *testing.T) {
	tr := NewTracker()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, advanced, err := tr.WaitForHeight(ctx, 0, 5*time.Second)
	assert.False(t, advanced)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForHeightWakesAllWaiters(t *testing.T) {
	tr := NewTracker()

	done := make(chan uint64, 3)
	for i := 0; i < 3; i++ {
		go func() {
			height, _, _ := tr.WaitForHeight(context.Background(), 0, 5*time.Second)
			done <- height
		}()
	}

	time.Sleep(20 * time.Millisecond)
	tr.Advance(1)

	for i := 0; i < 3; i++ {
		select {
		case h := <-done:
			assert.Equal(t, uint64(1), h)
		case <-time.After(time.Second):
			t.Fatal("waiter did not wake")
		}
	}
}
