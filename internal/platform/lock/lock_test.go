package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(0)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Acquire(ctx, "booking:1")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex(50 * time.Millisecond)
	ctx := context.Background()

	unlockA, err := m.Acquire(ctx, "booking:a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := m.Acquire(ctx, "booking:b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_WaitBudget(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := m.Acquire(ctx, "booking:1")
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "booking:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	unlock()

	again, err := m.Acquire(ctx, "booking:1")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, m.size())
}
