package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Split(items, 2))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, Split(items, 50))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, Split(items, 0))
	assert.Nil(t, Split([]int{}, 3))
}

func TestRun_SequentialKeepsGoingAfterFailure(t *testing.T) {
	batches := Split([]string{"a", "b", "c", "d", "e"}, 2)
	boom := errors.New("boom")

	outcomes := Run(context.Background(), batches, 1, func(ctx context.Context, i int, items []string) (int, error) {
		if i == 1 {
			return 0, boom
		}
		return len(items), nil
	})

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].OK())
	assert.Equal(t, 2, outcomes[0].Value)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.Equal(t, []string{"c", "d"}, outcomes[1].Items)
	assert.Equal(t, 1, outcomes[2].Value)
	assert.Equal(t, 1, Failed(outcomes))
}

func TestRun_ParallelOrdersOutcomes(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	var inFlight, peak int32

	outcomes := Run(context.Background(), Split(items, 7), 4, func(ctx context.Context, i int, batch []int) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		if i%3 == 0 {
			return 0, errors.New("fail")
		}
		return batch[0], nil
	})

	require.Len(t, outcomes, 15)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		if i%3 != 0 {
			assert.Equal(t, i*7, o.Value)
		}
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
	assert.Equal(t, 5, Failed(outcomes))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	outcomes := Run(ctx, Split([]int{1, 2, 3}, 1), 1, func(ctx context.Context, i int, items []int) (int, error) {
		called = true
		return 0, nil
	})

	assert.False(t, called)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}
