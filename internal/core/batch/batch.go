// Package batch splits title lists into fixed-size groups and runs one call
// per group, collecting every outcome rather than stopping at the first
// failure.
package batch

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Split partitions items into consecutive groups of at most size elements.
// A non-positive size yields a single group.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Outcome is the result of one batch call. Err is set when the call failed;
// Value then holds whatever fn returned alongside the error.
type Outcome[I, V any] struct {
	Index int
	Items []I
	Value V
	Err   error
}

func (o Outcome[I, V]) OK() bool { return o.Err == nil }

// Func performs the call for one batch.
type Func[I, V any] func(ctx context.Context, index int, items []I) (V, error)

// Run calls fn once per batch. With workers <= 1 batches run sequentially in
// order; otherwise at most workers calls are in flight. Outcomes are returned
// ordered by batch index. Run stops scheduling new batches once ctx is done;
// unscheduled batches are reported with ctx.Err().
func Run[I, V any](ctx context.Context, batches [][]I, workers int, fn Func[I, V]) []Outcome[I, V] {
	outcomes := make([]Outcome[I, V], 0, len(batches))
	if workers <= 1 {
		for i, items := range batches {
			if err := ctx.Err(); err != nil {
				outcomes = append(outcomes, Outcome[I, V]{Index: i, Items: items, Err: err})
				continue
			}
			v, err := fn(ctx, i, items)
			outcomes = append(outcomes, Outcome[I, V]{Index: i, Items: items, Value: v, Err: err})
		}
		return outcomes
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, items := range batches {
		i, items := i, items
		g.Go(func() error {
			var o Outcome[I, V]
			if err := gctx.Err(); err != nil {
				o = Outcome[I, V]{Index: i, Items: items, Err: err}
			} else {
				v, err := fn(gctx, i, items)
				o = Outcome[I, V]{Index: i, Items: items, Value: v, Err: err}
			}
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
			// A failed batch must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].Index < outcomes[b].Index })
	return outcomes
}

// Failed counts outcomes with an error.
func Failed[I, V any](outcomes []Outcome[I, V]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
