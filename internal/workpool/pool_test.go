package workpool

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapKeepsOrderAndIsolatesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	results := Map(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("bad item")
		}
		if n == 5 {
			panic("boom")
		}
		return n * 10, nil
	})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	if got := Values(results); !reflect.DeepEqual(got, []int{10, 20, 40, 60}) {
		t.Fatalf("unexpected values: %v", got)
	}
	if Failures(results) != 2 {
		t.Fatalf("expected 2 failures, got %d", Failures(results))
	}
	if results[2].Err == nil || results[4].Err == nil {
		t.Fatalf("expected errors at index 2 and 4")
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var active, peak int32
	items := make([]int, 40)
	Map(context.Background(), 4, items, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return struct{}{}, nil
	})
	if peak > 4 {
		t.Fatalf("expected at most 4 concurrent workers, saw %d", peak)
	}
}

func TestMapCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Map(ctx, 2, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Fatalf("result %d: expected canceled, got %v", i, r.Err)
		}
	}
}
