package workers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 4})

	var ran atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Submit(fmt.Sprintf("task-%d", i), func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	results := pool.Wait()
	if len(results) != 20 {
		t.Fatalf("got %d results, want 20", len(results))
	}
	if ran.Load() != 20 {
		t.Errorf("ran %d tasks, want 20", ran.Load())
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("task %s failed: %v", r.Name, r.Error)
		}
	}
}

func TestPoolReportsFailures(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})

	wantErr := errors.New("descriptor rejected")
	pool.Submit("good", func(ctx context.Context) error { return nil })
	pool.Submit("bad", func(ctx context.Context) error { return wantErr })

	failures := 0
	for _, r := range pool.Wait() {
		if r.Error != nil {
			failures++
			if r.Name != "bad" {
				t.Errorf("unexpected failing task: %s", r.Name)
			}
		}
	}
	if failures != 1 {
		t.Errorf("got %d failures, want 1", failures)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})

	var active, peak atomic.Int64
	for i := 0; i < 10; i++ {
		pool.Submit(fmt.Sprintf("task-%d", i), func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil
		})
	}
	pool.Wait()

	if peak.Load() > 2 {
		t.Errorf("observed %d concurrent tasks, want at most 2", peak.Load())
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("still being written")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}

	wantErr := errors.New("permanent failure")
	err := Retry(context.Background(), cfg, func() error { return wantErr })
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
}
