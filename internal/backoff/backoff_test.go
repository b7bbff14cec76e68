package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	p := Policy{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 2, Jitter: 0.5}

	tests := []struct {
		attempt int
		r       float64
		want    time.Duration
	}{
		{attempt: 0, r: 0, want: 100 * time.Millisecond},
		{attempt: 1, r: 0, want: 100 * time.Millisecond},
		{attempt: 2, r: 0, want: 200 * time.Millisecond},
		{attempt: 3, r: 0.5, want: 500 * time.Millisecond},
		{attempt: 10, r: 0, want: time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt, tt.r); got != tt.want {
			t.Errorf("Delay(%d, %v) = %v, want %v", tt.attempt, tt.r, got, tt.want)
		}
	}
}

func TestRetry(t *testing.T) {
	fast := Policy{Initial: time.Millisecond, Max: 2 * time.Millisecond, Factor: 2}
	boom := errors.New("connection refused")

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fast, 3, func(attempt int) error {
			calls++
			if attempt < 3 {
				return boom
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("Retry() = %v after %d calls", err, calls)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		err := Retry(context.Background(), fast, 2, func(int) error { return boom })
		if !errors.Is(err, ErrAttemptsExhausted) || !errors.Is(err, boom) {
			t.Fatalf("Retry() = %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := Retry(ctx, fast, 5, func(int) error { calls++; return boom })
		if !errors.Is(err, context.Canceled) || calls != 0 {
			t.Fatalf("Retry() = %v after %d calls", err, calls)
		}
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		calls := 0
		_ = Retry(context.Background(), fast, 0, func(int) error { calls++; return nil })
		if calls != 1 {
			t.Fatalf("calls = %d", calls)
		}
	})
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep() = %v", err)
	}
}
