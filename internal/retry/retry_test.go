package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solatis/waykeeper/internal/types"
)

var errBoom = errors.New("boom")

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, Policy{BaseDelay: time.Millisecond})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, Policy{BaseDelay: time.Millisecond})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	}, Policy{MaxAttempts: 5, BaseDelay: time.Microsecond})

	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if !errors.Is(err, types.ErrRetryExhausted) {
		t.Errorf("Do() error = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("Do() error = %v, want wrapped original error", err)
	}
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return types.ErrSubscriptionNotFound
	}, Policy{
		MaxAttempts:  5,
		BaseDelay:    time.Microsecond,
		NonRetryable: []error{types.ErrSubscriptionNotFound},
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, types.ErrSubscriptionNotFound) {
		t.Errorf("Do() error = %v, want ErrSubscriptionNotFound", err)
	}
	if errors.Is(err, types.ErrRetryExhausted) {
		t.Errorf("non-retryable error must propagate unchanged, got %v", err)
	}
}

func TestDo_BackoffDoubles(t *testing.T) {
	var delays []time.Duration
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errBoom
	}, Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		Multiplier:  2.0,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("OnRetry invocations = %d, want %d", len(delays), len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDo_MaxDelayCapsBackoff(t *testing.T) {
	var delays []time.Duration
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errBoom
	}, Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    2 * time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	for i, d := range delays {
		if d > 2*time.Millisecond {
			t.Errorf("delay[%d] = %v, exceeds cap", i, d)
		}
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errBoom
	}, Policy{MaxAttempts: 5, BaseDelay: time.Hour})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestDo_OnRetryReceivesAttemptNumbers(t *testing.T) {
	var attempts []int
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errBoom
	}, Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Microsecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
			if !errors.Is(err, errBoom) {
				t.Errorf("OnRetry error = %v, want errBoom", err)
			}
		},
	})

	want := []int{1, 2}
	if len(attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", attempts, want)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Errorf("attempts[%d] = %d, want %d", i, attempts[i], want[i])
		}
	}
}
