package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) *Config {
	return &Config{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), nil, "connect", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 3 {
		t.Fatalf("got=%d err=%v calls=%d", got, err, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	_, err := Do(context.Background(), fastConfig(2), nil, "connect", func(context.Context) (struct{}, error) {
		return struct{}{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	bad := errors.New("bad url")
	_, err := Do(context.Background(), fastConfig(5), nil, "connect", func(context.Context) (int, error) {
		calls++
		return 0, Permanent(bad)
	})
	if !errors.Is(err, bad) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, fastConfig(3), nil, "connect", func(context.Context) (int, error) {
		t.Fatal("fn should not run")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoffCaps(t *testing.T) {
	cfg := &Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffMultiplier: 2}
	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Fatalf("attempt 0: %v", got)
	}
	if got := calculateBackoff(5, cfg); got != 3*time.Second {
		t.Fatalf("attempt 5: %v", got)
	}
}
