package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter_DisabledWhenZeroRPS(t *testing.T) {
	limiter := New(0, 0.5)
	if limiter != nil {
		t.Fatalf("expected nil limiter for 0 rps")
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("disabled limiter should not block")
	}
	if limiter.Interval() != 0 {
		t.Errorf("expected zero interval, got %v", limiter.Interval())
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := New(10, 0) // 100ms interval
	ctx := context.Background()

	// The bucket starts full.
	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 20*time.Millisecond {
		t.Errorf("first wait should be immediate, took %v", time.Since(start))
	}

	start = time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	duration := time.Since(start)
	if duration < 50*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := New(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLimiter_Jitter(t *testing.T) {
	limiter := New(10, 0.5) // up to 50ms extra
	ctx := context.Background()

	_ = limiter.Wait(ctx)

	start := time.Now()
	_ = limiter.Wait(ctx)
	duration := time.Since(start)

	// The first call's jitter eats into the refill time of the second token.
	if duration < 40*time.Millisecond || duration > 300*time.Millisecond {
		t.Errorf("expected jittered wait between 50ms and 150ms, took %v", duration)
	}
}

func TestNew_ClampsJitter(t *testing.T) {
	if l := New(1, 7); l.jitter != 1 {
		t.Errorf("expected jitter clamped to 1, got %v", l.jitter)
	}
	if l := New(1, -2); l.jitter != 0 {
		t.Errorf("expected jitter clamped to 0, got %v", l.jitter)
	}
	if l := New(4, 0); l.Interval() != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %v", l.Interval())
	}
}
