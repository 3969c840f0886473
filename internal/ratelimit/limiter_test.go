package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := New(0.001, 1)
	ctx := context.Background()

	// Drain the single burst token.
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("expected context error from exhausted limiter")
	}
}

func TestLimiter_PerHostIsolation(t *testing.T) {
	l := New(0, 1)
	l.SetHostRate("slow.example.com", 0.001, 1)
	ctx := context.Background()

	// The slow host burns its burst token.
	if err := l.WaitHost(ctx, "slow.example.com"); err != nil {
		t.Fatalf("WaitHost() error = %v", err)
	}

	// Other hosts stay unthrottled.
	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := l.WaitHost(ctx, "fast.example.com"); err != nil {
			t.Fatalf("WaitHost() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("fast host blocked for %v", elapsed)
	}

	if l.HostCount() != 2 {
		t.Errorf("HostCount() = %d, want 2", l.HostCount())
	}
}

func TestLimiter_Allow(t *testing.T) {
	l := New(0.001, 1)
	if !l.Allow() {
		t.Error("first Allow() should pass on burst token")
	}
	if l.Allow() {
		t.Error("second Allow() should be throttled")
	}
}
