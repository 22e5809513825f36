package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/petdesk/internal/logging"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

type staticAuth bool

func (s staticAuth) Authenticated() bool { return bool(s) }

func TestStartPoller_RefreshesWhileAuthenticated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &countingRefresher{}
	StartPoller(ctx, r, staticAuth(true), 5*time.Millisecond, logging.Discard())

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("refresh calls = %d, want >= 2", r.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartPoller_SkipsWithoutSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &countingRefresher{}
	StartPoller(ctx, r, staticAuth(false), 2*time.Millisecond, logging.Discard())

	time.Sleep(30 * time.Millisecond)
	cancel()
	if got := r.calls.Load(); got != 0 {
		t.Fatalf("refresh calls = %d, want 0 while unauthenticated", got)
	}
}
