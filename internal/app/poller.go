package app

import (
	"context"
	"errors"
	"time"

	"github.com/five82/petdesk/internal/apperr"
	"github.com/five82/petdesk/internal/logging"
	"github.com/five82/petdesk/internal/route"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
)

// Refresher re-fetches whatever the console is showing.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes r at interval,
// backing off after failures. Ticks are skipped while auth reports no
// session. It returns immediately.
func StartPoller(ctx context.Context, r Refresher, auth route.Authority, interval time.Duration, log logging.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		for {
			wait := interval
			if auth.Authenticated() {
				if err := r.Refresh(ctx); err != nil {
					failures++
					wait = calculateBackoff(failures, interval)
					if errors.Is(err, apperr.ErrSessionExpired) {
						log.Warn(ctx, "session expired during refresh")
					} else {
						log.Warn(ctx, "refresh failed", "error", err, "failures", failures, "retry_in", wait)
					}
				} else {
					failures = 0
				}
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	if failures >= 16 {
		return maxBackoff
	}
	d := base << failures
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}
