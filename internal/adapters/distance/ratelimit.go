package distance

import (
	"context"
	"sync"
	"time"
)

const waitStep = 50 * time.Millisecond

// RateLimiter enforces per-second and per-day call quotas against the
// routing provider. Wait suspends the caller in small increments until a
// slot in the one-second window frees up; it is not a hard failure.
// A caller that would exceed the daily quota gets ErrDailyQuotaExceeded
// instead of an hours-long sleep.
//
// Safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	perSecond int
	perDay    int
	window    []time.Time // call timestamps within the last second
	day       string
	dayCount  int
	now       func() time.Time
}

func NewRateLimiter(perSecond, perDay int) *RateLimiter {
	return &RateLimiter{
		perSecond: perSecond,
		perDay:    perDay,
		now:       time.Now,
	}
}

// Wait blocks until a call slot is available, then records the call.
func (l *RateLimiter) Wait(ctx context.Context) error {
	for {
		ok, err := l.tryAcquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(waitStep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RateLimiter) tryAcquire() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	day := now.Format("2006-01-02")
	if day != l.day {
		l.day = day
		l.dayCount = 0
	}
	if l.perDay > 0 && l.dayCount >= l.perDay {
		return false, ErrDailyQuotaExceeded
	}

	cutoff := now.Add(-time.Second)
	kept := l.window[:0]
	for _, t := range l.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.window = kept

	if l.perSecond > 0 && len(l.window) >= l.perSecond {
		return false, nil
	}

	l.window = append(l.window, now)
	l.dayCount++
	return true, nil
}
