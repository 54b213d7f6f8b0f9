package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultMaxFailures = 5
	defaultWindow      = 15 * time.Minute
	defaultLockout     = 15 * time.Minute
)

// LockedError is returned by Check while an account is locked out.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed verification attempts, try again in %s", e.Remaining.Truncate(time.Second))
}

type record struct {
	failures []time.Time
	lockedAt time.Time
}

// Limiter counts failed verification-code submissions per account and
// locks out accounts that exceed the threshold inside the window.
type Limiter struct {
	maxFailures int
	window      time.Duration
	lockout     time.Duration

	mu      sync.Mutex
	records map[int64]*record
	now     func() time.Time
}

// New creates a limiter with the default thresholds.
func New() *Limiter {
	return &Limiter{
		maxFailures: defaultMaxFailures,
		window:      defaultWindow,
		lockout:     defaultLockout,
		records:     make(map[int64]*record),
		now:         time.Now,
	}
}

// Check returns a *LockedError if the account is currently locked out.
func (l *Limiter) Check(accountID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.records[accountID]
	if r == nil || r.lockedAt.IsZero() {
		return nil
	}

	elapsed := l.now().Sub(r.lockedAt)
	if elapsed < l.lockout {
		return &LockedError{Remaining: l.lockout - elapsed}
	}
	delete(l.records, accountID)
	return nil
}

// RecordFailure records a rejected code for the account.
func (l *Limiter) RecordFailure(accountID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	r := l.records[accountID]
	if r == nil {
		r = &record{}
		l.records[accountID] = r
	}

	cutoff := now.Add(-l.window)
	fresh := r.failures[:0]
	for _, t := range r.failures {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	r.failures = append(fresh, now)

	if len(r.failures) >= l.maxFailures {
		r.lockedAt = now
	}
}

// Reset clears all failure state for an account after a successful link.
func (l *Limiter) Reset(accountID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, accountID)
}
