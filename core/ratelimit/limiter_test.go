package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func newFakeClockLimiter(start time.Time) (*Limiter, *time.Time) {
	now := start
	l := New()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheckAllowsUnknownAccount(t *testing.T) {
	l := New()
	if err := l.Check(7); err != nil {
		t.Errorf("Check(unknown account) = %v, want nil", err)
	}
}

func TestCheckAllowsUnderLimit(t *testing.T) {
	l := New()
	for i := 0; i < defaultMaxFailures-1; i++ {
		l.RecordFailure(7)
	}
	if err := l.Check(7); err != nil {
		t.Errorf("Check(under limit) = %v, want nil", err)
	}
}

func TestCheckLocksOutAtLimit(t *testing.T) {
	l, _ := newFakeClockLimiter(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	for i := 0; i < defaultMaxFailures; i++ {
		l.RecordFailure(7)
	}

	err := l.Check(7)
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("Check(at limit) = %v, want *LockedError", err)
	}
	if locked.Remaining != defaultLockout {
		t.Errorf("remaining = %s, want %s", locked.Remaining, defaultLockout)
	}
}

func TestLockoutExpires(t *testing.T) {
	l, now := newFakeClockLimiter(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	for i := 0; i < defaultMaxFailures; i++ {
		l.RecordFailure(7)
	}

	*now = now.Add(defaultLockout + time.Second)

	if err := l.Check(7); err != nil {
		t.Errorf("Check(after lockout) = %v, want nil", err)
	}
}

func TestOldFailuresExpire(t *testing.T) {
	l, now := newFakeClockLimiter(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	for i := 0; i < defaultMaxFailures-1; i++ {
		l.RecordFailure(7)
	}

	*now = now.Add(defaultWindow + time.Second)

	l.RecordFailure(7)
	if err := l.Check(7); err != nil {
		t.Errorf("Check(old failures expired) = %v, want nil", err)
	}
}

func TestIndependentAccounts(t *testing.T) {
	l := New()
	for i := 0; i < defaultMaxFailures; i++ {
		l.RecordFailure(7)
	}
	if err := l.Check(8); err != nil {
		t.Errorf("Check(different account) = %v, want nil", err)
	}
}

func TestResetClearsState(t *testing.T) {
	l := New()
	for i := 0; i < defaultMaxFailures; i++ {
		l.RecordFailure(7)
	}
	l.Reset(7)
	if err := l.Check(7); err != nil {
		t.Errorf("Check(after reset) = %v, want nil", err)
	}
}
