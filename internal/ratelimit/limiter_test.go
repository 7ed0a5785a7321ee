package ratelimit

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// testClock is a controllable clock for limiter tests
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Unix(1700000000, 0)}
}

func (c *testClock) now() time.Time {
	return c.current
}

func (c *testClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestLimiter(max int, period time.Duration) (*Limiter, *testClock) {
	clock := newTestClock()
	l := New(NewMemoryStore(), max, period, nil).WithClock(clock.now)
	return l, clock
}

func TestAdmitUpToCap(t *testing.T) {
	l, _ := newTestLimiter(5, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !l.Admit(ctx, "192.0.2.1") {
			t.Fatalf("attempt %d should have been admitted", i+1)
		}
	}
	if l.Admit(ctx, "192.0.2.1") {
		t.Fatal("attempt beyond the cap should have been rejected")
	}
}

func TestCapHoldsForSameInstantAttempts(t *testing.T) {
	// The clock never advances: every attempt lands on the same timestamp
	// and each admitted one must still count against the cap
	l, _ := newTestLimiter(2, time.Hour)
	ctx := context.Background()

	admitted := 0
	for i := 0; i < 10; i++ {
		if l.Admit(ctx, "192.0.2.1") {
			admitted++
		}
	}
	if admitted != 2 {
		t.Fatalf("admitted %d attempts at one instant, cap is 2", admitted)
	}
}

func TestRejectedAttemptNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(2, time.Hour)
	ctx := context.Background()

	l.Admit(ctx, "192.0.2.1")
	clock.advance(30 * time.Minute)
	l.Admit(ctx, "192.0.2.1")

	// Hammering at the cap must not extend the lockout: once the first
	// attempt expires, the client gets a slot back
	for i := 0; i < 10; i++ {
		clock.advance(time.Minute)
		if l.Admit(ctx, "192.0.2.1") {
			t.Fatal("attempt should be rejected while both entries are live")
		}
	}

	// First entry is now past the window (60+10 min elapsed since it)
	clock.advance(21 * time.Minute)
	if !l.Admit(ctx, "192.0.2.1") {
		t.Fatal("expected readmission after the oldest entry expired")
	}
}

func TestWindowBoundaryIsStrict(t *testing.T) {
	l, clock := newTestLimiter(1, time.Hour)
	ctx := context.Background()

	if !l.Admit(ctx, "192.0.2.1") {
		t.Fatal("first attempt should be admitted")
	}

	// An entry aged exactly one period is expired
	clock.advance(time.Hour)
	if !l.Admit(ctx, "192.0.2.1") {
		t.Fatal("entry exactly at the window age should have expired")
	}
}

func TestReadmissionAfterWindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Admit(ctx, "192.0.2.1") {
			t.Fatalf("attempt %d should have been admitted", i+1)
		}
	}
	if l.Admit(ctx, "192.0.2.1") {
		t.Fatal("cap should be in effect")
	}

	clock.advance(time.Hour + time.Second)
	if !l.Admit(ctx, "192.0.2.1") {
		t.Fatal("expected admission after the window expired")
	}
}

func TestClientsAreIsolated(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour)
	ctx := context.Background()

	if !l.Admit(ctx, "192.0.2.1") {
		t.Fatal("first client should be admitted")
	}
	if l.Admit(ctx, "192.0.2.1") {
		t.Fatal("first client should now be capped")
	}
	if !l.Admit(ctx, "192.0.2.2") {
		t.Fatal("second client must not share the first client's window")
	}
	// A client whose identifier is a prefix of another must not see its
	// entries
	if !l.Admit(ctx, "192.0.2.10") {
		t.Fatal("prefix-overlapping client must have its own window")
	}
}

// For any sequence of attempts, the number of admissions inside any
// trailing window never exceeds the configured maximum.
func TestAdmissionWindowProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 5).Draw(t, "max")
		period := time.Duration(rapid.IntRange(10, 3600).Draw(t, "periodSec")) * time.Second

		clock := newTestClock()
		l := New(NewMemoryStore(), max, period, nil).WithClock(clock.now)
		ctx := context.Background()

		attempts := rapid.IntRange(1, 60).Draw(t, "attempts")
		var admittedAt []time.Time

		for i := 0; i < attempts; i++ {
			gap := time.Duration(rapid.Int64Range(0, int64(period)/4).Draw(t, "gap"))
			clock.advance(gap)

			if l.Admit(ctx, "client") {
				admittedAt = append(admittedAt, clock.current)
			}

			// Count admissions within the trailing window ending now
			count := 0
			for _, ts := range admittedAt {
				age := clock.current.Sub(ts)
				if age < period {
					count++
				}
			}
			if count > max {
				t.Fatalf("window holds %d admissions, cap is %d", count, max)
			}
		}
	})
}
