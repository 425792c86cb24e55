package engine

import "testing"

func TestDeltaClock_FirstEventIsZero(t *testing.T) {
	c := newDeltaClock(1e-3)
	if d := c.Delta(5000); d != 0.0 {
		t.Fatalf("first delta = %v, want 0.0", d)
	}
	if d := c.Delta(5250); d != 0.25 {
		t.Fatalf("second delta = %v, want 0.25", d)
	}
}

func TestDeltaClock_AdvancesOnEveryEvent(t *testing.T) {
	c := newDeltaClock(1e-3)
	c.Delta(1000)
	c.Delta(2000) // Reference moves even if this event is dropped downstream.
	if d := c.Delta(3000); d != 1.0 {
		t.Fatalf("delta = %v, want 1.0", d)
	}
}

func TestDeltaClock_WrapClampsToZero(t *testing.T) {
	c := newDeltaClock(1e-3)
	c.Delta(10000)
	if d := c.Delta(100); d != 0.0 {
		t.Fatalf("backwards timestamp delta = %v, want 0.0", d)
	}
	// The regressed stamp becomes the new reference.
	if d := c.Delta(1100); d != 1.0 {
		t.Fatalf("delta after wrap = %v, want 1.0", d)
	}
}

func TestDeltaClock_UnstampedBackend(t *testing.T) {
	c := newDeltaClock(0)
	for _, ts := range []uint64{10, 500, 90000} {
		if d := c.Delta(ts); d != 0.0 {
			t.Fatalf("Delta(%d) = %v, want 0.0 for unstamped backend", ts, d)
		}
	}
}

func TestDeltaClock_ResetRestoresFirstEvent(t *testing.T) {
	c := newDeltaClock(1e-3)
	c.Delta(1000)
	c.Delta(2000)
	c.Reset()
	if d := c.Delta(9000); d != 0.0 {
		t.Fatalf("delta after reset = %v, want 0.0", d)
	}
}
