package session

import (
	"sort"
	"testing"
	"time"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWatchdog() (*Watchdog, *clock) {
	c := &clock{t: time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC)}
	w := NewWatchdog(30*time.Minute, nil)
	w.SetClock(c.now)
	return w, c
}

func TestTouchKeepsActiveSessionAlive(t *testing.T) {
	w, c := newTestWatchdog()

	if !w.Touch("s-1", "u-1") {
		t.Fatal("first touch should register the session")
	}
	for i := 0; i < 5; i++ {
		c.advance(20 * time.Minute)
		if !w.Touch("s-1", "u-1") {
			t.Fatalf("touch %d: session expired despite activity", i)
		}
	}
}

func TestIdleSessionExpiresOnTouch(t *testing.T) {
	w, c := newTestWatchdog()
	w.Touch("s-1", "u-1")

	c.advance(31 * time.Minute)
	if w.Touch("s-1", "u-1") {
		t.Fatal("idle session should be refused")
	}
	if w.Touch("s-1", "u-1") {
		t.Fatal("expired session must not be revived by a later touch")
	}
}

func TestSuppressWindowOutlastsTimeout(t *testing.T) {
	w, c := newTestWatchdog()
	w.Touch("s-1", "u-1")
	w.Suppress("s-1", 2*time.Hour)

	c.advance(90 * time.Minute)
	if !w.Active("s-1") {
		t.Fatal("session inside suppress window should be active")
	}
	if swept := w.Sweep(c.now(), time.Hour); len(swept) != 0 {
		t.Fatalf("sweep expired suppressed sessions: %v", swept)
	}

	w.Release("s-1")
	c.advance(31 * time.Minute)
	if w.Active("s-1") {
		t.Fatal("session should go idle once the window is released")
	}
}

func TestSweepExpiresOnlyIdleSessions(t *testing.T) {
	w, c := newTestWatchdog()
	w.Touch("old-1", "u-1")
	w.Touch("old-2", "u-2")
	c.advance(25 * time.Minute)
	w.Touch("fresh", "u-3")
	c.advance(10 * time.Minute)

	swept := w.Sweep(c.now(), time.Hour)
	sort.Strings(swept)
	if len(swept) != 2 || swept[0] != "old-1" || swept[1] != "old-2" {
		t.Fatalf("swept: got %v, want [old-1 old-2]", swept)
	}
	if !w.Active("fresh") {
		t.Error("fresh session should survive the sweep")
	}
	if _, ok := w.Lookup("old-1"); ok {
		t.Error("swept session still present")
	}

	c.advance(2 * time.Hour)
	w.Sweep(c.now(), time.Hour)
	if _, ok := w.expired["old-1"]; ok {
		t.Error("old tombstone not pruned")
	}
	if _, ok := w.expired["fresh"]; !ok {
		t.Error("fresh session should now be tombstoned")
	}
}

func TestEndForgetsSession(t *testing.T) {
	w, _ := newTestWatchdog()
	w.Touch("s-1", "u-1")
	w.End("s-1")
	if w.Touch("s-1", "u-1") {
		t.Fatal("ended session must not be reusable")
	}
}
