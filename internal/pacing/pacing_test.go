package pacing

import (
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestIsDue(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		nominal time.Duration
		want    bool
	}{
		{"before", 29 * time.Millisecond, 30 * time.Millisecond, false},
		{"exactly", 30 * time.Millisecond, 30 * time.Millisecond, true},
		{"after", 31 * time.Millisecond, 30 * time.Millisecond, true},
		{"zero elapsed", 0, 30 * time.Millisecond, false},
		{"undefined rate", 0, 0, true},
		{"negative rate", 0, -time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(t0, tt.nominal, t0.Add(tt.elapsed)); got != tt.want {
				t.Errorf("IsDue(elapsed=%v, nominal=%v) = %v, want %v", tt.elapsed, tt.nominal, got, tt.want)
			}
		})
	}
}

// admitAll simulates a render loop sampling the timer at each now and
// accepting whenever it is due.
func admitAll(tm *Timer, nominal time.Duration, samples []time.Time) []time.Time {
	var admitted []time.Time
	for _, now := range samples {
		if tm.Due(nominal, now) {
			tm.Accept(now)
			admitted = append(admitted, now)
		}
	}
	return admitted
}

func TestTimerFiresOncePerInterval(t *testing.T) {
	const nominal = 30 * time.Millisecond
	var samples []time.Time
	for i := 1; i <= 100; i++ {
		samples = append(samples, t0.Add(time.Duration(i)*time.Millisecond))
	}

	var tm Timer
	tm.Start(t0)
	admitted := admitAll(&tm, nominal, samples)

	if len(admitted) != 3 {
		t.Fatalf("admitted %d frames in 100ms at 30ms, want 3: %v", len(admitted), admitted)
	}
	prev := t0
	for _, a := range admitted {
		if a.Sub(prev) < nominal {
			t.Errorf("admission at %v only %v after previous", a.Sub(t0), a.Sub(prev))
		}
		prev = a
	}
}

func TestTimerIrregularSamples(t *testing.T) {
	const nominal = 30 * time.Millisecond
	offsets := []time.Duration{5, 40, 41, 69, 70, 71, 200, 201}
	var samples []time.Time
	for _, o := range offsets {
		samples = append(samples, t0.Add(o*time.Millisecond))
	}

	var tm Timer
	tm.Start(t0)
	admitted := admitAll(&tm, nominal, samples)

	want := []time.Duration{40, 70, 200}
	if len(admitted) != len(want) {
		t.Fatalf("admitted %d, want %d", len(admitted), len(want))
	}
	for i, a := range admitted {
		if a.Sub(t0) != want[i]*time.Millisecond {
			t.Errorf("admission %d at %v, want %v", i, a.Sub(t0), want[i]*time.Millisecond)
		}
	}
}

func TestTimerNeverDueWhilePaused(t *testing.T) {
	var tm Timer
	tm.Start(t0)
	tm.Pause(t0.Add(10 * time.Millisecond))

	for i := 0; i < 50; i++ {
		now := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		if tm.Due(30*time.Millisecond, now) {
			t.Fatalf("paused timer due at %v", now.Sub(t0))
		}
		if tm.Due(0, now) {
			t.Fatalf("paused timer with undefined rate due at %v", now.Sub(t0))
		}
	}
}

func TestTimerPauseResumeNoBacklog(t *testing.T) {
	const nominal = 30 * time.Millisecond

	t.Run("zero length pause", func(t *testing.T) {
		var tm Timer
		tm.Start(t0)
		now := t0.Add(20 * time.Millisecond)
		tm.Pause(now)
		tm.Resume(now)
		if tm.Last() != t0 {
			t.Errorf("Last() = %v, want unchanged", tm.Last().Sub(t0))
		}
		if tm.Due(nominal, now) {
			t.Error("due immediately after zero length toggle")
		}
		if !tm.Due(nominal, t0.Add(nominal)) {
			t.Error("not due at the original deadline")
		}
	})

	t.Run("long pause", func(t *testing.T) {
		var tm Timer
		tm.Start(t0)
		tm.Pause(t0.Add(20 * time.Millisecond))
		resume := t0.Add(10 * time.Second)
		tm.Resume(resume)

		// 20ms of the interval had elapsed before the pause; 10 remain.
		if tm.Due(nominal, resume.Add(9*time.Millisecond)) {
			t.Error("due before the remaining share of the interval")
		}
		var samples []time.Time
		for i := 1; i <= 100; i++ {
			samples = append(samples, resume.Add(time.Duration(i)*time.Millisecond))
		}
		admitted := admitAll(&tm, nominal, samples)
		if len(admitted) != 4 {
			t.Errorf("admitted %d frames in 100ms after resume, want 4", len(admitted))
		}
	})
}

func TestTimerAcceptMonotonic(t *testing.T) {
	var tm Timer
	tm.Start(t0.Add(time.Second))
	tm.Accept(t0)
	if tm.Last() != t0.Add(time.Second) {
		t.Errorf("Accept moved the reference backwards to %v", tm.Last())
	}
}

func TestTimerUntil(t *testing.T) {
	var tm Timer
	tm.Start(t0)
	if got := tm.Until(30*time.Millisecond, t0.Add(10*time.Millisecond)); got != 20*time.Millisecond {
		t.Errorf("Until = %v, want 20ms", got)
	}
	if got := tm.Until(30*time.Millisecond, t0.Add(time.Second)); got != 0 {
		t.Errorf("Until overdue = %v, want 0", got)
	}
	if got := tm.Until(0, t0); got != 0 {
		t.Errorf("Until undefined rate = %v, want 0", got)
	}
}

func TestControlToggle(t *testing.T) {
	c := NewControl()
	if c.State() != Playing {
		t.Fatalf("initial state = %v, want playing", c.State())
	}

	prev, next := c.Toggle(nil)
	if prev != Playing || next != Paused {
		t.Errorf("Toggle(nil) = %v -> %v, want playing -> paused", prev, next)
	}

	paused := Paused
	prev, next = c.Toggle(&paused)
	if prev != Paused || next != Paused {
		t.Errorf("Toggle(&Paused) = %v -> %v, want idempotent", prev, next)
	}

	_, next = c.Toggle(nil)
	if next != Playing {
		t.Errorf("Toggle(nil) from paused = %v, want playing", next)
	}
}

func TestControlConcurrentToggle(t *testing.T) {
	c := NewControl()
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Toggle(nil)
		}()
	}
	wg.Wait()
	// An even number of flips returns to the start.
	if c.State() != Playing {
		t.Errorf("state after 100 flips = %v, want playing", c.State())
	}
}

func TestStateString(t *testing.T) {
	if Playing.String() != "playing" || Paused.String() != "paused" || State(7).String() != "unknown" {
		t.Error("unexpected State.String output")
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(t0)
	c.Advance(10 * time.Millisecond)
	if got := c.Now().Sub(t0); got != 10*time.Millisecond {
		t.Errorf("ManualClock advanced %v, want 10ms", got)
	}
}
