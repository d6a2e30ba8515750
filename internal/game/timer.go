package game

import (
	"fmt"
	"time"
)

// Timer is a pause-aware match countdown. Time spent paused counts toward
// neither elapsed nor remaining time.
type Timer struct {
	clock Clock

	start       time.Time
	end         time.Time
	paused      bool
	pauseStart  time.Time
	totalPaused time.Duration
}

// NewTimer starts a countdown of duration on clock. A nil clock uses the
// system clock.
func NewTimer(duration time.Duration, clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	t := &Timer{clock: clock}
	t.Reset(duration)
	return t
}

// Reset reinitializes the timer as if newly created
func (t *Timer) Reset(duration time.Duration) {
	t.start = t.clock.Now()
	t.end = t.start.Add(duration)
	t.paused = false
	t.pauseStart = time.Time{}
	t.totalPaused = 0
}

// Pause freezes the timer. No-op if already paused.
func (t *Timer) Pause() {
	if t.paused {
		return
	}
	t.paused = true
	t.pauseStart = t.clock.Now()
}

// Resume continues after a pause. No-op if not paused.
func (t *Timer) Resume() {
	if !t.paused {
		return
	}
	t.totalPaused += t.clock.Now().Sub(t.pauseStart)
	t.paused = false
}

// IsPaused reports whether the timer is frozen
func (t *Timer) IsPaused() bool { return t.paused }

// now is the reference instant: the pause start while paused
func (t *Timer) now() time.Time {
	if t.paused {
		return t.pauseStart
	}
	return t.clock.Now()
}

// Remaining returns the unpaused time left, never below zero
func (t *Timer) Remaining() time.Duration {
	left := t.end.Sub(t.now()) + t.totalPaused
	if left < 0 {
		return 0
	}
	return left
}

// Elapsed returns the unpaused time since start
func (t *Timer) Elapsed() time.Duration {
	e := t.now().Sub(t.start) - t.totalPaused
	if e < 0 {
		return 0
	}
	return e
}

// Duration returns the configured countdown length
func (t *Timer) Duration() time.Duration { return t.end.Sub(t.start) }

// IsTimeUp reports whether the countdown reached zero
func (t *Timer) IsTimeUp() bool { return t.Remaining() <= 0 }

// RemainingFormatted renders the remaining time as MM:SS
func (t *Timer) RemainingFormatted() string { return FormatClock(t.Remaining()) }

// ElapsedFormatted renders the elapsed time as MM:SS
func (t *Timer) ElapsedFormatted() string { return FormatClock(t.Elapsed()) }

// FormatClock renders d as zero-padded MM:SS, truncating partial seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
