package pkg

import "time"

const fpsSamples = 200

// Timer measures the time between game ticks. Ebitengine runs Update at a
// fixed rate and does not report the elapsed time, so it is measured here.
type Timer struct {
	now     func() time.Time
	last    time.Time
	delta   time.Duration
	ticks   uint64
	samples [fpsSamples]time.Duration
	sampled int
}

func NewTimer() *Timer {
	return NewTimerWithClock(time.Now)
}

func NewTimerWithClock(now func() time.Time) *Timer {
	return &Timer{now: now}
}

// Tick starts a new tick. The first tick has a zero delta.
func (t *Timer) Tick() {
	now := t.now()
	if t.ticks > 0 {
		t.delta = now.Sub(t.last)
		t.samples[int(t.ticks-1)%fpsSamples] = t.delta
		if t.sampled < fpsSamples {
			t.sampled++
		}
	}
	t.last = now
	t.ticks++
}

func (t *Timer) Delta() time.Duration {
	return t.delta
}

func (t *Timer) DeltaMillis() float64 {
	return float64(t.delta) / float64(time.Millisecond)
}

func (t *Timer) Ticks() uint64 {
	return t.ticks
}

// FPS is the tick rate averaged over the last 200 ticks.
func (t *Timer) FPS() float64 {
	if t.sampled == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range t.samples[:t.sampled] {
		sum += d
	}
	if sum <= 0 {
		return 0
	}

	return float64(t.sampled) / sum.Seconds()
}
