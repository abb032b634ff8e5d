package clock

import "time"

// Clock abstracts wall-clock reads so time-derived predicates can be
// tested without sleeping.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock pinned to a settable instant.
type Fixed struct {
	Time time.Time
}

func (f *Fixed) Now() time.Time {
	return f.Time
}

func (f *Fixed) Advance(d time.Duration) {
	f.Time = f.Time.Add(d)
}
