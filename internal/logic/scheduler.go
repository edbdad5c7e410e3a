package logic

import "time"

// Scheduler gates decisions to at most one per interval.
// A decision is allowed only once strictly more than the interval has passed
// since the previous one. It tracks that boundary explicitly, so no timestamp
// is reserved as "idle".
type Scheduler struct {
	interval time.Duration
	next     time.Time
}

// NewScheduler creates a scheduler whose first slot opens just after one interval from start.
func NewScheduler(interval time.Duration, start time.Time) *Scheduler {
	return &Scheduler{
		interval: interval,
		next:     start.Add(interval),
	}
}

// Due reports whether a decision may be made at now.
func (s *Scheduler) Due(now time.Time) bool {
	return now.After(s.next)
}

// Mark records a decision at now and re-arms the gate.
func (s *Scheduler) Mark(now time.Time) {
	s.next = now.Add(s.interval)
}

// Next returns the boundary the next decision must come after.
func (s *Scheduler) Next() time.Time {
	return s.next
}
