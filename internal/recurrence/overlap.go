package recurrence

import "time"

// Slot is the time span occupied by an existing occurrence.
type Slot struct {
	Start   time.Time
	Minutes int
}

// End returns the exclusive end of the slot.
func (s Slot) End() time.Time {
	return s.Start.Add(time.Duration(s.Minutes) * time.Minute)
}

// Overlaps reports whether [start, start+minutes) intersects any existing
// slot. A zero duration never conflicts with anything.
func Overlaps(start time.Time, minutes int, existing []Slot) bool {
	if minutes <= 0 {
		return false
	}
	end := start.Add(time.Duration(minutes) * time.Minute)
	for _, s := range existing {
		if latest(start, s.Start).Before(earliest(end, s.End())) {
			return true
		}
	}
	return false
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
