package scheduler

import "time"

// InSession reports whether t falls inside a trading session in loc:
// weekdays 09:30-11:30 and 13:00-15:00 (end exclusive for the afternoon).
func InSession(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h, m := local.Hour(), local.Minute()
	switch {
	case h == 9:
		return m >= 30
	case h == 10:
		return true
	case h == 11:
		return m <= 30
	case h >= 13 && h < 15:
		return true
	}
	return false
}
