// Package streak computes consecutive-day solve streaks.
//
// A streak counts calendar days, not 24h windows: solving at 23:59 and again
// at 00:01 the next day extends the streak by one.
package streak

import "time"

// Next returns the streak value after a solve on today, given the previous
// solve date and the current streak.
//
// Rules:
//   - no prior solve            -> 1
//   - same calendar day         -> current (a repeat solve does not double-count)
//   - exactly one day's gap     -> current + 1
//   - anything else             -> 1
func Next(lastSolved *time.Time, today time.Time, current int) int {
	if lastSolved == nil {
		return 1
	}
	switch DaysBetween(*lastSolved, today) {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// Longest returns the larger of the recorded longest streak and a candidate.
func Longest(longest, candidate int) int {
	if candidate > longest {
		return candidate
	}
	return longest
}

// DaysBetween returns the whole calendar days from a to b, ignoring
// time-of-day and timezone offsets between the two values.
func DaysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// dateOf truncates t to midnight of its own calendar day in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
