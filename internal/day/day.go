// Package day converts instants to local calendar-day identities.
//
// Three identities are derived from an instant: the day-start instant
// (local midnight), the day stamp ("YYYY-MM-DD", used as the daily counter
// key and as a deterministic-shuffle salt), and the day number (a monotonic
// ordinal used for bury-until comparisons). All functions are pure and
// total over any instant.
package day

import "time"

const dayMillis = 24 * 60 * 60 * 1000

// StartOfLocalDay returns local midnight of the day containing t.
func StartOfLocalDay(t time.Time) time.Time {
	year, month, d := t.Date()
	return time.Date(year, month, d, 0, 0, 0, 0, t.Location())
}

// ToLocalDayStamp returns the "YYYY-MM-DD" local calendar identity of t.
func ToLocalDayStamp(t time.Time) string {
	return t.Format("2006-01-02")
}

// ToLocalDayNumber returns the monotonic day ordinal of t:
// floor(local midnight in unix milliseconds / 86,400,000).
func ToLocalDayNumber(t time.Time) int {
	ms := StartOfLocalDay(t).UnixMilli()
	if ms < 0 && ms%dayMillis != 0 {
		return int(ms/dayMillis) - 1
	}
	return int(ms / dayMillis)
}

// FromLocalDayNumber returns the unix-millisecond instant a day number maps
// back to. Inverse of ToLocalDayNumber up to the day-start boundary.
func FromLocalDayNumber(dayNumber int) int64 {
	return int64(dayNumber) * dayMillis
}
