// Package timeutil provides calendar-day utilities for Speakably.
// All progress accounting (streaks, daily goals, leaderboard ranges) is
// defined in terms of UTC calendar days, so the helpers here are the single
// source of truth for "what day is it" questions.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Today returns the start of the current UTC day.
func Today() time.Time {
	return StartOfDay(Now())
}

// Date creates a UTC time with the given date at midnight.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in UTC.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(u.AddDate(0, 0, -daysToSubtract))
}

// StartOfMonth returns the first day of the month (00:00:00) in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}

// IsToday checks if the given time is today in UTC.
func IsToday(t time.Time) bool {
	return SameDay(t, Now())
}

// IsYesterday checks if the given time is yesterday in UTC.
func IsYesterday(t time.Time) bool {
	return SameDay(t, Now().AddDate(0, 0, -1))
}

// DaysBetween returns the number of whole calendar days from a to b.
// Positive when b is after a. Time-of-day is ignored.
func DaysBetween(a, b time.Time) int {
	start := StartOfDay(a)
	end := StartOfDay(b)
	return int(end.Sub(start).Hours() / 24)
}

// DaysSince calculates the number of calendar days since the given time.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// FormatDay formats a time as a calendar-day string (YYYY-MM-DD, UTC).
func FormatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid day %q: %w", s, err)
	}
	return t, nil
}

// ParseClock parses an "HH:MM" string into hour and minute.
// Used for per-user reminder times.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("timeutil: invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// WithinClockWindow reports whether now falls within the window of
// +-tolerance around the given wall-clock time (hour:minute), comparing
// in UTC. Used by the reminder job to match per-user reminder times.
func WithinClockWindow(now time.Time, hour, minute int, tolerance time.Duration) bool {
	u := now.UTC()
	target := time.Date(u.Year(), u.Month(), u.Day(), hour, minute, 0, 0, time.UTC)
	diff := u.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
