package model

import (
	"fmt"
	"time"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

// ParseClock converts an "HH:MM" string into minutes since midnight.
func ParseClock(v string) (int, error) {
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("model: invalid clock time %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a "YYYY-MM-DD" date string.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid date %q: %w", v, err)
	}
	return t, nil
}

// DateOf renders the calendar date of an instant in the given location.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// AddDays shifts a "YYYY-MM-DD" date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// MinuteOfDay returns the minutes elapsed since midnight of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
