// Package planner assigns tasks to open time slots on a day, honoring
// locked tasks, availability windows, and existing calendar events.
package planner

import (
	"errors"
	"time"

	"dayflow/internal/model"
)

var (
	ErrInvalidWorkHours = errors.New("planner: work end must be after work start")
	ErrInvalidDuration  = errors.New("planner: duration must be positive")
)

const (
	defaultGranularity = 15
	defaultHorizonDays = 7
	minutesPerDay      = 24 * 60
)

// Span is a half-open [Start, End) range in minutes since midnight.
type Span struct {
	Start int
	End   int
}

func (s Span) contains(minute int) bool {
	return minute >= s.Start && minute < s.End
}

// Config carries the externally supplied scheduling bounds. The engine
// never reads configuration itself; the caller threads it in.
type Config struct {
	// WorkStart and WorkEnd bound the searchable day, minutes since midnight.
	WorkStart int
	WorkEnd   int

	// Windows maps availability-window names to their clock ranges.
	Windows map[model.Window]Span

	// Granularity is the candidate grid step; zero means 15 minutes.
	Granularity int

	// HorizonDays bounds next-day probing; zero means 7.
	HorizonDays int

	// Location anchors "date" strings and the today/past check.
	// Nil means time.Local.
	Location *time.Location
}

func (c Config) granularity() int {
	if c.Granularity <= 0 {
		return defaultGranularity
	}
	return c.Granularity
}

func (c Config) horizon() int {
	if c.HorizonDays <= 0 {
		return defaultHorizonDays
	}
	return c.HorizonDays
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Config) validate() error {
	if c.WorkEnd <= c.WorkStart {
		return ErrInvalidWorkHours
	}
	return nil
}
