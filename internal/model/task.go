package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPriority   = errors.New("model: invalid task priority")
	ErrInvalidEnergy     = errors.New("model: invalid energy level")
	ErrInvalidMotivation = errors.New("model: invalid motivation level")
	ErrInvalidWindow     = errors.New("model: invalid availability window")
	ErrInvalidDuration   = errors.New("model: task duration must be positive")
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for scheduling; higher schedules first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// EnergyLevel is the effort a task demands of the person doing it.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

func (e EnergyLevel) Rank() int {
	switch e {
	case EnergyHigh:
		return 3
	case EnergyMedium:
		return 2
	default:
		return 1
	}
}

// Motivation is display-only; it never influences scheduling.
type Motivation string

const (
	MotivationHate    Motivation = "hate"
	MotivationDislike Motivation = "dislike"
	MotivationNeutral Motivation = "neutral"
	MotivationLike    Motivation = "like"
	MotivationLove    Motivation = "love"
)

func (m Motivation) IsValid() bool {
	switch m {
	case MotivationHate, MotivationDislike, MotivationNeutral, MotivationLike, MotivationLove:
		return true
	default:
		return false
	}
}

// Window names a part of the day a task may be restricted to.
type Window string

const (
	WindowMorning   Window = "morning"
	WindowAfternoon Window = "afternoon"
	WindowEvening   Window = "evening"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowMorning, WindowAfternoon, WindowEvening:
		return true
	default:
		return false
	}
}

type Task struct {
	ID        string
	Title     string
	Completed bool

	// ScheduledTime is an "HH:MM" wall-clock time and ScheduledDate a
	// "YYYY-MM-DD" date. Both are empty for backlog tasks and both are set
	// for scheduled ones; mixed states are invalid.
	ScheduledTime string
	ScheduledDate string

	DurationMinutes int
	Priority        Priority
	Energy          EnergyLevel
	Motivation      Motivation

	// Windows restricts scheduling to the named parts of the day.
	// Empty means unrestricted.
	Windows []Window

	// Locked tasks keep their slot; the scheduler treats them as obstacles.
	Locked bool

	// OrderIndex is the stable backlog sort key.
	OrderIndex int
}

func (t Task) IsScheduled() bool {
	return t.ScheduledTime != "" && t.ScheduledDate != ""
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, t.DurationMinutes)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Energy.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEnergy, t.Energy)
	}
	if t.Motivation != "" && !t.Motivation.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMotivation, t.Motivation)
	}
	for _, w := range t.Windows {
		if !w.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidWindow, w)
		}
	}
	if (t.ScheduledTime == "") != (t.ScheduledDate == "") {
		return errors.New("model: scheduled time and date must be set together")
	}
	if t.ScheduledTime != "" {
		if _, err := ParseClock(t.ScheduledTime); err != nil {
			return err
		}
		if _, err := ParseDate(t.ScheduledDate); err != nil {
			return err
		}
	}
	if t.Locked && !t.IsScheduled() {
		return errors.New("model: locked task must have a scheduled time and date")
	}
	return nil
}

// HasWindow reports whether w is one of the task's availability windows.
func (t Task) HasWindow(w Window) bool {
	for _, have := range t.Windows {
		if have == w {
			return true
		}
	}
	return false
}
