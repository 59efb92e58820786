package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEventEnergy = errors.New("model: invalid event energy level")

// EventEnergy describes how draining a calendar event is. Restful events
// cost nothing; high-energy ones cost more than their wall-clock length.
type EventEnergy string

const (
	EventEnergyRestful EventEnergy = "restful"
	EventEnergyLow     EventEnergy = "low"
	EventEnergyMedium  EventEnergy = "medium"
	EventEnergyHigh    EventEnergy = "high"
)

func (e EventEnergy) IsValid() bool {
	switch e {
	case EventEnergyRestful, EventEnergyLow, EventEnergyMedium, EventEnergyHigh:
		return true
	default:
		return false
	}
}

type CalendarEvent struct {
	ID    string
	Title string

	// Start and End are absolute instants; End is strictly after Start.
	Start time.Time
	End   time.Time

	// External events carry a stable id from the feed they came from and
	// a source tag naming that feed. Local events carry neither.
	External   bool
	ExternalID string
	Source     string

	Location string

	// Energy defaults to medium when unset.
	Energy EventEnergy

	// EnergyDrain, when non-nil, overrides the level-derived drain minutes.
	EnergyDrain *int

	// Dismissed soft-deletes an external event: it drops out of capacity
	// accounting and conflict checks but stays in storage for undo.
	Dismissed bool
}

func (e CalendarEvent) DurationMinutes() int {
	return int(e.End.Sub(e.Start) / time.Minute)
}

func (e CalendarEvent) OnDate(date string, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return e.Start.In(loc).Format(DateLayout) == date
}

func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: event id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("model: event title is required")
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return errors.New("model: event start and end are required")
	}
	if !e.End.After(e.Start) {
		return errors.New("model: event end must be after start")
	}
	if e.External != (e.ExternalID != "") {
		return errors.New("model: external id must be set exactly for external events")
	}
	if e.Dismissed && !e.External {
		return errors.New("model: only external events can be dismissed")
	}
	if e.Energy != "" && !e.Energy.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventEnergy, e.Energy)
	}
	if e.EnergyDrain != nil && *e.EnergyDrain < 0 {
		return fmt.Errorf("model: energy drain must be non-negative, got %d", *e.EnergyDrain)
	}
	return nil
}
