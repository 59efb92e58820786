// Package sync reconciles freshly parsed external calendar events against
// the events already imported from the same source.
package sync

import (
	"dayflow/internal/model"
)

// UpdatedEvent pairs the stored event with its incoming replacement so a
// review surface can show both sides of the change.
type UpdatedEvent struct {
	Existing model.CalendarEvent
	Incoming model.CalendarEvent
}

// Diff is the three-way classification of one reconciliation pass.
type Diff struct {
	New     []model.CalendarEvent
	Updated []UpdatedEvent
	Deleted []model.CalendarEvent
}

func (d Diff) Empty() bool {
	return len(d.New) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// DiffEvents matches candidates against existing external events by
// external id. A candidate with no match is new; a matched pair that
// differs in title, time, or location is updated; an existing external
// event whose id is absent from the candidates is deleted. Dismissed
// events still participate: dismissal changes display, not identity.
func DiffEvents(candidates, existing []model.CalendarEvent) Diff {
	existingByID := make(map[string]model.CalendarEvent, len(existing))
	for _, ev := range existing {
		if !ev.External || ev.ExternalID == "" {
			continue
		}
		existingByID[ev.ExternalID] = ev
	}

	var diff Diff
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		if candidate.ExternalID == "" || seen[candidate.ExternalID] {
			continue
		}
		seen[candidate.ExternalID] = true

		current, ok := existingByID[candidate.ExternalID]
		if !ok {
			diff.New = append(diff.New, candidate)
			continue
		}
		if eventChanged(current, candidate) {
			diff.Updated = append(diff.Updated, UpdatedEvent{Existing: current, Incoming: candidate})
		}
	}

	for _, ev := range existing {
		if !ev.External || ev.ExternalID == "" {
			continue
		}
		if !seen[ev.ExternalID] {
			diff.Deleted = append(diff.Deleted, ev)
		}
	}
	return diff
}

func eventChanged(current, incoming model.CalendarEvent) bool {
	return current.Title != incoming.Title ||
		!current.Start.Equal(incoming.Start) ||
		!current.End.Equal(incoming.End) ||
		current.Location != incoming.Location
}
