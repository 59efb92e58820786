package sync

import (
	"testing"
	"time"

	"dayflow/internal/model"
)

func externalEvent(id, externalID, title string, hour int) model.CalendarEvent {
	start := time.Date(2026, 6, 10, hour, 0, 0, 0, time.UTC)
	return model.CalendarEvent{
		ID: id, Title: title,
		Start: start, End: start.Add(time.Hour),
		External: true, ExternalID: externalID, Source: "work",
		Energy: model.EventEnergyMedium,
	}
}

func TestDiffClassifiesNewUpdatedDeleted(t *testing.T) {
	existing := []model.CalendarEvent{
		externalEvent("1", "E1", "Kept but gone from feed", 9),
		externalEvent("2", "E2", "Old title", 10),
		externalEvent("3", "E3", "Unchanged", 11),
	}
	candidates := []model.CalendarEvent{
		externalEvent("", "E2", "New title", 10),
		externalEvent("", "E3", "Unchanged", 11),
		externalEvent("", "E4", "Brand new", 12),
	}

	diff := DiffEvents(candidates, existing)

	if len(diff.New) != 1 || diff.New[0].ExternalID != "E4" {
		t.Fatalf("new: %+v", diff.New)
	}
	if len(diff.Updated) != 1 || diff.Updated[0].Existing.ExternalID != "E2" {
		t.Fatalf("updated: %+v", diff.Updated)
	}
	if diff.Updated[0].Incoming.Title != "New title" {
		t.Fatalf("updated incoming title: %q", diff.Updated[0].Incoming.Title)
	}
	if len(diff.Deleted) != 1 || diff.Deleted[0].ExternalID != "E1" {
		t.Fatalf("deleted: %+v", diff.Deleted)
	}
}

func TestDiffDetectsTimeAndLocationChanges(t *testing.T) {
	existing := []model.CalendarEvent{
		externalEvent("1", "E1", "Meeting", 9),
		externalEvent("2", "E2", "Lunch", 12),
	}
	moved := externalEvent("", "E1", "Meeting", 10)
	relocated := externalEvent("", "E2", "Lunch", 12)
	relocated.Location = "Cafeteria"

	diff := DiffEvents([]model.CalendarEvent{moved, relocated}, existing)
	if len(diff.Updated) != 2 {
		t.Fatalf("expected 2 updates, got %+v", diff.Updated)
	}
}

func TestDiffIgnoresLocalEvents(t *testing.T) {
	local := model.CalendarEvent{
		ID: "local", Title: "Dentist",
		Start: time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC),
	}
	diff := DiffEvents(nil, []model.CalendarEvent{local})
	if !diff.Empty() {
		t.Fatalf("local events must not be classified: %+v", diff)
	}
}

func TestDiffIncludesDismissedEvents(t *testing.T) {
	dismissed := externalEvent("1", "E1", "Dismissed", 9)
	dismissed.Dismissed = true
	diff := DiffEvents(nil, []model.CalendarEvent{dismissed})
	if len(diff.Deleted) != 1 {
		t.Fatalf("dismissed events still reconcile: %+v", diff)
	}
}
