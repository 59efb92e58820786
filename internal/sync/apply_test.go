package sync

import (
	"context"
	"errors"
	"testing"

	"dayflow/internal/model"
)

// memStore is a minimal in-memory EventStore with injectable failures.
type memStore struct {
	events map[string]model.CalendarEvent

	failAdd    error
	failUpdate error
	failRemove error
}

func newMemStore(existing ...model.CalendarEvent) *memStore {
	s := &memStore{events: make(map[string]model.CalendarEvent)}
	for _, ev := range existing {
		s.events[ev.ID] = ev
	}
	return s
}

func (s *memStore) AddEvents(_ context.Context, events []model.CalendarEvent) error {
	if s.failAdd != nil {
		return s.failAdd
	}
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = "gen-" + ev.ExternalID
		}
		s.events[ev.ID] = ev
	}
	return nil
}

func (s *memStore) UpdateEvents(_ context.Context, events []model.CalendarEvent) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return nil
}

func (s *memStore) RemoveEvents(_ context.Context, ids []string) error {
	if s.failRemove != nil {
		return s.failRemove
	}
	for _, id := range ids {
		delete(s.events, id)
	}
	return nil
}

func (s *memStore) byExternalID(externalID string) (model.CalendarEvent, bool) {
	for _, ev := range s.events {
		if ev.ExternalID == externalID {
			return ev, true
		}
	}
	return model.CalendarEvent{}, false
}

func TestApplyOnlySelectedEntries(t *testing.T) {
	existing := []model.CalendarEvent{
		externalEvent("1", "E1", "Doomed", 9),
		externalEvent("2", "E2", "Old title", 10),
	}
	candidates := []model.CalendarEvent{
		externalEvent("", "E2", "New title", 10),
		externalEvent("", "E3", "Incoming", 12),
	}
	store := newMemStore(existing...)
	diff := DiffEvents(candidates, existing)

	// Approve only E1's deletion; leave the update and insert pending.
	sel := Selections{Deleted: map[string]bool{"E1": true}}
	res, err := Apply(context.Background(), store, diff, sel)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Deleted != 1 || res.Added != 0 || res.Updated != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := store.byExternalID("E1"); ok {
		t.Fatal("E1 should be removed")
	}
	if ev, _ := store.byExternalID("E2"); ev.Title != "Old title" {
		t.Fatalf("unselected update applied: %q", ev.Title)
	}
	if _, ok := store.byExternalID("E3"); ok {
		t.Fatal("unselected insert applied")
	}
}

func TestApplyAllCategories(t *testing.T) {
	existing := []model.CalendarEvent{
		externalEvent("1", "E1", "Doomed", 9),
		externalEvent("2", "E2", "Old title", 10),
	}
	candidates := []model.CalendarEvent{
		externalEvent("", "E2", "New title", 10),
		externalEvent("", "E3", "Incoming", 12),
	}
	store := newMemStore(existing...)
	diff := DiffEvents(candidates, existing)

	res, err := Apply(context.Background(), store, diff, SelectAll(diff))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Added != 1 || res.Updated != 1 || res.Deleted != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ev, _ := store.byExternalID("E2"); ev.Title != "New title" {
		t.Fatalf("update not applied: %q", ev.Title)
	}
}

func TestApplyUpdatePreservesLocalState(t *testing.T) {
	drain := 25
	current := externalEvent("2", "E2", "Old title", 10)
	current.Dismissed = true
	current.Energy = model.EventEnergyHigh
	current.EnergyDrain = &drain

	incoming := externalEvent("", "E2", "New title", 11)
	store := newMemStore(current)
	diff := DiffEvents([]model.CalendarEvent{incoming}, []model.CalendarEvent{current})

	if _, err := Apply(context.Background(), store, diff, SelectAll(diff)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := store.byExternalID("E2")
	if got.ID != "2" || !got.Dismissed || got.Energy != model.EventEnergyHigh || got.EnergyDrain == nil {
		t.Fatalf("local state lost on update: %+v", got)
	}
	if got.Title != "New title" || got.Start.Hour() != 11 {
		t.Fatalf("incoming fields not applied: %+v", got)
	}
}

func TestApplyPartialFailureDoesNotRollBack(t *testing.T) {
	existing := []model.CalendarEvent{externalEvent("1", "E1", "Doomed", 9)}
	candidates := []model.CalendarEvent{externalEvent("", "E3", "Incoming", 12)}
	store := newMemStore(existing...)
	store.failRemove = errors.New("disk full")

	diff := DiffEvents(candidates, existing)
	res, err := Apply(context.Background(), store, diff, SelectAll(diff))
	if err == nil {
		t.Fatal("expected remove failure to surface")
	}
	// The completed add stays applied; only the count for the failed
	// sub-operation is zero.
	if res.Added != 1 || res.Deleted != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := store.byExternalID("E3"); !ok {
		t.Fatal("successful add was lost")
	}
	if _, ok := store.byExternalID("E1"); !ok {
		t.Fatal("failed delete should leave the event in place")
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	existing := []model.CalendarEvent{externalEvent("1", "E1", "Already here", 9)}
	candidates := []model.CalendarEvent{
		externalEvent("", "E1", "Already here", 9),
		externalEvent("", "E2", "Fresh", 10),
		externalEvent("", "E2", "Fresh again", 10),
	}
	store := newMemStore(existing...)

	res, err := Import(context.Background(), store, candidates, existing)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 1 || res.SkippedDuplicates != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
