package sync

import (
	"context"
	"errors"
	"fmt"

	"dayflow/internal/model"
)

// EventStore is the slice of the persistence collaborator the reconciler
// needs. No cross-operation transaction is assumed.
type EventStore interface {
	AddEvents(ctx context.Context, events []model.CalendarEvent) error
	UpdateEvents(ctx context.Context, events []model.CalendarEvent) error
	RemoveEvents(ctx context.Context, ids []string) error
}

// Selections restricts an apply to the external ids the caller approved,
// one set per diff category. A nil set approves nothing in that category.
type Selections struct {
	New     map[string]bool
	Updated map[string]bool
	Deleted map[string]bool
}

// SelectAll approves every entry of the diff.
func SelectAll(diff Diff) Selections {
	sel := Selections{
		New:     make(map[string]bool, len(diff.New)),
		Updated: make(map[string]bool, len(diff.Updated)),
		Deleted: make(map[string]bool, len(diff.Deleted)),
	}
	for _, ev := range diff.New {
		sel.New[ev.ExternalID] = true
	}
	for _, pair := range diff.Updated {
		sel.Updated[pair.Existing.ExternalID] = true
	}
	for _, ev := range diff.Deleted {
		sel.Deleted[ev.ExternalID] = true
	}
	return sel
}

// ApplyResult counts what each sub-operation actually materialized.
type ApplyResult struct {
	Added   int
	Updated int
	Deleted int
}

// Apply materializes the selected diff entries. The three sub-operations
// run independently: a failure in one does not roll back the others, and
// the returned counts cover only what succeeded. On error the caller must
// re-fetch from storage rather than trust in-memory state.
func Apply(ctx context.Context, store EventStore, diff Diff, sel Selections) (ApplyResult, error) {
	var result ApplyResult
	var failures []error

	added := make([]model.CalendarEvent, 0, len(diff.New))
	for _, ev := range diff.New {
		if sel.New[ev.ExternalID] {
			added = append(added, ev)
		}
	}
	if len(added) > 0 {
		if err := store.AddEvents(ctx, added); err != nil {
			failures = append(failures, fmt.Errorf("sync: add events: %w", err))
		} else {
			result.Added = len(added)
		}
	}

	updated := make([]model.CalendarEvent, 0, len(diff.Updated))
	for _, pair := range diff.Updated {
		if sel.Updated[pair.Existing.ExternalID] {
			updated = append(updated, mergeUpdate(pair))
		}
	}
	if len(updated) > 0 {
		if err := store.UpdateEvents(ctx, updated); err != nil {
			failures = append(failures, fmt.Errorf("sync: update events: %w", err))
		} else {
			result.Updated = len(updated)
		}
	}

	removed := make([]string, 0, len(diff.Deleted))
	for _, ev := range diff.Deleted {
		if sel.Deleted[ev.ExternalID] {
			removed = append(removed, ev.ID)
		}
	}
	if len(removed) > 0 {
		if err := store.RemoveEvents(ctx, removed); err != nil {
			failures = append(failures, fmt.Errorf("sync: remove events: %w", err))
		} else {
			result.Deleted = len(removed)
		}
	}

	return result, errors.Join(failures...)
}

// mergeUpdate carries the incoming feed fields onto the stored event,
// preserving the local identity and user-set energy and dismissal state.
func mergeUpdate(pair UpdatedEvent) model.CalendarEvent {
	merged := pair.Existing
	merged.Title = pair.Incoming.Title
	merged.Start = pair.Incoming.Start
	merged.End = pair.Incoming.End
	merged.Location = pair.Incoming.Location
	return merged
}

// ImportResult reports a first-time bulk import.
type ImportResult struct {
	Added             int
	SkippedDuplicates int
}

// Import bulk-adds candidates that are not already present, matching on
// external id, and reports how many duplicates were skipped.
func Import(ctx context.Context, store EventStore, candidates, existing []model.CalendarEvent) (ImportResult, error) {
	known := make(map[string]bool, len(existing))
	for _, ev := range existing {
		if ev.External && ev.ExternalID != "" {
			known[ev.ExternalID] = true
		}
	}

	var result ImportResult
	fresh := make([]model.CalendarEvent, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ExternalID == "" || known[candidate.ExternalID] {
			result.SkippedDuplicates++
			continue
		}
		known[candidate.ExternalID] = true
		fresh = append(fresh, candidate)
	}

	if len(fresh) > 0 {
		if err := store.AddEvents(ctx, fresh); err != nil {
			return result, fmt.Errorf("sync: import events: %w", err)
		}
		result.Added = len(fresh)
	}
	return result, nil
}
