// Package app wires the scheduling engine, feed parser, and storage
// into the backend the terminal UI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"dayflow/internal/config"
	"dayflow/internal/energy"
	"dayflow/internal/ics"
	"dayflow/internal/model"
	"dayflow/internal/planner"
	"dayflow/internal/storage"
	syncpkg "dayflow/internal/sync"
	"dayflow/internal/update"
)

var _ update.Backend = (*App)(nil)

// App implements update.Backend over a repository and the configured
// calendar feeds.
type App struct {
	repo    storage.Repository
	cfg     *config.Config
	plan    planner.Config
	now     func() time.Time
	lastOut syncpkg.Diff
}

func New(repo storage.Repository, cfg *config.Config) (*App, error) {
	plan, err := cfg.PlannerConfig()
	if err != nil {
		return nil, fmt.Errorf("app: planner config: %w", err)
	}
	return &App{
		repo: repo,
		cfg:  cfg,
		plan: plan,
		now:  time.Now,
	}, nil
}

func (a *App) Today() string {
	return model.DateOf(a.now(), a.cfg.Location())
}

func (a *App) LoadPlan(date string) (update.PlanState, error) {
	ctx := context.Background()
	tasks, err := a.repo.ListTasks(ctx, storage.TaskListFilter{ScheduledDate: date})
	if err != nil {
		return update.PlanState{}, err
	}
	events, err := a.eventsOn(ctx, date)
	if err != nil {
		return update.PlanState{}, err
	}
	record := a.dailyEnergy(ctx, date)

	capacity := energy.CapacityWithBase(a.cfg.BaseEnergyMinutes, tasks, events, record.Level, a.intentionOf(record))

	items := make([]update.PlanItem, 0, len(tasks)+len(events))
	for _, t := range tasks {
		items = append(items, update.PlanItem{
			ID:        t.ID,
			Title:     t.Title,
			Time:      t.ScheduledTime,
			Minutes:   t.DurationMinutes,
			Kind:      "task",
			Energy:    string(t.Energy),
			Locked:    t.Locked,
			Completed: t.Completed,
		})
	}
	loc := a.cfg.Location()
	for _, ev := range events {
		items = append(items, update.PlanItem{
			ID:        ev.ID,
			Title:     ev.Title,
			Time:      ev.Start.In(loc).Format(model.ClockLayout),
			Minutes:   ev.DurationMinutes(),
			Kind:      "event",
			Energy:    string(ev.Energy),
			Dismissed: ev.Dismissed,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })

	return update.PlanState{
		Date:  date,
		Items: items,
		Capacity: update.CapacityInfo{
			TotalMinutes:     capacity.TotalMinutes,
			UsedMinutes:      capacity.UsedMinutes,
			AvailableMinutes: capacity.AvailableMinutes,
			PercentUsed:      capacity.PercentUsed,
			Level:            record.Level,
			Intention:        a.intentionOf(record),
		},
	}, nil
}

func (a *App) LoadBacklog() ([]update.BacklogItem, error) {
	tasks, err := a.repo.ListTasks(context.Background(), storage.TaskListFilter{BacklogOnly: true})
	if err != nil {
		return nil, err
	}
	items := make([]update.BacklogItem, 0, len(tasks))
	for _, t := range tasks {
		windows := make([]string, 0, len(t.Windows))
		for _, w := range t.Windows {
			windows = append(windows, string(w))
		}
		items = append(items, update.BacklogItem{
			ID:       t.ID,
			Title:    t.Title,
			Minutes:  t.DurationMinutes,
			Priority: string(t.Priority),
			Energy:   string(t.Energy),
			Windows:  strings.Join(windows, ","),
		})
	}
	return items, nil
}

func (a *App) AddTask(title string) (string, error) {
	ctx := context.Background()
	existing, err := a.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return "", err
	}
	order := 0
	for _, t := range existing {
		if t.OrderIndex >= order {
			order = t.OrderIndex + 1
		}
	}
	task := model.Task{
		ID:              storage.NewID(),
		Title:           strings.TrimSpace(title),
		DurationMinutes: 30,
		Priority:        model.PriorityMedium,
		Energy:          model.EnergyMedium,
		Motivation:      model.MotivationNeutral,
		OrderIndex:      order,
	}
	if err := task.Validate(); err != nil {
		return "", err
	}
	if err := a.repo.CreateTask(ctx, task); err != nil {
		return "", err
	}
	return task.Title, nil
}

func (a *App) AutoSchedule(scope, date string) (string, error) {
	ctx := context.Background()
	if date == "" {
		date = a.Today()
	}
	tasks, err := a.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return "", err
	}
	events, err := a.repo.ListEvents(ctx, storage.EventListFilter{})
	if err != nil {
		return "", err
	}
	record := a.dailyEnergy(ctx, date)
	now := a.now()

	var result planner.Result
	switch scope {
	case "", "all":
		result, err = planner.AutoScheduleAllUnlocked(a.plan, date, tasks, events, record.Level, now)
	case "backlog":
		result, err = planner.AutoScheduleBacklog(a.plan, date, tasks, events, record.Level, now)
	default:
		ids := make(map[string]bool)
		for _, id := range strings.Split(scope, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids[id] = true
			}
		}
		result, err = planner.AutoScheduleSelected(a.plan, date, ids, tasks, events, record.Level, now)
	}
	if err != nil {
		return "", err
	}

	if len(result.Scheduled) > 0 {
		if err := a.repo.BulkUpdateTasks(ctx, result.Scheduled); err != nil {
			return "", err
		}
	}
	summary := fmt.Sprintf("scheduled %d task(s)", len(result.Scheduled))
	if len(result.Unscheduled) > 0 {
		summary += fmt.Sprintf(", %d left unplaced", len(result.Unscheduled))
	}
	return summary, nil
}

func (a *App) RecordEnergy(date string, level model.DailyLevel, intention model.Intention, note string) (string, error) {
	record := model.DailyEnergy{Date: date, Level: level, Intention: intention, Note: note}
	if err := record.Validate(); err != nil {
		return "", err
	}
	if err := a.repo.UpsertDailyEnergy(context.Background(), record); err != nil {
		return "", err
	}
	if intention == "" {
		intention = model.IntentionBalance
	}
	return fmt.Sprintf("energy for %s: %s, %s", date, level, intention), nil
}

func (a *App) SyncDiff(source string) ([]update.SyncEntry, error) {
	ctx := context.Background()
	candidates, sources, err := a.fetchFeeds(source)
	if err != nil {
		return nil, err
	}
	existing, err := a.existingForSources(ctx, sources)
	if err != nil {
		return nil, err
	}

	diff := syncpkg.DiffEvents(candidates, existing)
	a.lastOut = diff

	loc := a.cfg.Location()
	entries := make([]update.SyncEntry, 0, len(diff.New)+len(diff.Updated)+len(diff.Deleted))
	for _, ev := range diff.New {
		entries = append(entries, update.SyncEntry{
			Kind:   "new",
			Key:    ev.ExternalID,
			Title:  ev.Title,
			Detail: ev.Start.In(loc).Format("2006-01-02 15:04"),
		})
	}
	for _, pair := range diff.Updated {
		entries = append(entries, update.SyncEntry{
			Kind:   "updated",
			Key:    pair.Existing.ExternalID,
			Title:  pair.Incoming.Title,
			Detail: describeUpdate(pair, loc),
		})
	}
	for _, ev := range diff.Deleted {
		entries = append(entries, update.SyncEntry{
			Kind:   "deleted",
			Key:    ev.ExternalID,
			Title:  ev.Title,
			Detail: "removed upstream",
		})
	}
	return entries, nil
}

func (a *App) ApplySync(source string, entries []update.SyncEntry) (string, error) {
	sel := syncpkg.Selections{
		New:     make(map[string]bool),
		Updated: make(map[string]bool),
		Deleted: make(map[string]bool),
	}
	for _, e := range entries {
		switch e.Kind {
		case "new":
			sel.New[e.Key] = true
		case "updated":
			sel.Updated[e.Key] = true
		case "deleted":
			sel.Deleted[e.Key] = true
		}
	}

	result, err := syncpkg.Apply(context.Background(), a.repo, a.lastOut, sel)
	summary := fmt.Sprintf("applied: %d added, %d updated, %d deleted", result.Added, result.Updated, result.Deleted)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// ImportFeeds bulk-loads every configured feed, skipping events that are
// already stored. Meant for first-run setup.
func (a *App) ImportFeeds() (string, error) {
	ctx := context.Background()
	candidates, sources, err := a.fetchFeeds("")
	if err != nil {
		return "", err
	}
	existing, err := a.existingForSources(ctx, sources)
	if err != nil {
		return "", err
	}
	result, err := syncpkg.Import(ctx, a.repo, candidates, existing)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("imported %d event(s), skipped %d duplicate(s)", result.Added, result.SkippedDuplicates), nil
}

func (a *App) DismissEvent(id string) error {
	ctx := context.Background()
	ev, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	ev.Dismissed = !ev.Dismissed
	return a.repo.UpdateEvent(ctx, ev)
}

func (a *App) ToggleTaskDone(id string) error {
	ctx := context.Background()
	task, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	task.Completed = !task.Completed
	return a.repo.UpdateTask(ctx, task)
}

func (a *App) ToggleTaskLock(id string) error {
	ctx := context.Background()
	task, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !task.IsScheduled() {
		return errors.New("app: only scheduled tasks can be locked")
	}
	task.Locked = !task.Locked
	return a.repo.UpdateTask(ctx, task)
}

func (a *App) eventsOn(ctx context.Context, date string) ([]model.CalendarEvent, error) {
	all, err := a.repo.ListEvents(ctx, storage.EventListFilter{})
	if err != nil {
		return nil, err
	}
	loc := a.cfg.Location()
	out := make([]model.CalendarEvent, 0, len(all))
	for _, ev := range all {
		if ev.OnDate(date, loc) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (a *App) dailyEnergy(ctx context.Context, date string) model.DailyEnergy {
	record, err := a.repo.GetDailyEnergy(ctx, date)
	if err != nil {
		return model.DailyEnergy{Date: date, Level: model.DailyMedium, Intention: model.IntentionBalance}
	}
	return record
}

func (a *App) intentionOf(record model.DailyEnergy) model.Intention {
	if record.Intention == "" {
		return model.IntentionBalance
	}
	return record.Intention
}

// fetchFeeds parses the configured feeds, restricted to one source when
// given. Returns the candidate events plus the set of sources touched.
func (a *App) fetchFeeds(source string) ([]model.CalendarEvent, map[string]bool, error) {
	loc := a.cfg.Location()
	sources := make(map[string]bool)
	var candidates []model.CalendarEvent
	matched := false
	for _, feed := range a.cfg.Feeds {
		if source != "" && feed.Source != source {
			continue
		}
		matched = true
		data, err := os.ReadFile(feed.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("app: read feed %s: %w", feed.Source, err)
		}
		parser := ics.Parser{Source: feed.Source, Now: a.now(), Location: loc}
		events, err := parser.Parse(string(data))
		if err != nil {
			return nil, nil, fmt.Errorf("app: parse feed %s: %w", feed.Source, err)
		}
		candidates = append(candidates, events...)
		sources[feed.Source] = true
	}
	if !matched {
		if source == "" {
			return nil, nil, errors.New("app: no feeds configured")
		}
		return nil, nil, fmt.Errorf("app: unknown feed source %q", source)
	}
	return candidates, sources, nil
}

func (a *App) existingForSources(ctx context.Context, sources map[string]bool) ([]model.CalendarEvent, error) {
	all, err := a.repo.ListEvents(ctx, storage.EventListFilter{ExternalOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]model.CalendarEvent, 0, len(all))
	for _, ev := range all {
		if sources[ev.Source] {
			out = append(out, ev)
		}
	}
	return out, nil
}

func describeUpdate(pair syncpkg.UpdatedEvent, loc *time.Location) string {
	var changes []string
	if pair.Existing.Title != pair.Incoming.Title {
		changes = append(changes, "title")
	}
	if !pair.Existing.Start.Equal(pair.Incoming.Start) || !pair.Existing.End.Equal(pair.Incoming.End) {
		changes = append(changes, "time "+pair.Incoming.Start.In(loc).Format("2006-01-02 15:04"))
	}
	if pair.Existing.Location != pair.Incoming.Location {
		changes = append(changes, "location")
	}
	if len(changes) == 0 {
		return "changed"
	}
	return strings.Join(changes, ", ")
}
