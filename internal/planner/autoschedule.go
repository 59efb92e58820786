package planner

import (
	"sort"
	"time"

	"dayflow/internal/model"
)

// Result partitions the candidate set: every task considered for
// scheduling lands in exactly one of the two lists. Unscheduled tasks
// keep their original fields; the caller decides how to surface them.
type Result struct {
	Scheduled   []model.Task
	Unscheduled []model.Task
}

// AutoScheduleAllUnlocked reassigns every unlocked, uncompleted task to a
// slot on date. Locked tasks stay put and block their intervals.
func AutoScheduleAllUnlocked(cfg Config, date string, tasks []model.Task, events []model.CalendarEvent, dayLevel model.DailyLevel, now time.Time) (Result, error) {
	return autoSchedule(cfg, date, tasks, events, dayLevel, now, func(t model.Task) bool {
		return !t.Locked
	})
}

// AutoScheduleSelected reassigns only the tasks whose ids appear in ids.
// Everything else is an immovable obstacle.
func AutoScheduleSelected(cfg Config, date string, ids map[string]bool, tasks []model.Task, events []model.CalendarEvent, dayLevel model.DailyLevel, now time.Time) (Result, error) {
	return autoSchedule(cfg, date, tasks, events, dayLevel, now, func(t model.Task) bool {
		return ids[t.ID] && !t.Locked
	})
}

// AutoScheduleBacklog fills gaps with unscheduled tasks without touching
// the existing timeline: anything already placed stays where it is.
func AutoScheduleBacklog(cfg Config, date string, tasks []model.Task, events []model.CalendarEvent, dayLevel model.DailyLevel, now time.Time) (Result, error) {
	return autoSchedule(cfg, date, tasks, events, dayLevel, now, func(t model.Task) bool {
		return !t.IsScheduled()
	})
}

// autoSchedule is the greedy core shared by all entry points. Candidates
// are sorted by priority, then energy fit against the day's level, then
// order index, and each is placed at the first slot the escalation ladder
// yields: full constraints, then ignoring windows, then the whole day,
// then the next available day within the horizon.
func autoSchedule(cfg Config, date string, tasks []model.Task, events []model.CalendarEvent, dayLevel model.DailyLevel, now time.Time, isCandidate func(model.Task) bool) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	candidates := make([]model.Task, 0, len(tasks))
	candidateIDs := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Completed || !isCandidate(t) {
			continue
		}
		if t.DurationMinutes <= 0 {
			return Result{}, ErrInvalidDuration
		}
		candidates = append(candidates, t)
		candidateIDs[t.ID] = true
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		aFits := a.Energy.Rank() <= dayLevel.Rank()
		bFits := b.Energy.Rank() <= dayLevel.Rank()
		if aFits != bFits {
			return aFits
		}
		return a.OrderIndex < b.OrderIndex
	})

	// Busy intervals per date, seeded lazily from obstacles and events.
	// Candidates' current slots are excluded: they are being moved.
	busyByDate := make(map[string][]interval)
	busy := func(d string) []interval {
		if cached, ok := busyByDate[d]; ok {
			return cached
		}
		base := occupiedIntervals(cfg, d, tasks, events, candidateIDs)
		busyByDate[d] = base
		return base
	}

	result := Result{Scheduled: make([]model.Task, 0, len(candidates)), Unscheduled: make([]model.Task, 0)}

	for _, task := range candidates {
		placedDate, slot, ok := placeWithEscalation(cfg, date, task, busy, now)
		if !ok {
			result.Unscheduled = append(result.Unscheduled, task)
			continue
		}
		task.ScheduledDate = placedDate
		task.ScheduledTime = model.FormatClock(slot)
		busyByDate[placedDate] = append(busy(placedDate), interval{start: slot, end: slot + task.DurationMinutes})
		result.Scheduled = append(result.Scheduled, task)
	}

	return result, nil
}

func placeWithEscalation(cfg Config, date string, task model.Task, busy func(string) []interval, now time.Time) (string, int, bool) {
	occupied := busy(date)

	if slot, ok := searchDay(cfg, date, task.DurationMinutes, task.Windows, occupied, now, strictFull); ok {
		return date, slot, true
	}
	if len(task.Windows) > 0 {
		if slot, ok := searchDay(cfg, date, task.DurationMinutes, nil, occupied, now, strictNoWindows); ok {
			return date, slot, true
		}
	}
	if slot, ok := searchDay(cfg, date, task.DurationMinutes, nil, occupied, now, strictWholeDay); ok {
		return date, slot, true
	}
	nextDate, slot, ok, err := nextAvailableDay(cfg, date, task.DurationMinutes, task.Windows, busy, now)
	if err != nil || !ok {
		return "", 0, false
	}
	return nextDate, slot, true
}
