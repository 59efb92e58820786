package planner

import (
	"dayflow/internal/model"
	"time"
)

type interval struct {
	start int
	end   int
}

func (i interval) overlaps(other interval) bool {
	return i.start < other.end && other.start < i.end
}

// strictness is the escalation level applied to a single slot search.
type strictness int

const (
	strictFull       strictness = iota // windows + work hours
	strictNoWindows                    // work hours only
	strictWholeDay                     // any time of day
)

// FindSlot returns the earliest start (minutes since midnight) on date
// that fits durationMinutes without overlapping any scheduled task or
// live event. Empty windows means the whole work-hours range is eligible.
// The boolean is false when the day has no room; that is an expected
// outcome, not an error.
func FindSlot(cfg Config, date string, durationMinutes int, windows []model.Window, tasks []model.Task, events []model.CalendarEvent, now time.Time) (int, bool, error) {
	if err := cfg.validate(); err != nil {
		return 0, false, err
	}
	if durationMinutes <= 0 {
		return 0, false, ErrInvalidDuration
	}
	occupied := occupiedIntervals(cfg, date, tasks, events, nil)
	slot, ok := searchDay(cfg, date, durationMinutes, windows, occupied, now, strictFull)
	return slot, ok, nil
}

// FindNextAvailableDay scans the days after startDate, up to the
// configured horizon, and returns the first (date, start) that fits.
func FindNextAvailableDay(cfg Config, startDate string, durationMinutes int, windows []model.Window, tasks []model.Task, events []model.CalendarEvent, now time.Time) (string, int, bool, error) {
	if err := cfg.validate(); err != nil {
		return "", 0, false, err
	}
	if durationMinutes <= 0 {
		return "", 0, false, ErrInvalidDuration
	}
	busy := func(date string) []interval {
		return occupiedIntervals(cfg, date, tasks, events, nil)
	}
	return nextAvailableDay(cfg, startDate, durationMinutes, windows, busy, now)
}

// nextAvailableDay is the day-probing core shared with the auto-scheduler,
// which supplies its own busy lookup so freshly placed tasks count.
func nextAvailableDay(cfg Config, startDate string, durationMinutes int, windows []model.Window, busy func(date string) []interval, now time.Time) (string, int, bool, error) {
	for offset := 1; offset <= cfg.horizon(); offset++ {
		date, err := model.AddDays(startDate, offset)
		if err != nil {
			return "", 0, false, err
		}
		if slot, ok := searchDay(cfg, date, durationMinutes, windows, busy(date), now, strictFull); ok {
			return date, slot, true, nil
		}
	}
	return "", 0, false, nil
}

// searchDay walks the candidate grid and returns the earliest fit.
// Candidates are deterministic: the grid is fixed, so ties always resolve
// to the earliest start.
func searchDay(cfg Config, date string, durationMinutes int, windows []model.Window, occupied []interval, now time.Time, level strictness) (int, bool) {
	dayStart, dayEnd := cfg.WorkStart, cfg.WorkEnd
	if level == strictWholeDay {
		dayStart, dayEnd = 0, minutesPerDay
	}

	minStart := dayStart
	if model.DateOf(now, cfg.location()) == date {
		// Past candidates on today are skipped outright.
		nowMinute := model.MinuteOfDay(now, cfg.location())
		if nowMinute > minStart {
			minStart = nowMinute
		}
	}

	grid := cfg.granularity()
	// Align the first candidate up to the grid.
	start := ((minStart + grid - 1) / grid) * grid

	for candidate := start; candidate+durationMinutes <= dayEnd; candidate += grid {
		if level == strictFull && !inWindows(cfg, windows, candidate) {
			continue
		}
		slot := interval{start: candidate, end: candidate + durationMinutes}
		if overlapsAny(slot, occupied) {
			continue
		}
		return candidate, true
	}
	return 0, false
}

func inWindows(cfg Config, windows []model.Window, minute int) bool {
	if len(windows) == 0 {
		return true
	}
	for _, name := range windows {
		span, ok := cfg.Windows[name]
		if ok && span.contains(minute) {
			return true
		}
	}
	return false
}

func overlapsAny(slot interval, occupied []interval) bool {
	for _, busy := range occupied {
		if slot.overlaps(busy) {
			return true
		}
	}
	return false
}

// occupiedIntervals collects the busy ranges on date: every live event
// clipped to the day, and every scheduled, uncompleted task not listed in
// exclude.
func occupiedIntervals(cfg Config, date string, tasks []model.Task, events []model.CalendarEvent, exclude map[string]bool) []interval {
	loc := cfg.location()
	out := make([]interval, 0, len(tasks)+len(events))

	midnight, err := model.ParseDate(date)
	if err != nil {
		return out
	}
	dayStart := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	for _, ev := range events {
		if ev.Dismissed {
			continue
		}
		if !ev.End.After(dayStart) || !ev.Start.Before(dayEnd) {
			continue
		}
		start := ev.Start
		if start.Before(dayStart) {
			start = dayStart
		}
		end := ev.End
		if end.After(dayEnd) {
			end = dayEnd
		}
		out = append(out, interval{
			start: int(start.Sub(dayStart) / time.Minute),
			end:   int(end.Sub(dayStart) / time.Minute),
		})
	}

	for _, task := range tasks {
		if task.Completed || !task.IsScheduled() || task.ScheduledDate != date {
			continue
		}
		if exclude != nil && exclude[task.ID] {
			continue
		}
		start, err := model.ParseClock(task.ScheduledTime)
		if err != nil {
			continue
		}
		out = append(out, interval{start: start, end: start + task.DurationMinutes})
	}

	return out
}
