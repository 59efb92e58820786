package energy

import (
	"math"

	"dayflow/internal/model"
)

// DayCapacity is the derived budget for one day. PercentUsed is not
// clamped at 100; overcommitment is a valid, visible state.
type DayCapacity struct {
	TotalMinutes     int
	UsedMinutes      int
	AvailableMinutes int
	PercentUsed      int
}

// Capacity derives the day's budget from the default 780-minute base.
// Pass an empty level or intention to get the medium/balance defaults.
func Capacity(tasks []model.Task, events []model.CalendarEvent, level model.DailyLevel, intention model.Intention) DayCapacity {
	return CapacityWithBase(DefaultBaseMinutes, tasks, events, level, intention)
}

// CapacityWithBase is Capacity with a caller-supplied base, for configs
// that override the stock waking-hours assumption.
func CapacityWithBase(baseMinutes int, tasks []model.Task, events []model.CalendarEvent, level model.DailyLevel, intention model.Intention) DayCapacity {
	total := int(math.Round(float64(baseMinutes) * DailyMultiplier(level) * IntentionMultiplier(intention)))

	used := 0
	for _, task := range tasks {
		if task.ScheduledTime != "" {
			used += task.DurationMinutes
		}
	}
	for _, ev := range events {
		if ev.Dismissed {
			continue
		}
		used += EventDrain(ev)
	}

	available := total - used
	if available < 0 {
		available = 0
	}

	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(used) / float64(total) * 100))
	}

	return DayCapacity{
		TotalMinutes:     total,
		UsedMinutes:      used,
		AvailableMinutes: available,
		PercentUsed:      percent,
	}
}
