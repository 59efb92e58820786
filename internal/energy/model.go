// Package energy models how much productive time a day holds and how much
// of it tasks and calendar events consume.
package energy

import (
	"math"

	"dayflow/internal/model"
)

// DefaultBaseMinutes is 16 waking hours minus 3 reserved for essentials.
const DefaultBaseMinutes = 780

// DailyMultiplier scales the day's base capacity by its energy level.
// Unknown labels fall back to the medium entry: levels can arrive from a
// loosely-typed feed, so the lookup fails closed instead of erroring.
func DailyMultiplier(level model.DailyLevel) float64 {
	switch level {
	case model.DailyExhausted:
		return 0.30
	case model.DailyLow:
		return 0.50
	case model.DailyHigh:
		return 0.85
	case model.DailyEnergized:
		return 1.00
	default:
		return 0.70
	}
}

// IntentionMultiplier scales capacity by the day's mode. Unknown labels
// fall back to balance.
func IntentionMultiplier(intention model.Intention) float64 {
	switch intention {
	case model.IntentionPush:
		return 1.20
	case model.IntentionRecovery:
		return 0.60
	default:
		return 1.00
	}
}

// DrainMultiplier converts an event's energy level into a per-minute cost
// factor. Unknown labels fall back to medium.
func DrainMultiplier(level model.EventEnergy) float64 {
	switch level {
	case model.EventEnergyRestful:
		return 0.00
	case model.EventEnergyLow:
		return 0.50
	case model.EventEnergyHigh:
		return 1.50
	default:
		return 1.00
	}
}

// EventDrain is the capacity cost of one event in minutes. An explicit
// EnergyDrain override always wins over the level-derived value.
func EventDrain(ev model.CalendarEvent) int {
	if ev.EnergyDrain != nil {
		return *ev.EnergyDrain
	}
	return int(math.Round(float64(ev.DurationMinutes()) * DrainMultiplier(ev.Energy)))
}
