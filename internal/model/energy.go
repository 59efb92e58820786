package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDailyLevel = errors.New("model: invalid daily energy level")

// DailyLevel is how much energy the whole day has, recorded once per date.
type DailyLevel string

const (
	DailyExhausted DailyLevel = "exhausted"
	DailyLow       DailyLevel = "low"
	DailyMedium    DailyLevel = "medium"
	DailyHigh      DailyLevel = "high"
	DailyEnergized DailyLevel = "energized"
)

func (l DailyLevel) IsValid() bool {
	switch l {
	case DailyExhausted, DailyLow, DailyMedium, DailyHigh, DailyEnergized:
		return true
	default:
		return false
	}
}

// Rank orders daily levels for energy-fit comparisons during scheduling.
func (l DailyLevel) Rank() int {
	switch l {
	case DailyExhausted:
		return 0
	case DailyLow:
		return 1
	case DailyHigh:
		return 3
	case DailyEnergized:
		return 4
	default:
		return 2
	}
}

// Intention is the declared mode for a day and scales its capacity.
type Intention string

const (
	IntentionPush     Intention = "push"
	IntentionBalance  Intention = "balance"
	IntentionRecovery Intention = "recovery"
)

func (i Intention) IsValid() bool {
	switch i {
	case IntentionPush, IntentionBalance, IntentionRecovery:
		return true
	default:
		return false
	}
}

// DailyEnergy is the per-date energy record. At most one exists per date;
// writes upsert. An empty Intention means balance.
type DailyEnergy struct {
	Date      string
	Level     DailyLevel
	Intention Intention
	Note      string
}

func (d DailyEnergy) Validate() error {
	if strings.TrimSpace(d.Date) == "" {
		return errors.New("model: daily energy date is required")
	}
	if _, err := ParseDate(d.Date); err != nil {
		return err
	}
	if !d.Level.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDailyLevel, d.Level)
	}
	if d.Intention != "" && !d.Intention.IsValid() {
		return fmt.Errorf("model: invalid intention %q", d.Intention)
	}
	return nil
}
