package ics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"dayflow/internal/model"
)

const (
	// maxInstances is the runaway-recurrence safety valve. It stands in
	// for a time-based cutoff: expansion has no other limiter.
	maxInstances = 500

	// Expansion window relative to now.
	pastFloorDays    = 180
	futureCeilingYrs = 1
)

var errBadRule = errors.New("ics: unparseable recurrence rule")

type frequency string

const (
	freqDaily   frequency = "DAILY"
	freqWeekly  frequency = "WEEKLY"
	freqMonthly frequency = "MONTHLY"
	freqYearly  frequency = "YEARLY"
)

// rule is the parsed shape of an RRULE property.
type rule struct {
	freq       frequency
	interval   int
	count      int
	until      time.Time
	byDay      map[time.Weekday]bool
	byMonthDay map[int]bool
}

var weekdayCodes = map[string]time.Weekday{
	"SU": time.Sunday, "MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
	"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday,
}

// parseRule reads "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;UNTIL=...;COUNT=n".
// Unknown parts are ignored; a missing or unsupported FREQ is an error.
func parseRule(raw string) (rule, error) {
	r := rule{interval: 1}
	for _, part := range strings.Split(raw, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		value := strings.TrimSpace(kv[1])
		switch key {
		case "FREQ":
			r.freq = frequency(strings.ToUpper(value))
		case "INTERVAL":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				r.interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				r.count = n
			}
		case "UNTIL":
			if t, err := parseUntil(value); err == nil {
				r.until = t
			}
		case "BYDAY":
			r.byDay = parseByDay(value)
		case "BYMONTHDAY":
			r.byMonthDay = parseByMonthDay(value)
		}
	}
	switch r.freq {
	case freqDaily, freqWeekly, freqMonthly, freqYearly:
		return r, nil
	default:
		return rule{}, errBadRule
	}
}

func parseUntil(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse(dateTimeUTCLayout, v)
	}
	if strings.Contains(v, "T") {
		return time.Parse(dateTimeLayout, v)
	}
	return time.Parse(dateLayout, v)
}

func parseByDay(v string) map[time.Weekday]bool {
	out := make(map[time.Weekday]bool)
	for _, token := range strings.Split(v, ",") {
		token = strings.TrimSpace(strings.ToUpper(token))
		// Strip ordinal prefixes like "2MO" or "-1FR".
		token = strings.TrimLeft(token, "+-0123456789")
		if wd, ok := weekdayCodes[token]; ok {
			out[wd] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseByMonthDay(v string) map[int]bool {
	out := make(map[int]bool)
	for _, token := range strings.Split(v, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(token)); err == nil && n >= 1 && n <= 31 {
			out[n] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r rule) step(t time.Time) time.Time {
	switch r.freq {
	case freqDaily:
		return t.AddDate(0, 0, r.interval)
	case freqWeekly:
		return t.AddDate(0, 0, 7*r.interval)
	case freqMonthly:
		return t.AddDate(0, r.interval, 0)
	default:
		return t.AddDate(r.interval, 0, 0)
	}
}

// matches applies the weekday/month-day filters. A generated date that
// fails its filter is skipped entirely and does not count as an
// occurrence.
func (r rule) matches(t time.Time) bool {
	if r.freq == freqWeekly && r.byDay != nil && !r.byDay[t.Weekday()] {
		return false
	}
	if r.freq == freqMonthly && r.byMonthDay != nil && !r.byMonthDay[t.Day()] {
		return false
	}
	return true
}

// expandRule steps the rule's calendar unit from the base start, emitting
// one instance per surviving occurrence. Bounds: UNTIL or one year ahead
// of now (whichever is sooner), 180 days in the past, COUNT, and the
// 500-instance cap. Every instance gets its own external id: the base id
// suffixed with the instance date.
func (p Parser) expandRule(base model.CalendarEvent, r rule, exceptions []time.Time) []model.CalendarEvent {
	now := p.now()
	floor := now.AddDate(0, 0, -pastFloorDays)
	ceiling := now.AddDate(futureCeilingYrs, 0, 0)
	if !r.until.IsZero() && r.until.Before(ceiling) {
		ceiling = r.until
	}

	excluded := make(map[string]bool, len(exceptions))
	for _, ex := range exceptions {
		excluded[ex.UTC().Format(model.DateLayout)] = true
	}

	duration := base.End.Sub(base.Start)
	out := make([]model.CalendarEvent, 0)
	occurrences := 0

	for cursor := base.Start; !cursor.After(ceiling); cursor = r.step(cursor) {
		if !r.matches(cursor) {
			continue
		}
		occurrences++
		if r.count > 0 && occurrences > r.count {
			break
		}
		instanceDate := cursor.UTC().Format(model.DateLayout)
		if excluded[instanceDate] {
			continue
		}
		if cursor.Before(floor) {
			continue
		}
		instance := base
		instance.Start = cursor
		instance.End = cursor.Add(duration)
		instance.ExternalID = base.ExternalID + "-" + instanceDate
		out = append(out, instance)
		if len(out) >= maxInstances {
			break
		}
	}
	return out
}
