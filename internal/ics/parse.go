package ics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"dayflow/internal/model"
)

// ErrEmptyFeed is returned when a feed yields no usable events at all.
// Individual malformed records are skipped silently; only a completely
// unusable feed is surfaced to the user.
var ErrEmptyFeed = errors.New("ics: feed contains no usable events")

const (
	dateTimeLayout    = "20060102T150405"
	dateTimeUTCLayout = "20060102T150405Z"
	dateLayout        = "20060102"

	// Some exporters flag removed occurrences with an instance-type code
	// instead of STATUS:CANCELLED.
	vendorInstanceCancelled = "4"
)

// Parser turns one feed document into candidate external events.
// Zero values give sensible defaults: Now defaults to the wall clock and
// Location to time.Local (the fallback zone for floating timestamps).
type Parser struct {
	// Source tags every emitted event with the feed it came from.
	Source string

	Now      time.Time
	Location *time.Location
}

func (p Parser) now() time.Time {
	if p.Now.IsZero() {
		return time.Now().UTC()
	}
	return p.Now
}

func (p Parser) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// tzRule is the offset pair extracted from one VTIMEZONE definition:
// a standard and daylight UTC offset plus the month each takes effect.
type tzRule struct {
	standardOffset int // seconds east of UTC
	daylightOffset int
	daylightMonth  time.Month
	standardMonth  time.Month
	hasDaylight    bool
}

// offsetFor picks an offset by month range. This is a deliberate
// approximation of the zone's real transition rules: events within a few
// days of an actual DST switch may get the neighboring offset. Kept as-is
// because downstream behavior depends on it; do not "fix" silently.
func (r tzRule) offsetFor(month time.Month) int {
	if !r.hasDaylight {
		return r.standardOffset
	}
	if r.daylightMonth < r.standardMonth {
		if month >= r.daylightMonth && month < r.standardMonth {
			return r.daylightOffset
		}
		return r.standardOffset
	}
	// Southern hemisphere: daylight wraps around the new year.
	if month >= r.daylightMonth || month < r.standardMonth {
		return r.daylightOffset
	}
	return r.standardOffset
}

// Parse scans the feed, builds the timezone table from every VTIMEZONE
// block first, then interprets each VEVENT. Recurring events are expanded
// into discrete instances. One bad record never aborts the feed.
func (p Parser) Parse(feed string) ([]model.CalendarEvent, error) {
	roots := scanComponents(feed)

	timezones := make(map[string]tzRule)
	vevents := make([]component, 0)
	feedMethodCancel := false

	var walk func(comps []component)
	walk = func(comps []component) {
		for _, comp := range comps {
			switch comp.Name {
			case "VTIMEZONE":
				if name, rule, ok := timezoneRule(comp); ok {
					timezones[name] = rule
				}
			case "VEVENT":
				vevents = append(vevents, comp)
			default:
				if strings.EqualFold(comp.propValue("METHOD"), "CANCEL") {
					feedMethodCancel = true
				}
			}
			walk(comp.Children)
		}
	}
	walk(roots)

	out := make([]model.CalendarEvent, 0, len(vevents))
	for _, comp := range vevents {
		events, ok := p.eventInstances(comp, timezones, feedMethodCancel)
		if !ok {
			continue
		}
		out = append(out, events...)
	}
	if len(out) == 0 {
		return nil, ErrEmptyFeed
	}
	return out, nil
}

// timezoneRule reads the STANDARD/DAYLIGHT sub-blocks of one VTIMEZONE.
func timezoneRule(comp component) (string, tzRule, bool) {
	name := comp.propValue("TZID")
	if name == "" {
		return "", tzRule{}, false
	}
	var rule tzRule
	haveStandard := false
	for _, child := range comp.Children {
		offset, ok := parseUTCOffset(child.propValue("TZOFFSETTO"))
		if !ok {
			continue
		}
		month, monthOK := transitionMonth(child.propValue("DTSTART"))
		switch child.Name {
		case "STANDARD":
			rule.standardOffset = offset
			if monthOK {
				rule.standardMonth = month
			}
			haveStandard = true
		case "DAYLIGHT":
			rule.daylightOffset = offset
			if monthOK {
				rule.daylightMonth = month
			}
			rule.hasDaylight = true
		}
	}
	if !haveStandard && !rule.hasDaylight {
		return "", tzRule{}, false
	}
	if !haveStandard {
		rule.standardOffset = rule.daylightOffset
		rule.hasDaylight = false
	}
	if rule.hasDaylight && (rule.daylightMonth == 0 || rule.standardMonth == 0) {
		// Without both transition months the heuristic cannot choose;
		// fall back to standard time year-round.
		rule.hasDaylight = false
	}
	return name, rule, true
}

// parseUTCOffset reads "+HHMM" / "-HHMM" (optionally with seconds) into
// seconds east of UTC.
func parseUTCOffset(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if len(v) < 5 {
		return 0, false
	}
	sign := 1
	switch v[0] {
	case '-':
		sign = -1
	case '+':
	default:
		return 0, false
	}
	hours, err := strconv.Atoi(v[1:3])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(v[3:5])
	if err != nil {
		return 0, false
	}
	seconds := 0
	if len(v) >= 7 {
		if s, err := strconv.Atoi(v[5:7]); err == nil {
			seconds = s
		}
	}
	return sign * (hours*3600 + minutes*60 + seconds), true
}

func transitionMonth(dtstart string) (time.Month, bool) {
	if len(dtstart) < 8 {
		return 0, false
	}
	m, err := strconv.Atoi(dtstart[4:6])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return time.Month(m), true
}

// eventInstances interprets one VEVENT and expands its recurrence, if
// any. The boolean is false when the record is filtered or malformed.
func (p Parser) eventInstances(comp component, timezones map[string]tzRule, feedMethodCancel bool) ([]model.CalendarEvent, bool) {
	uid := comp.propValue("UID")
	summary := comp.propValue("SUMMARY")
	// The UID becomes the event's sync key, so records without one are
	// dropped along with untitled ones.
	if uid == "" || summary == "" {
		return nil, false
	}

	startProp, startOK := comp.prop("DTSTART")
	endProp, endOK := comp.prop("DTEND")
	if !startOK || !endOK {
		return nil, false
	}
	start, ok := p.resolveInstant(startProp, timezones)
	if !ok {
		return nil, false
	}
	end, ok := p.resolveInstant(endProp, timezones)
	if !ok || !end.After(start) {
		return nil, false
	}

	if p.filtered(comp, feedMethodCancel) {
		return nil, false
	}

	base := model.CalendarEvent{
		Title:      summary,
		Start:      start,
		End:        end,
		External:   true,
		ExternalID: uid,
		Source:     p.Source,
		Location:   comp.propValue("LOCATION"),
		Energy:     model.EventEnergyMedium,
	}

	raw := comp.propValue("RRULE")
	if raw == "" {
		return []model.CalendarEvent{base}, true
	}
	r, err := parseRule(raw)
	if err != nil {
		// Unparseable rule: degrade to the single base occurrence.
		return []model.CalendarEvent{base}, true
	}
	instances := p.expandRule(base, r, p.exceptionDates(comp, timezones))
	if len(instances) == 0 {
		return nil, false
	}
	return instances, true
}

// filtered reports whether any cancellation/decline/hidden marker is set.
func (p Parser) filtered(comp component, feedMethodCancel bool) bool {
	if feedMethodCancel {
		return true
	}
	if strings.EqualFold(comp.propValue("STATUS"), "CANCELLED") {
		return true
	}
	if strings.EqualFold(comp.propValue("METHOD"), "CANCEL") {
		return true
	}
	if comp.propValue("X-MICROSOFT-CDO-INSTTYPE") == vendorInstanceCancelled {
		return true
	}
	if strings.EqualFold(comp.propValue("TRANSP"), "TRANSPARENT") {
		return true
	}
	for _, attendee := range comp.allProps("ATTENDEE") {
		if strings.EqualFold(attendee.Params["PARTSTAT"], "DECLINED") {
			return true
		}
	}
	return false
}

func (p Parser) exceptionDates(comp component, timezones map[string]tzRule) []time.Time {
	out := make([]time.Time, 0)
	for _, prop := range comp.allProps("EXDATE") {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			single := property{Name: prop.Name, Params: prop.Params, Value: part}
			if t, ok := p.resolveInstant(single, timezones); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// resolveInstant turns a DTSTART/DTEND/EXDATE property into an absolute
// instant. Resolution order: date-only values become UTC midnight; a
// Z-suffixed stamp is already UTC; a TZID-tagged stamp consults the local
// timezone table, then the system zone database, then falls back to
// treating the value as local time.
func (p Parser) resolveInstant(prop property, timezones map[string]tzRule) (time.Time, bool) {
	v := strings.TrimSpace(prop.Value)
	if v == "" {
		return time.Time{}, false
	}

	if strings.EqualFold(prop.Params["VALUE"], "DATE") || !strings.Contains(v, "T") {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(dateTimeUTCLayout, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	if tzid := prop.Params["TZID"]; tzid != "" {
		naive, err := time.Parse(dateTimeLayout, v)
		if err != nil {
			return time.Time{}, false
		}
		if rule, ok := timezones[tzid]; ok {
			loc := time.FixedZone(tzid, rule.offsetFor(naive.Month()))
			return time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), naive.Second(), 0, loc).UTC(), true
		}
		if loc, err := time.LoadLocation(tzid); err == nil {
			t, perr := time.ParseInLocation(dateTimeLayout, v, loc)
			if perr != nil {
				return time.Time{}, false
			}
			return t.UTC(), true
		}
		// Unresolvable zone: treat the value as already-local time.
	}

	t, err := time.ParseInLocation(dateTimeLayout, v, p.location())
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
