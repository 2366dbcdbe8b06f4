// Package cli holds small helpers shared by the command layer.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for statement period bounds.
const DateLayout = "2006-01-02"

// Matches: "30d ago", "7 days ago", "2w ago", "1mo ago"
var relativeAgoRegex = regexp.MustCompile(`^(\d+)\s*(months?|mo|weeks?|w|days?|d)\s*ago$`)

// ParseDateExpr parses a human-friendly date expression into the start of
// the matching day. Statement periods look backwards, so bare weekday names
// resolve to the most recent occurrence.
// Supports: "2026-01-31", "today", "yesterday", "30d ago", "7 days ago",
// "mon", "last tue".
func ParseDateExpr(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}

	input := strings.ToLower(raw)

	switch input {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if t, ok := parseWeekday(input, now); ok {
		return t, nil
	}

	if matches := relativeAgoRegex.FindStringSubmatch(input); len(matches) == 3 {
		value, err := strconv.Atoi(matches[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid relative date %q", raw)
		}
		return applyRelative(startOfDay(now), value, matches[2]), nil
	}

	if t, err := time.ParseInLocation(DateLayout, raw, now.Location()); err == nil {
		return startOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("invalid date expression %q (use YYYY-MM-DD, 'today', 'yesterday', or '30d ago')", raw)
}

// Period is a closed date range for statement listings.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod resolves the start/end expressions into a period. An empty
// end defaults to today. Start must not come after end.
func ParsePeriod(startExpr, endExpr string, now time.Time) (Period, error) {
	start, err := ParseDateExpr(startExpr, now)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period start: %w", err)
	}

	end := startOfDay(now)
	if strings.TrimSpace(endExpr) != "" {
		end, err = ParseDateExpr(endExpr, now)
		if err != nil {
			return Period{}, fmt.Errorf("invalid period end: %w", err)
		}
	}

	if start.After(end) {
		return Period{}, fmt.Errorf("period start %s is after end %s", start.Format(DateLayout), end.Format(DateLayout))
	}

	return Period{Start: start, End: end}, nil
}

// StartParam formats the start bound for the dateStart query parameter.
func (p Period) StartParam() string { return p.Start.Format(DateLayout) }

// EndParam formats the end bound for the dateEnd query parameter.
func (p Period) EndParam() string { return p.End.Format(DateLayout) }

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseWeekday resolves a weekday name to its most recent occurrence.
// "last mon" forces the previous week even when today is Monday.
func parseWeekday(expr string, now time.Time) (time.Time, bool) {
	input := strings.TrimSpace(expr)
	if input == "" {
		return time.Time{}, false
	}

	previous := false
	if strings.HasPrefix(input, "last ") {
		previous = true
		input = strings.TrimSpace(strings.TrimPrefix(input, "last "))
	}

	weekday, ok := weekdayMap[input]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(base.Weekday()) - int(weekday) + 7) % 7
	if previous && delta == 0 {
		delta = 7
	}

	return base.AddDate(0, 0, -delta), true
}

var weekdayMap = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"weds":      time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

func applyRelative(day time.Time, value int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "mo"):
		return day.AddDate(0, -value, 0)
	case strings.HasPrefix(unit, "w"):
		return day.AddDate(0, 0, -value*7)
	default:
		return day.AddDate(0, 0, -value)
	}
}
