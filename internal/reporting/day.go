package reporting

import (
	"fmt"
	"time"
)

// DayLayout is the ISO calendar date format used for day keys.
const DayLayout = "2006-01-02"

// DayKey buckets t into a calendar day in loc. Every day-based filter and
// report goes through this function so they agree on day boundaries.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay reads an ISO calendar date as midnight in loc.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DayLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// SpanDays counts the calendar days from start to end inclusive, 0 when end
// precedes start.
func SpanDays(start, end time.Time) int {
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if last.Before(first) {
		return 0
	}
	// Sub saturates for very wide ranges, which still compares as too long.
	return int(last.Sub(first).Hours()/24) + 1
}

// DaysBetween lists every day key from start to end inclusive. It returns
// nil when end precedes start.
func DaysBetween(start, end time.Time) []string {
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	var days []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}
