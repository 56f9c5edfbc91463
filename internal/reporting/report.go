package reporting

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
)

// MaxRangeDays bounds the span of a range report.
const MaxRangeDays = 366

var (
	// ErrInvertedRange is returned when the range ends before it starts.
	ErrInvertedRange = errors.New("end date precedes start date")
	// ErrRangeTooLong is returned when the range spans more than MaxRangeDays.
	ErrRangeTooLong = fmt.Errorf("date range exceeds %d days", MaxRangeDays)
)

// DayCount is one point of the daily series.
type DayCount struct {
	Date  string
	Count int
}

// StatusCount is one non-empty bucket of the status breakdown.
type StatusCount struct {
	Status domain.IssueStatus
	Count  int
}

// RangeReport summarizes issues created within [Start, End].
type RangeReport struct {
	Start          string
	End            string
	Total          int
	Resolved       int
	Open           int
	ResolutionRate int
	Daily          []DayCount
	Statuses       []StatusCount
	Issues         []domain.Issue
}

// BuildRangeReport selects issues whose createdAt day, in loc, falls within
// the inclusive calendar range and aggregates them. The daily series holds
// every day of the range, zero days included; the status breakdown leaves
// out empty statuses.
func BuildRangeReport(issues []domain.Issue, start, end time.Time, loc *time.Location) (RangeReport, error) {
	startKey := DayKey(start, loc)
	endKey := DayKey(end, loc)
	if endKey < startKey {
		return RangeReport{}, ErrInvertedRange
	}
	if SpanDays(start.In(locOrLocal(loc)), end.In(locOrLocal(loc))) > MaxRangeDays {
		return RangeReport{}, ErrRangeTooLong
	}

	report := RangeReport{Start: startKey, End: endKey, Issues: []domain.Issue{}}
	days := DaysBetween(start.In(locOrLocal(loc)), end.In(locOrLocal(loc)))
	perDay := make(map[string]int, len(days))
	perStatus := make(map[domain.IssueStatus]int)

	for _, issue := range issues {
		key := DayKey(issue.CreatedAt, loc)
		if key < startKey || key > endKey {
			continue
		}
		report.Issues = append(report.Issues, issue)
		perDay[key]++
		perStatus[issue.Status]++
		if issue.IsResolved() {
			report.Resolved++
		}
		if issue.Status == domain.IssueStatusOpen {
			report.Open++
		}
	}

	report.Total = len(report.Issues)
	report.ResolutionRate = ResolutionRate(report.Resolved, report.Total)

	report.Daily = make([]DayCount, 0, len(days))
	for _, day := range days {
		report.Daily = append(report.Daily, DayCount{Date: day, Count: perDay[day]})
	}
	for _, status := range domain.IssueStatuses {
		if n := perStatus[status]; n > 0 {
			report.Statuses = append(report.Statuses, StatusCount{Status: status, Count: n})
		}
	}

	sort.SliceStable(report.Issues, func(a, b int) bool {
		return report.Issues[a].CreatedAt.After(report.Issues[b].CreatedAt)
	})
	return report, nil
}

// ResolutionRate is resolved/total as a rounded percentage, 0 when total is 0.
func ResolutionRate(resolved, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(resolved) / float64(total) * 100))
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
