package reporting

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
)

// CSVHeader is the fixed export schema.
var CSVHeader = []string{
	"Issue ID",
	"Logged Date",
	"Subject",
	"Description",
	"Category",
	"Sub-Category",
	"Area/Place",
	"Branch Location",
	"Priority Level",
	"Current Status",
	"Reported By",
	"Assigned Technician",
	"AI Support Notes",
}

const (
	utf8BOM     = "\uFEFF"
	shortIDLen  = 8
	notAssigned = "Not Assigned"
	noAnalysis  = "No analysis available"
	notAvail    = "N/A"
	defaultArea = "Outlet"
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// CSVFilename names the export for a date range.
func CSVFilename(start, end string) string {
	return fmt.Sprintf("Performance_Report_%s_to_%s.csv", start, end)
}

// CleanField strips Markdown emphasis, folds line breaks into one space,
// doubles quotes and wraps the result in quotes.
func CleanField(value string) string {
	value = strings.ReplaceAll(value, "**", "")
	value = strings.ReplaceAll(value, "*", "")
	value = lineBreaks.ReplaceAllString(value, " ")
	value = strings.ReplaceAll(value, `"`, `""`)
	return `"` + strings.TrimSpace(value) + `"`
}

// CSVRow renders one issue in header order, unquoted and unsanitized.
func CSVRow(issue domain.Issue, loc *time.Location) []string {
	id := issue.ID
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	return []string{
		id,
		DayKey(issue.CreatedAt, loc),
		issue.Title,
		issue.Description,
		issue.Category,
		orDefault(issue.SubCategory, notAvail),
		orDefault(issue.Place, defaultArea),
		orDefault(issue.Location, notAvail),
		string(issue.Priority),
		issue.Status.Label(),
		issue.ReportedByName,
		orDefault(issue.AssignedToName, notAssigned),
		orDefault(issue.AIAnalysis, noAnalysis),
	}
}

// WriteCSV writes the report's issues, newest first, as a BOM-prefixed CSV
// with every data field quoted.
func WriteCSV(w io.Writer, report RangeReport, loc *time.Location) error {
	buf := bufio.NewWriter(w)
	if _, err := buf.WriteString(utf8BOM + strings.Join(CSVHeader, ",")); err != nil {
		return err
	}
	for _, issue := range report.Issues {
		fields := CSVRow(issue, loc)
		for i := range fields {
			fields[i] = CleanField(fields[i])
		}
		if _, err := buf.WriteString("\n" + strings.Join(fields, ",")); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
