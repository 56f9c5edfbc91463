package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/replica"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

type fakeSnapshot struct {
	issues    []domain.Issue
	loaded    bool
	refreshes int
	err       error
}

func (f *fakeSnapshot) Refresh(context.Context) error {
	f.refreshes++
	if f.err != nil {
		return f.err
	}
	f.loaded = true
	return nil
}

func (f *fakeSnapshot) Loaded() bool { return f.loaded }

func (f *fakeSnapshot) Status() (time.Time, error) {
	if !f.loaded {
		return time.Time{}, f.err
	}
	return time.Now(), f.err
}

func (f *fakeSnapshot) Snapshot() []domain.Issue {
	return append([]domain.Issue{}, f.issues...)
}

func reportIssues() []domain.Issue {
	day := func(d int, hour int) time.Time { return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC) }
	mk := func(id, reporter string, status domain.IssueStatus, priority domain.IssuePriority, created time.Time) domain.Issue {
		return domain.Issue{
			ID: id, Title: "Issue " + id, Status: status, Priority: priority,
			ReportedBy: reporter, ReportedByName: "Reporter", CreatedAt: created, UpdatedAt: created,
		}
	}
	return []domain.Issue{
		mk("a", staff.ID, domain.IssueStatusOpen, domain.IssuePriorityCritical, day(1, 9)),
		mk("b", staff.ID, domain.IssueStatusResolved, domain.IssuePriorityLow, day(2, 10)),
		mk("c", otherStaff.ID, domain.IssueStatusClosed, domain.IssuePriorityHigh, day(2, 11)),
		mk("d", otherStaff.ID, domain.IssueStatusInProgress, domain.IssuePriorityMedium, day(5, 8)),
	}
}

func TestDashboardLoadsReplicaOnceAndScopes(t *testing.T) {
	t.Parallel()
	snapshot := &fakeSnapshot{issues: reportIssues()}
	svc := NewReportService(snapshot, time.UTC, nil)

	stats, err := svc.Dashboard(context.Background(), staff)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.Total != 2 || stats.Critical != 1 {
		t.Errorf("staff stats = %+v", stats)
	}

	stats, err = svc.Dashboard(context.Background(), manager)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.Total != 4 || stats.ByStatus[domain.IssueStatusClosed] != 1 {
		t.Errorf("manager stats = %+v", stats)
	}
	if snapshot.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", snapshot.refreshes)
	}
}

func TestDashboardPropagatesInitialLoadFailure(t *testing.T) {
	t.Parallel()
	storeErr := apperrors.NewStoreUnavailable("database is unreachable", errors.New("dial tcp"))
	svc := NewReportService(&fakeSnapshot{err: storeErr}, time.UTC, nil)

	if _, err := svc.Dashboard(context.Background(), admin); !apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
		t.Errorf("err = %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), domain.User{}); !apperrors.HasCode(err, apperrors.CodeNotAuthenticated) {
		t.Errorf("anonymous: err = %v", err)
	}
}

type switchableSource struct {
	mu     sync.Mutex
	issues []domain.Issue
	err    error
}

func (s *switchableSource) List(context.Context) ([]domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Issue{}, s.issues...), nil
}

func (s *switchableSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func TestReportsSurfaceFailedPollUntilRecovered(t *testing.T) {
	t.Parallel()
	source := &switchableSource{issues: reportIssues()}
	r := replica.New(source, time.Minute, nil, nil)
	svc := NewReportService(r, time.UTC, nil)
	ctx := context.Background()

	if stats, err := svc.Dashboard(ctx, staff); err != nil || stats.Total != 2 {
		t.Fatalf("Dashboard = %+v, %v", stats, err)
	}

	source.fail(apperrors.NewSchemaMissing("issues table is missing", errors.New("42P01")))
	if err := r.Refresh(ctx); err == nil {
		t.Fatal("refresh against a broken store succeeded")
	}
	if _, err := svc.Dashboard(ctx, staff); !apperrors.HasCode(err, apperrors.CodeSchemaMissing) {
		t.Errorf("dashboard after failed poll: err = %v", err)
	}
	if _, err := svc.Range(ctx, admin, "2024-03-01", "2024-03-03"); !apperrors.HasCode(err, apperrors.CodeSchemaMissing) {
		t.Errorf("range after failed poll: err = %v", err)
	}
	var buf bytes.Buffer
	if _, err := svc.ExportCSV(ctx, admin, "2024-03-01", "2024-03-03", &buf); !apperrors.HasCode(err, apperrors.CodeSchemaMissing) {
		t.Errorf("export after failed poll: err = %v", err)
	}

	source.fail(nil)
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := svc.Dashboard(ctx, staff); err != nil {
		t.Errorf("dashboard after recovery: %v", err)
	}
}

func TestRangeReportValidation(t *testing.T) {
	t.Parallel()
	svc := NewReportService(&fakeSnapshot{issues: reportIssues()}, time.UTC, nil)
	ctx := context.Background()

	cases := map[string][2]string{
		"inverted":  {"2024-03-05", "2024-03-01"},
		"bad start": {"03/01/2024", "2024-03-05"},
		"bad end":   {"2024-03-01", ""},
		"too long":  {"0001-01-01", "9999-12-31"},
		"367 days":  {"2024-01-01", "2025-01-01"},
	}
	for name, tc := range cases {
		if _, err := svc.Range(ctx, admin, tc[0], tc[1]); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
			t.Errorf("%s: err = %v", name, err)
		}
	}

	report, err := svc.Range(ctx, admin, "2024-03-01", "2024-03-03")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if report.Total != 3 || report.Resolved != 2 || report.Open != 1 || report.ResolutionRate != 67 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Daily) != 3 || report.Daily[2].Count != 0 {
		t.Errorf("daily = %+v", report.Daily)
	}
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	svc := NewReportService(&fakeSnapshot{issues: reportIssues()}, time.UTC, nil)

	var buf bytes.Buffer
	name, err := svc.ExportCSV(context.Background(), staff, "2024-03-01", "2024-03-31", &buf)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if name != "Performance_Report_2024-03-01_to_2024-03-31.csv" {
		t.Errorf("filename = %q", name)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 staff rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "\uFEFFIssue ID,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `"b",`) {
		t.Errorf("newest row first, got %q", lines[1])
	}
}

func TestManualRefresh(t *testing.T) {
	t.Parallel()
	snapshot := &fakeSnapshot{}
	svc := NewReportService(snapshot, nil, nil)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !snapshot.loaded || snapshot.refreshes != 1 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if svc.Location() != time.Local {
		t.Error("nil location should default to Local")
	}
}
