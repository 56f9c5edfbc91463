package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/reporting"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// IssueSnapshot is the read side the report service aggregates over.
type IssueSnapshot interface {
	Refresh(ctx context.Context) error
	Loaded() bool
	Snapshot() []domain.Issue
	Status() (time.Time, error)
}

// ReportService serves dashboard statistics, range reports and CSV exports
// from the read replica.
type ReportService struct {
	replica  IssueSnapshot
	location *time.Location
	logger   *zap.Logger
}

// NewReportService builds the service.
func NewReportService(replica IssueSnapshot, loc *time.Location, logger *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{replica: replica, location: loc, logger: logger}
}

// Location returns the timezone used for day bucketing.
func (s *ReportService) Location() *time.Location {
	return s.location
}

// Dashboard summarizes the issues in the actor's scope.
func (s *ReportService) Dashboard(ctx context.Context, actor domain.User) (reporting.DashboardStats, error) {
	issues, err := s.scoped(ctx, actor)
	if err != nil {
		return reporting.DashboardStats{}, err
	}
	return reporting.Dashboard(issues), nil
}

// Range builds the report for the inclusive [start, end] day range.
func (s *ReportService) Range(ctx context.Context, actor domain.User, start, end string) (reporting.RangeReport, error) {
	from, err := reporting.ParseDay(start, s.location)
	if err != nil {
		return reporting.RangeReport{}, apperrors.NewValidationError(err.Error(), map[string]any{"start": start})
	}
	to, err := reporting.ParseDay(end, s.location)
	if err != nil {
		return reporting.RangeReport{}, apperrors.NewValidationError(err.Error(), map[string]any{"end": end})
	}

	issues, err := s.scoped(ctx, actor)
	if err != nil {
		return reporting.RangeReport{}, err
	}
	report, err := reporting.BuildRangeReport(issues, from, to, s.location)
	switch {
	case errors.Is(err, reporting.ErrInvertedRange):
		return reporting.RangeReport{}, apperrors.NewValidationError("end date must not precede start date",
			map[string]any{"start": start, "end": end})
	case errors.Is(err, reporting.ErrRangeTooLong):
		return reporting.RangeReport{}, apperrors.NewValidationError(err.Error(),
			map[string]any{"start": start, "end": end, "maxDays": reporting.MaxRangeDays})
	}
	return report, err
}

// ExportCSV writes the range report as CSV and returns the download filename.
func (s *ReportService) ExportCSV(ctx context.Context, actor domain.User, start, end string, w io.Writer) (string, error) {
	report, err := s.Range(ctx, actor, start, end)
	if err != nil {
		return "", err
	}
	if err := reporting.WriteCSV(w, report, s.location); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return reporting.CSVFilename(report.Start, report.End), nil
}

// Refresh reloads the replica now.
func (s *ReportService) Refresh(ctx context.Context) error {
	if err := s.replica.Refresh(ctx); err != nil {
		s.logger.Warn("manual replica refresh failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *ReportService) scoped(ctx context.Context, actor domain.User) ([]domain.Issue, error) {
	who := policy.ActorFor(actor)
	if who.ID == "" {
		return nil, apperrors.NewNotAuthenticated("sign in to view reports")
	}
	if !s.replica.Loaded() {
		if err := s.replica.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	// a failed poll blocks reads until a later refresh succeeds
	if _, err := s.replica.Status(); err != nil {
		return nil, err
	}
	return reporting.Scope(s.replica.Snapshot(), who), nil
}
