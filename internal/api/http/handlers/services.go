package handlers

import (
	"context"
	"io"

	"github.com/streetburger/issuedesk/internal/ai"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/reporting"
	"github.com/streetburger/issuedesk/internal/service"
)

// IssueService is the issue workflow used by IssuesHandler.
type IssueService interface {
	List(ctx context.Context, actor domain.User, criteria reporting.Criteria) ([]domain.Issue, error)
	Get(ctx context.Context, actor domain.User, id string) (*domain.Issue, error)
	Permissions(actor domain.User, issue domain.Issue) []policy.Action
	Create(ctx context.Context, actor domain.User, draft domain.IssueDraft) (*domain.Issue, error)
	Update(ctx context.Context, actor domain.User, id string, in service.IssueUpdateInput) (*domain.Issue, error)
	ChangeStatus(ctx context.Context, actor domain.User, id string, status domain.IssueStatus) (*domain.Issue, error)
	Assign(ctx context.Context, actor domain.User, id, assigneeID string) (*domain.Issue, error)
	AssignToMe(ctx context.Context, actor domain.User, id string) (*domain.Issue, error)
	AddComment(ctx context.Context, actor domain.User, id, content string) (*domain.Issue, error)
	Delete(ctx context.Context, actor domain.User, id string) error
	Analyze(ctx context.Context, actor domain.User, id string) (service.AnalysisResult, error)
	ExpandDescription(ctx context.Context, actor domain.User, title, category string) (ai.Suggestion, error)
}

// ReportService serves dashboard and report reads.
type ReportService interface {
	Dashboard(ctx context.Context, actor domain.User) (reporting.DashboardStats, error)
	Range(ctx context.Context, actor domain.User, start, end string) (reporting.RangeReport, error)
	ExportCSV(ctx context.Context, actor domain.User, start, end string, w io.Writer) (string, error)
	Refresh(ctx context.Context) error
}

// AuthService is the authentication provider used by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, in service.SignUpInput) (domain.Identity, *domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, sessionID, userID string) error
	Session(ctx context.Context, token string) (*domain.Session, error)
	RequestRecovery(ctx context.Context, email string) (*domain.RecoveryToken, error)
	ConfirmRecovery(ctx context.Context, token, newPassword string) (*domain.Session, error)
}

// UserService covers profile and account administration.
type UserService interface {
	List(ctx context.Context, actor domain.User) ([]domain.User, error)
	Technicians(ctx context.Context, actor domain.User) ([]domain.User, error)
	CreateAsAdmin(ctx context.Context, actor domain.User, in service.CreateUserInput) (*domain.User, error)
	UpdateRole(ctx context.Context, actor domain.User, targetID string, role domain.Role) error
	ResetPasswordAsAdmin(ctx context.Context, actor domain.User, targetID, newPassword string) error
	DeleteUser(ctx context.Context, actor domain.User, targetID string) error
	UpdateOwnProfile(ctx context.Context, actor domain.User, name, avatar string) (*domain.User, error)
	ChangeOwnPassword(ctx context.Context, actor domain.User, newPassword, confirm string) error
}
