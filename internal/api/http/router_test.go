package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/api/http/handlers"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/observability"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/reporting"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

var (
	adminUser = domain.User{ID: "u-admin", Name: "Alice Admin", Email: "alice@example.com", Role: domain.RoleAdmin}
	staffUser = domain.User{ID: "u-staff", Name: "Bob Staff", Email: "bob@example.com", Role: domain.RoleStaff}
)

type userDirectory map[string]domain.User

func (d userDirectory) ResolveUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := d[userID]
	if !ok {
		return nil, apperrors.NewNotAuthenticated("account no longer exists")
	}
	return &user, nil
}

// fakeIssues embeds the interface so tests only implement what they call.
type fakeIssues struct {
	handlers.IssueService
	criteria reporting.Criteria
	draft    domain.IssueDraft
}

func (f *fakeIssues) List(_ context.Context, _ domain.User, criteria reporting.Criteria) ([]domain.Issue, error) {
	f.criteria = criteria
	return []domain.Issue{{ID: "i1", Title: "Leak", Status: domain.IssueStatusOpen, Priority: domain.IssuePriorityLow}}, nil
}

func (f *fakeIssues) Create(_ context.Context, actor domain.User, draft domain.IssueDraft) (*domain.Issue, error) {
	f.draft = draft
	return &domain.Issue{ID: "new", Title: draft.Title, Status: domain.IssueStatusOpen, Priority: draft.Priority, ReportedBy: actor.ID}, nil
}

func (f *fakeIssues) ChangeStatus(context.Context, domain.User, string, domain.IssueStatus) (*domain.Issue, error) {
	return nil, apperrors.NewPermissionDenied("you are not allowed to change issue status")
}

func (f *fakeIssues) Permissions(actor domain.User, issue domain.Issue) []policy.Action {
	return policy.Permissions(policy.Default, policy.ActorFor(actor), policy.IssueResource(issue))
}

type fakeReports struct {
	handlers.ReportService
}

func (fakeReports) ExportCSV(_ context.Context, _ domain.User, start, end string, w io.Writer) (string, error) {
	if end < start {
		return "", apperrors.NewValidationError("end date must not precede start date", nil)
	}
	_, err := io.WriteString(w, "\uFEFFIssue ID,Logged Date\n\"abc\",\"2024-03-01\"")
	return reporting.CSVFilename(start, end), err
}

type fakeAuth struct {
	handlers.AuthService
}

type fakeUsers struct {
	handlers.UserService
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app    *fiber.App
	tokens map[string]string
	issues *fakeIssues
}

func newTestServer(t *testing.T, postgres handlers.Pinger) testServer {
	t.Helper()
	tokens := auth.NewTokenManager("router-secret", time.Hour)
	sessions := auth.NewMemorySessionStore(time.Now)
	directory := userDirectory{adminUser.ID: adminUser, staffUser.ID: staffUser}

	issued := map[string]string{}
	for _, user := range directory {
		sessionID := "session-" + user.ID
		token, _, _, err := tokens.GenerateToken(user.ID, sessionID, user.Email)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if err := sessions.Save(context.Background(), sessionID, user.ID, time.Hour); err != nil {
			t.Fatalf("Save: %v", err)
		}
		issued[user.ID] = token
	}

	issues := &fakeIssues{}
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("issuedesk", "test", handlers.HealthDependencies{Postgres: postgres}),
		Auth:           handlers.NewAuthHandler(fakeAuth{}),
		Users:          handlers.NewUsersHandler(fakeUsers{}, nil),
		Issues:         handlers.NewIssuesHandler(issues),
		Reports:        handlers.NewReportsHandler(fakeReports{}),
		Catalog:        handlers.NewCatalogHandler(domain.Catalog{Places: []string{"Outlet"}, Branches: []string{"Galle"}}),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions, directory),
	})
	return testServer{app: app, tokens: issued, issues: issues}
}

func (s testServer) do(t *testing.T, method, path, userID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[userID])
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	healthy := newTestServer(t, pinger{})
	if resp := healthy.do(t, http.MethodGet, "/health/live", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("live = %d", resp.StatusCode)
	}
	if resp := healthy.do(t, http.MethodGet, "/health/ready", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("ready = %d", resp.StatusCode)
	}

	down := newTestServer(t, pinger{err: errors.New("connection refused")})
	if resp := down.do(t, http.MethodGet, "/health/ready", "", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready with postgres down = %d", resp.StatusCode)
	}
}

func TestErrorRendering(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		status int
		code   string
	}{
		{"missing token", http.MethodGet, "/issues", "", "", http.StatusUnauthorized, apperrors.CodeNotAuthenticated},
		{"bad date filter", http.MethodGet, "/issues?date=10-03-2024", staffUser.ID, "", http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"service denial", http.MethodPatch, "/issues/i1/status", staffUser.ID, `{"status":"CLOSED"}`, http.StatusForbidden, apperrors.CodePermissionDenied},
		{"admin only route", http.MethodGet, "/users", staffUser.ID, "", http.StatusForbidden, apperrors.CodePermissionDenied},
		{"malformed body", http.MethodPost, "/issues", staffUser.ID, `{"title":`, http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"unknown route", http.MethodGet, "/nowhere", adminUser.ID, "", http.StatusNotFound, apperrors.CodeNotFound},
	}
	for _, tc := range cases {
		resp := srv.do(t, tc.method, tc.path, tc.user, tc.body)
		if resp.StatusCode != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.status)
			continue
		}
		if code := errorCode(t, resp); code != tc.code {
			t.Errorf("%s: code = %s, want %s", tc.name, code, tc.code)
		}
	}
}

func TestListIssuesParsesFilters(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	resp := srv.do(t, http.MethodGet, "/issues?view=assigned&q=leak&status=in_progress&branch=Galle&date=2024-03-10", adminUser.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := srv.issues.criteria
	want := reporting.Criteria{
		View:   reporting.ViewAssigned,
		Search: "leak",
		Facets: reporting.Facets{Status: "IN_PROGRESS", Branch: "Galle"},
		Day:    "2024-03-10",
	}
	if got != want {
		t.Errorf("criteria = %+v, want %+v", got, want)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Data) != 1 || payload.Data[0].ID != "i1" {
		t.Errorf("data = %+v", payload.Data)
	}
}

func TestCreateIssueDefaultsPriority(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	body := `{"title":"AC not cooling","description":"warm air","category":"HVAC","subCategory":"AC servicing","place":"Outlet","location":"Galle"}`
	resp := srv.do(t, http.MethodPost, "/issues", staffUser.ID, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if srv.issues.draft.Priority != domain.IssuePriorityMedium {
		t.Errorf("priority = %s, want MEDIUM", srv.issues.draft.Priority)
	}

	var payload struct {
		Data struct {
			ReportedBy  string   `json:"reportedBy"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Data.ReportedBy != staffUser.ID {
		t.Errorf("reportedBy = %s", payload.Data.ReportedBy)
	}
	if !contains(payload.Data.Permissions, string(policy.ActionEditIssue)) {
		t.Errorf("owner permissions = %v, want edit", payload.Data.Permissions)
	}
}

func TestRangeCSVDownload(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	resp := srv.do(t, http.MethodGet, "/reports/range.csv?start=2024-03-01&end=2024-03-31", adminUser.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "Performance_Report_2024-03-01_to_2024-03-31.csv") {
		t.Errorf("Content-Disposition = %q", disposition)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(raw), "\uFEFF") {
		t.Error("CSV body lacks BOM")
	}

	inverted := srv.do(t, http.MethodGet, "/reports/range.csv?start=2024-03-31&end=2024-03-01", adminUser.ID, "")
	if inverted.StatusCode != http.StatusBadRequest {
		t.Errorf("inverted range status = %d", inverted.StatusCode)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	resp := srv.do(t, http.MethodGet, "/catalog", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	for _, want := range []string{`"Galle"`, `"CRITICAL"`, `"TECHNICIAN"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("catalog body missing %s: %s", want, raw)
		}
	}
}

func TestMeListsPermissions(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, pinger{})

	resp := srv.do(t, http.MethodGet, "/me", adminUser.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Data struct {
			ID          string   `json:"id"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Data.ID != adminUser.ID || !contains(payload.Data.Permissions, string(policy.ActionManageUsers)) {
		t.Errorf("me = %+v", payload.Data)
	}
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
