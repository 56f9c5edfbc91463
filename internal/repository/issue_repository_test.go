package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
)

func TestBuildIssueUpdateWritesOnlySuppliedColumns(t *testing.T) {
	t.Parallel()

	status := domain.IssueStatusResolved
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	query, args, err := buildIssueUpdate("i1", domain.IssuePatch{Status: &status}, now)
	if err != nil {
		t.Fatalf("buildIssueUpdate: %v", err)
	}
	if !strings.HasPrefix(query, "UPDATE issues SET status=$1, updated_at=GREATEST(created_at, $2) WHERE id=$3 RETURNING") {
		t.Errorf("query = %q", query)
	}
	if strings.Contains(query, "title=") || strings.Contains(query, "assigned_to=") {
		t.Errorf("query touches unrelated columns: %q", query)
	}
	if len(args) != 3 || args[0] != "RESOLVED" || args[1] != now || args[2] != "i1" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildIssueUpdateClearsAssigneePair(t *testing.T) {
	t.Parallel()

	query, args, err := buildIssueUpdate("i1", domain.IssuePatch{ClearAssignee: true}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "assigned_to=$1, assigned_to_name=$2") {
		t.Errorf("query = %q", query)
	}
	if args[0] != nil || args[1] != nil {
		t.Errorf("assignee args = %v %v, want NULLs", args[0], args[1])
	}
}

func TestBuildIssueUpdateEncodesAttachments(t *testing.T) {
	t.Parallel()

	attachments := []domain.Attachment{{ID: "a1", Name: "photo.png", Type: "image/png", Data: "aGk="}}
	query, args, err := buildIssueUpdate("i1", domain.IssuePatch{Attachments: &attachments}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "attachments=$1::jsonb") {
		t.Errorf("query = %q", query)
	}
	if got := args[0].(string); got != `[{"id":"a1","name":"photo.png","type":"image/png","data":"aGk="}]` {
		t.Errorf("attachments arg = %s", got)
	}
}

func TestIssueRowCoercion(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	status := "in_progress"
	priority := "bogus"
	row := issueRow{
		ID:        "i1",
		Status:    &status,
		Priority:  &priority,
		Comments:  []byte(`[{"id":"c1","userId":"u1","userName":"Alice Admin","content":"on it","timestamp":1714550400000}]`),
		CreatedAt: created,
		UpdatedAt: created.Add(-time.Minute),
	}

	issue := row.toDomain()
	if issue.Status != domain.IssueStatusInProgress || issue.Priority != domain.IssuePriorityMedium {
		t.Errorf("status/priority = %s/%s", issue.Status, issue.Priority)
	}
	if issue.Place != "Outlet" || issue.ReportedByName != "Unknown" {
		t.Errorf("defaults = %q/%q", issue.Place, issue.ReportedByName)
	}
	if len(issue.Comments) != 1 || !issue.Comments[0].Timestamp.Equal(time.UnixMilli(1714550400000)) {
		t.Errorf("comments = %+v", issue.Comments)
	}
	if issue.Attachments == nil || len(issue.Attachments) != 0 {
		t.Errorf("attachments = %#v, want empty slice", issue.Attachments)
	}
	if issue.UpdatedAt.Before(issue.CreatedAt) {
		t.Error("updatedAt earlier than createdAt")
	}
}

func TestMalformedJSONReadsAsEmpty(t *testing.T) {
	t.Parallel()

	if got := decodeComments([]byte("{not json")); len(got) != 0 {
		t.Errorf("comments = %v", got)
	}
	if got := decodeAttachments(nil); got == nil {
		t.Error("nil attachments should decode to empty slice")
	}
}
