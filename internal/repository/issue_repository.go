package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streetburger/issuedesk/internal/domain"
)

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	List(ctx context.Context) ([]domain.Issue, error)
	ListByReporter(ctx context.Context, reporterID string) ([]domain.Issue, error)
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, id string, patch domain.IssuePatch, now time.Time) (*domain.Issue, error)
	AppendComment(ctx context.Context, id string, comment domain.Comment, now time.Time) (*domain.Issue, error)
	Delete(ctx context.Context, id string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

func (r *issueRepository) List(ctx context.Context) ([]domain.Issue, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	query := `SELECT ` + issueColumns + ` FROM issues ORDER BY updated_at DESC`
	return r.fetchMany(ctx, "list issues", query)
}

func (r *issueRepository) ListByReporter(ctx context.Context, reporterID string) ([]domain.Issue, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	query := `SELECT ` + issueColumns + ` FROM issues WHERE reported_by=$1 ORDER BY updated_at DESC`
	return r.fetchMany(ctx, "list reporter issues", query, reporterID)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	return r.fetchSingle(ctx, "get issue", query, id)
}

// Create inserts the issue. The store assigns the id and both timestamps;
// they are written back onto issue.
func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	comments, err := encodeComments(issue.Comments)
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}
	attachments, err := encodeAttachments(issue.Attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	status := issue.Status
	if !status.Valid() {
		status = domain.IssueStatusOpen
	}

	query := `
        INSERT INTO issues (title, description, status, priority, category, sub_category, place, location,
                            reported_by, reported_by_name, assigned_to, assigned_to_name, comments, attachments, ai_analysis)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14::jsonb,$15)
        RETURNING ` + issueColumns
	created, err := r.fetchSingle(ctx, "create issue", query,
		issue.Title,
		issue.Description,
		string(status),
		string(domain.ParsePriority(string(issue.Priority))),
		nullable(issue.Category),
		nullable(issue.SubCategory),
		nullable(issue.Place),
		nullable(issue.Location),
		nullable(issue.ReportedBy),
		nullable(issue.ReportedByName),
		nullable(issue.AssignedTo),
		nullable(issue.AssignedToName),
		string(comments),
		string(attachments),
		nullable(issue.AIAnalysis),
	)
	if err != nil {
		return err
	}
	*issue = *created
	return nil
}

// Update writes only the columns present in patch plus updated_at and
// returns the row as stored.
func (r *issueRepository) Update(ctx context.Context, id string, patch domain.IssuePatch, now time.Time) (*domain.Issue, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	query, args, err := buildIssueUpdate(id, patch, now)
	if err != nil {
		return nil, err
	}
	return r.fetchSingle(ctx, "update issue", query, args...)
}

// AppendComment adds one comment in a single statement so concurrent
// comments never overwrite each other.
func (r *issueRepository) AppendComment(ctx context.Context, id string, comment domain.Comment, now time.Time) (*domain.Issue, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	payload, err := encodeComments([]domain.Comment{comment})
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}
	query := `
        UPDATE issues SET comments = COALESCE(comments, '[]'::jsonb) || $1::jsonb,
                          updated_at = GREATEST(created_at, $2)
        WHERE id=$3
        RETURNING ` + issueColumns
	return r.fetchSingle(ctx, "append comment", query, string(payload), now, id)
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `DELETE FROM issues WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return classify("delete issue", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *issueRepository) fetchSingle(ctx context.Context, op, query string, args ...any) (*domain.Issue, error) {
	var row issueRow
	if err := r.pool.QueryRow(ctx, query, args...).Scan(row.targets()...); err != nil {
		return nil, classify(op, err)
	}
	issue := row.toDomain()
	return &issue, nil
}

func (r *issueRepository) fetchMany(ctx context.Context, op, query string, args ...any) ([]domain.Issue, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	issues := make([]domain.Issue, 0)
	for rows.Next() {
		var row issueRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, classify(op, err)
		}
		issues = append(issues, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return issues, nil
}

// buildIssueUpdate renders the sparse UPDATE for patch. Columns keep a fixed
// order so the statement text is stable for a given set of fields.
func buildIssueUpdate(id string, patch domain.IssuePatch, now time.Time) (string, []any, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	setJSON := func(column string, value []byte) {
		args = append(args, string(value))
		sets = append(sets, fmt.Sprintf("%s=$%d::jsonb", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.Category != nil {
		set("category", nullable(*patch.Category))
	}
	if patch.SubCategory != nil {
		set("sub_category", nullable(*patch.SubCategory))
	}
	if patch.Place != nil {
		set("place", nullable(*patch.Place))
	}
	if patch.Location != nil {
		set("location", nullable(*patch.Location))
	}
	switch {
	case patch.AssignedTo != nil:
		set("assigned_to", nullable(*patch.AssignedTo))
		if patch.AssignedToName != nil {
			set("assigned_to_name", nullable(*patch.AssignedToName))
		} else if patch.ClearAssignee {
			set("assigned_to_name", nil)
		}
	case patch.ClearAssignee:
		set("assigned_to", nil)
		set("assigned_to_name", nil)
	case patch.AssignedToName != nil:
		set("assigned_to_name", nullable(*patch.AssignedToName))
	}
	if patch.Attachments != nil {
		encoded, err := encodeAttachments(*patch.Attachments)
		if err != nil {
			return "", nil, fmt.Errorf("encode attachments: %w", err)
		}
		setJSON("attachments", encoded)
	}
	if patch.AIAnalysis != nil {
		set("ai_analysis", nullable(*patch.AIAnalysis))
	}

	args = append(args, now)
	sets = append(sets, fmt.Sprintf("updated_at=GREATEST(created_at, $%d)", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE issues SET %s WHERE id=$%d RETURNING %s",
		strings.Join(sets, ", "), len(args), issueColumns)
	return query, args, nil
}
