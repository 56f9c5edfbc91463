package repository

import (
	"encoding/json"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
)

// commentRecord is the JSONB shape of a comment; timestamps are epoch millis.
type commentRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type attachmentRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// issueRow mirrors the issues table with every nullable column as a pointer.
type issueRow struct {
	ID             string
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	Category       *string
	SubCategory    *string
	Place          *string
	Location       *string
	ReportedBy     *string
	ReportedByName *string
	AssignedTo     *string
	AssignedToName *string
	Comments       []byte
	Attachments    []byte
	AIAnalysis     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const issueColumns = `id, title, description, status, priority, category, sub_category, place, location,
               reported_by, reported_by_name, assigned_to, assigned_to_name, comments, attachments,
               ai_analysis, created_at, updated_at`

func (row *issueRow) targets() []any {
	return []any{
		&row.ID, &row.Title, &row.Description, &row.Status, &row.Priority, &row.Category,
		&row.SubCategory, &row.Place, &row.Location, &row.ReportedBy, &row.ReportedByName,
		&row.AssignedTo, &row.AssignedToName, &row.Comments, &row.Attachments, &row.AIAnalysis,
		&row.CreatedAt, &row.UpdatedAt,
	}
}

// toDomain coerces a stored row: unknown enums fall back to their defaults,
// a missing place reads as Outlet and a missing reporter name as Unknown.
func (row issueRow) toDomain() domain.Issue {
	issue := domain.Issue{
		ID:             row.ID,
		Title:          deref(row.Title),
		Description:    deref(row.Description),
		Status:         domain.ParseStatus(deref(row.Status)),
		Priority:       domain.ParsePriority(deref(row.Priority)),
		Category:       deref(row.Category),
		SubCategory:    deref(row.SubCategory),
		Place:          orDefault(deref(row.Place), "Outlet"),
		Location:       deref(row.Location),
		ReportedBy:     deref(row.ReportedBy),
		ReportedByName: orDefault(deref(row.ReportedByName), "Unknown"),
		AssignedTo:     deref(row.AssignedTo),
		AssignedToName: deref(row.AssignedToName),
		AIAnalysis:     deref(row.AIAnalysis),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		Comments:       decodeComments(row.Comments),
		Attachments:    decodeAttachments(row.Attachments),
	}
	if issue.UpdatedAt.Before(issue.CreatedAt) {
		issue.UpdatedAt = issue.CreatedAt
	}
	return issue
}

func decodeComments(raw []byte) []domain.Comment {
	var records []commentRecord
	if len(raw) == 0 || json.Unmarshal(raw, &records) != nil {
		return []domain.Comment{}
	}
	comments := make([]domain.Comment, 0, len(records))
	for _, r := range records {
		comments = append(comments, domain.Comment{
			ID:        r.ID,
			UserID:    r.UserID,
			UserName:  r.UserName,
			Content:   r.Content,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		})
	}
	return comments
}

func decodeAttachments(raw []byte) []domain.Attachment {
	var records []attachmentRecord
	if len(raw) == 0 || json.Unmarshal(raw, &records) != nil {
		return []domain.Attachment{}
	}
	attachments := make([]domain.Attachment, 0, len(records))
	for _, r := range records {
		attachments = append(attachments, domain.Attachment(r))
	}
	return attachments
}

func encodeComments(comments []domain.Comment) ([]byte, error) {
	records := make([]commentRecord, 0, len(comments))
	for _, c := range comments {
		records = append(records, commentRecord{
			ID:        c.ID,
			UserID:    c.UserID,
			UserName:  c.UserName,
			Content:   c.Content,
			Timestamp: c.Timestamp.UnixMilli(),
		})
	}
	return json.Marshal(records)
}

func encodeAttachments(attachments []domain.Attachment) ([]byte, error) {
	records := make([]attachmentRecord, 0, len(attachments))
	for _, a := range attachments {
		records = append(records, attachmentRecord(a))
	}
	return json.Marshal(records)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// nullable maps empty strings to SQL NULL.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
