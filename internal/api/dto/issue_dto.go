package dto

import "time"

// IssueRequest payload for creating an issue. PATCH reuses it with every
// field optional.
type IssueRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Category    *string             `json:"category"`
	SubCategory *string             `json:"subCategory"`
	Place       *string             `json:"place"`
	Location    *string             `json:"location"`
	Priority    *string             `json:"priority"`
	Attachments *[]AttachmentObject `json:"attachments"`
}

// StatusRequest payload for PATCH /issues/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// AssigneeRequest payload for PATCH /issues/:id/assignee. An empty
// assignedTo unassigns the issue.
type AssigneeRequest struct {
	AssignedTo string `json:"assignedTo"`
}

// CommentRequest payload.
type CommentRequest struct {
	Content string `json:"content"`
}

// ExpandDescriptionRequest payload for the issue form's Smart-Fill.
type ExpandDescriptionRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// SuggestionResponse carries AI output or a placeholder.
type SuggestionResponse struct {
	Text      string `json:"text"`
	Generated bool   `json:"generated"`
	Cached    bool   `json:"cached,omitempty"`
}

// IssueResponse is the full issue view.
type IssueResponse struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Status         string             `json:"status"`
	Priority       string             `json:"priority"`
	Category       string             `json:"category"`
	SubCategory    string             `json:"subCategory,omitempty"`
	Place          string             `json:"place"`
	Location       string             `json:"location,omitempty"`
	ReportedBy     string             `json:"reportedBy"`
	ReportedByName string             `json:"reportedByName"`
	AssignedTo     string             `json:"assignedTo,omitempty"`
	AssignedToName string             `json:"assignedToName,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Comments       []CommentResponse  `json:"comments"`
	Attachments    []AttachmentObject `json:"attachments"`
	AIAnalysis     string             `json:"aiAnalysis,omitempty"`
	Permissions    []string           `json:"permissions,omitempty"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AttachmentObject is an inline file, used for both input and output.
type AttachmentObject struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}
