package domain

import (
	"strings"
	"time"
)

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

// IssueStatuses lists statuses in dashboard order.
var IssueStatuses = []IssueStatus{IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// Label renders the status for people, e.g. "IN PROGRESS".
func (s IssueStatus) Label() string {
	return strings.Replace(string(s), "_", " ", 1)
}

// ParseStatus coerces stored values, defaulting to OPEN.
func ParseStatus(raw string) IssueStatus {
	status := IssueStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return IssueStatusOpen
	}
	return status
}

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "LOW"
	IssuePriorityMedium   IssuePriority = "MEDIUM"
	IssuePriorityHigh     IssuePriority = "HIGH"
	IssuePriorityCritical IssuePriority = "CRITICAL"
)

// IssuePriorities lists priorities from lowest to highest.
var IssuePriorities = []IssuePriority{IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical}

// Valid reports whether p is a known priority.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	}
	return false
}

// ParsePriority coerces stored values, defaulting to MEDIUM.
func ParsePriority(raw string) IssuePriority {
	priority := IssuePriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !priority.Valid() {
		return IssuePriorityMedium
	}
	return priority
}

// Issue is a reported maintenance or support ticket.
//
// ReportedByName, AssignedToName and Comment.UserName are snapshots taken at
// write time; renaming a user never rewrites them.
type Issue struct {
	ID             string
	Title          string
	Description    string
	Status         IssueStatus
	Priority       IssuePriority
	Category       string
	SubCategory    string
	Place          string
	Location       string
	ReportedBy     string
	ReportedByName string
	AssignedTo     string
	AssignedToName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Comments       []Comment
	Attachments    []Attachment
	AIAnalysis     string
}

// IsResolved reports whether the issue counts as resolved in reports.
func (i Issue) IsResolved() bool {
	return i.Status == IssueStatusResolved || i.Status == IssueStatusClosed
}

// Comment is an immutable entry in an issue's thread.
type Comment struct {
	ID        string
	UserID    string
	UserName  string
	Content   string
	Timestamp time.Time
}

// Attachment is an inline file stored with the issue.
type Attachment struct {
	ID   string
	Name string
	Type string
	Data string
}

// IssuePatch is a sparse update: nil fields are left untouched.
type IssuePatch struct {
	Title          *string
	Description    *string
	Status         *IssueStatus
	Priority       *IssuePriority
	Category       *string
	SubCategory    *string
	Place          *string
	Location       *string
	AssignedTo     *string
	AssignedToName *string
	ClearAssignee  bool
	Attachments    *[]Attachment
	AIAnalysis     *string
}

// Empty reports whether the patch writes nothing besides the timestamp.
func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Category == nil && p.SubCategory == nil && p.Place == nil && p.Location == nil &&
		p.AssignedTo == nil && p.AssignedToName == nil && !p.ClearAssignee &&
		p.Attachments == nil && p.AIAnalysis == nil
}
