package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/streetburger/issuedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueUpdated       EventType = "issue_updated"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueCommented     EventType = "issue_commented"
	EventIssueDeleted       EventType = "issue_deleted"
	EventAuthStateChanged   EventType = "auth_state_changed"
)

// IssueEventTypes lists every event that carries an issue snapshot.
var IssueEventTypes = []EventType{
	EventIssueCreated,
	EventIssueUpdated,
	EventIssueStatusChanged,
	EventIssueAssigned,
	EventIssueCommented,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, issueID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		IssueID:   issueID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// IssueChangedPayload carries the issue as confirmed by the store.
type IssueChangedPayload struct {
	Issue     domain.Issue       `json:"issue"`
	OldStatus domain.IssueStatus `json:"old_status,omitempty"`
}

// IssueCommentedPayload carries the confirmed issue and the new comment.
type IssueCommentedPayload struct {
	Issue   domain.Issue   `json:"issue"`
	Comment domain.Comment `json:"comment"`
}

// IssueDeletedPayload identifies the removed issue.
type IssueDeletedPayload struct {
	IssueID string `json:"issue_id"`
}

// AuthStatePayload describes a change in authentication state.
type AuthStatePayload struct {
	Kind   domain.AuthEventType `json:"kind"`
	UserID string               `json:"user_id,omitempty"`
	Email  string               `json:"email,omitempty"`
}
