package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/ai"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/events"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/reporting"
	"github.com/streetburger/issuedesk/internal/repository"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// IssueService coordinates issue workflows. Every mutation is checked
// against the access policy and published only after the store confirms it.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	gateway    *ai.Gateway
	catalog    domain.Catalog
	policy     policy.Policy
	dispatcher events.Dispatcher
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// IssueDependencies bundles requirements for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	Gateway    *ai.Gateway
	Catalog    domain.Catalog
	Policy     policy.Policy
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Location   *time.Location
}

// NewIssueService builds the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	p := deps.Policy
	if p == nil {
		p = policy.Default
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		gateway:    deps.Gateway,
		catalog:    deps.Catalog,
		policy:     p,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		location:   loc,
		now:        time.Now,
	}
}

// IssueUpdateInput is a sparse edit of the issue form fields.
type IssueUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	SubCategory *string
	Place       *string
	Location    *string
	Priority    *domain.IssuePriority
	Attachments *[]domain.Attachment
}

// AnalysisResult is the outcome of a diagnostics request.
type AnalysisResult struct {
	Text      string
	Cached    bool
	Generated bool
}

// List returns the issues visible to actor that match criteria. Staff scope
// is applied by the store query as well as by the filter.
func (s *IssueService) List(ctx context.Context, actor domain.User, criteria reporting.Criteria) ([]domain.Issue, error) {
	who := policy.ActorFor(actor)
	var (
		issues []domain.Issue
		err    error
	)
	if s.policy.Allowed(who, policy.ActionViewAllIssues, policy.Resource{}) {
		issues, err = s.issues.List(ctx)
	} else {
		issues, err = s.issues.ListByReporter(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return reporting.Filter(issues, who, criteria, s.location), nil
}

// Get returns one issue the actor may view.
func (s *IssueService) Get(ctx context.Context, actor domain.User, id string) (*domain.Issue, error) {
	return s.load(ctx, actor, id, policy.ActionViewIssue)
}

// Permissions lists what actor may do with issue.
func (s *IssueService) Permissions(actor domain.User, issue domain.Issue) []policy.Action {
	return policy.Permissions(s.policy, policy.ActorFor(actor), policy.IssueResource(issue))
}

// Create validates the draft and stores a new OPEN issue reported by actor.
func (s *IssueService) Create(ctx context.Context, actor domain.User, draft domain.IssueDraft) (*domain.Issue, error) {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionCreateIssue, policy.Resource{OwnerID: actor.ID}) {
		return nil, apperrors.NewPermissionDenied("you cannot report issues")
	}
	draft = draft.Normalize()
	if err := draft.Validate(s.catalog); err != nil {
		return nil, validationError(err)
	}

	issue := &domain.Issue{
		Title:          draft.Title,
		Description:    draft.Description,
		Status:         domain.IssueStatusOpen,
		Priority:       draft.Priority,
		Category:       draft.Category,
		SubCategory:    draft.SubCategory,
		Place:          draft.Place,
		Location:       draft.Location,
		ReportedBy:     actor.ID,
		ReportedByName: actor.Name,
		Comments:       []domain.Comment{},
		Attachments:    withAttachmentIDs(draft.Attachments),
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventIssueCreated, actor.ID, issue.ID, events.IssueChangedPayload{Issue: *issue})
	return issue, nil
}

// Update edits the form fields of an issue. Changing the category drops a
// subcategory that no longer belongs to it. Only supplied fields are
// validated, so stored values outside the current catalog survive edits to
// other fields.
func (s *IssueService) Update(ctx context.Context, actor domain.User, id string, in IssueUpdateInput) (*domain.Issue, error) {
	current, err := s.load(ctx, actor, id, policy.ActionEditIssue)
	if err != nil {
		return nil, err
	}

	draft := domain.IssueDraft{
		Title:       pick(in.Title, current.Title),
		Description: pick(in.Description, current.Description),
		Category:    pick(in.Category, current.Category),
		SubCategory: pick(in.SubCategory, current.SubCategory),
		Place:       pick(in.Place, current.Place),
		Location:    pick(in.Location, current.Location),
		Priority:    current.Priority,
		Attachments: current.Attachments,
	}
	if in.Priority != nil {
		draft.Priority = *in.Priority
	}
	if in.Attachments != nil {
		draft.Attachments = withAttachmentIDs(*in.Attachments)
	}
	draft = draft.Normalize()
	if in.Category != nil && in.SubCategory == nil {
		draft.SubCategory = s.catalog.ReconcileSubCategory(draft.Category, draft.SubCategory)
	}
	if err := suppliedFieldErrors(draft.Validate(s.catalog), in); err != nil {
		return nil, validationError(err)
	}

	patch := domain.IssuePatch{}
	setIfChanged(&patch.Title, draft.Title, current.Title)
	setIfChanged(&patch.Description, draft.Description, current.Description)
	setIfChanged(&patch.Category, draft.Category, current.Category)
	setIfChanged(&patch.SubCategory, draft.SubCategory, current.SubCategory)
	setIfChanged(&patch.Place, draft.Place, current.Place)
	setIfChanged(&patch.Location, draft.Location, current.Location)
	if draft.Priority != current.Priority {
		priority := draft.Priority
		patch.Priority = &priority
	}
	if in.Attachments != nil {
		attachments := draft.Attachments
		patch.Attachments = &attachments
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := s.issues.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, storeError("issue", id, err)
	}
	s.publish(ctx, events.EventIssueUpdated, actor.ID, id, events.IssueChangedPayload{Issue: *updated})
	return updated, nil
}

// ChangeStatus moves the issue to any valid status.
func (s *IssueService) ChangeStatus(ctx context.Context, actor domain.User, id string, status domain.IssueStatus) (*domain.Issue, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}
	current, err := s.load(ctx, actor, id, policy.ActionChangeIssueStatus)
	if err != nil {
		return nil, err
	}

	updated, err := s.issues.Update(ctx, id, domain.IssuePatch{Status: &status}, s.now())
	if err != nil {
		return nil, storeError("issue", id, err)
	}
	s.publish(ctx, events.EventIssueStatusChanged, actor.ID, id, events.IssueChangedPayload{
		Issue:     *updated,
		OldStatus: current.Status,
	})
	return updated, nil
}

// Assign sets the technician on an issue; an empty assigneeID unassigns it.
// The assignee must be a technician, except that an admin may take an issue
// themselves.
func (s *IssueService) Assign(ctx context.Context, actor domain.User, id, assigneeID string) (*domain.Issue, error) {
	if _, err := s.load(ctx, actor, id, policy.ActionAssignTechnician); err != nil {
		return nil, err
	}

	patch := domain.IssuePatch{}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		patch.ClearAssignee = true
	} else {
		assignee, err := s.assignee(ctx, actor, assigneeID)
		if err != nil {
			return nil, err
		}
		patch.AssignedTo = &assignee.ID
		patch.AssignedToName = &assignee.Name
	}

	updated, err := s.issues.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, storeError("issue", id, err)
	}
	s.publish(ctx, events.EventIssueAssigned, actor.ID, id, events.IssueChangedPayload{Issue: *updated})
	return updated, nil
}

// AssignToMe assigns the issue to the caller.
func (s *IssueService) AssignToMe(ctx context.Context, actor domain.User, id string) (*domain.Issue, error) {
	return s.Assign(ctx, actor, id, actor.ID)
}

// AddComment appends a comment authored by actor.
func (s *IssueService) AddComment(ctx context.Context, actor domain.User, id, content string) (*domain.Issue, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment cannot be empty", map[string]any{"content": "required"})
	}
	if _, err := s.load(ctx, actor, id, policy.ActionCommentIssue); err != nil {
		return nil, err
	}

	now := s.now()
	comment := domain.Comment{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		Content:   content,
		Timestamp: now,
	}
	updated, err := s.issues.AppendComment(ctx, id, comment, now)
	if err != nil {
		return nil, storeError("issue", id, err)
	}
	s.publish(ctx, events.EventIssueCommented, actor.ID, id, events.IssueCommentedPayload{Issue: *updated, Comment: comment})
	return updated, nil
}

// Delete removes an issue.
func (s *IssueService) Delete(ctx context.Context, actor domain.User, id string) error {
	if _, err := s.load(ctx, actor, id, policy.ActionDeleteIssue); err != nil {
		return err
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return storeError("issue", id, err)
	}
	s.publish(ctx, events.EventIssueDeleted, actor.ID, id, events.IssueDeletedPayload{IssueID: id})
	return nil
}

// Analyze returns the cached suggestion or asks the AI gateway for one.
// Only a generated suggestion is cached; placeholders are returned as is.
func (s *IssueService) Analyze(ctx context.Context, actor domain.User, id string) (AnalysisResult, error) {
	issue, err := s.load(ctx, actor, id, policy.ActionRequestAnalysis)
	if err != nil {
		return AnalysisResult{}, err
	}
	if issue.AIAnalysis != "" {
		return AnalysisResult{Text: issue.AIAnalysis, Cached: true, Generated: true}, nil
	}

	suggestion := s.gateway.SuggestSolution(ctx, issue.Title, issue.Description)
	if !suggestion.Generated {
		return AnalysisResult{Text: suggestion.Text}, nil
	}

	text := suggestion.Text
	updated, err := s.issues.Update(ctx, id, domain.IssuePatch{AIAnalysis: &text}, s.now())
	if err != nil {
		// the suggestion is still useful even if caching it failed
		s.logger.Warn("ai analysis not cached", zap.String("issue_id", id), zap.Error(err))
		return AnalysisResult{Text: text, Generated: true}, nil
	}
	s.publish(ctx, events.EventIssueUpdated, actor.ID, id, events.IssueChangedPayload{Issue: *updated})
	return AnalysisResult{Text: text, Generated: true}, nil
}

// ExpandDescription drafts a description for the issue form.
func (s *IssueService) ExpandDescription(ctx context.Context, actor domain.User, title, category string) (ai.Suggestion, error) {
	who := policy.ActorFor(actor)
	if !s.policy.Allowed(who, policy.ActionCreateIssue, policy.Resource{OwnerID: actor.ID}) &&
		!s.policy.Allowed(who, policy.ActionEditIssue, policy.Resource{OwnerID: actor.ID}) {
		return ai.Suggestion{}, apperrors.NewPermissionDenied("you cannot draft issues")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ai.Suggestion{}, apperrors.NewValidationError("title is required", map[string]any{"title": "required"})
	}
	return s.gateway.ExpandDescription(ctx, title, strings.TrimSpace(category)), nil
}

func (s *IssueService) load(ctx context.Context, actor domain.User, id string, action policy.Action) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("issue", id, err)
	}
	who := policy.ActorFor(actor)
	if !s.policy.Allowed(who, policy.ActionViewIssue, policy.IssueResource(*issue)) {
		return nil, apperrors.NewPermissionDenied("you cannot view this issue")
	}
	if !s.policy.Allowed(who, action, policy.IssueResource(*issue)) {
		return nil, apperrors.NewPermissionDenied("you are not allowed to " + strings.ReplaceAll(string(action), "_", " "))
	}
	return issue, nil
}

func (s *IssueService) assignee(ctx context.Context, actor domain.User, assigneeID string) (*domain.User, error) {
	if assigneeID == actor.ID && actor.Role == domain.RoleAdmin {
		return &actor, nil
	}
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, storeError("user", assigneeID, err)
	}
	if !user.IsTechnician() {
		return nil, apperrors.NewValidationError("issues can only be assigned to technicians",
			map[string]any{"assignedTo": assigneeID})
	}
	return user, nil
}

func (s *IssueService) publish(ctx context.Context, eventType events.EventType, actorID, issueID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, issueID, actorID, payload)); err != nil {
		s.logger.Warn("issue event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

// suppliedFieldErrors keeps the problems on fields the edit touches. Category
// and subcategory are checked together.
func suppliedFieldErrors(err error, in IssueUpdateInput) error {
	problems, ok := err.(domain.FieldErrors)
	if !ok {
		return err
	}
	pairChanged := in.Category != nil || in.SubCategory != nil
	touched := map[string]bool{
		"title":       in.Title != nil,
		"description": in.Description != nil,
		"category":    pairChanged,
		"subCategory": pairChanged,
		"place":       in.Place != nil,
		"location":    in.Location != nil,
		"priority":    in.Priority != nil,
		"attachments": in.Attachments != nil,
	}
	kept := domain.FieldErrors{}
	for field, reason := range problems {
		if touched[field] {
			kept[field] = reason
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func withAttachmentIDs(attachments []domain.Attachment) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(attachments))
	for _, attachment := range attachments {
		if attachment.ID == "" {
			attachment.ID = uuid.NewString()
		}
		out = append(out, attachment)
	}
	return out
}

func pick(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func setIfChanged(target **string, next, current string) {
	if next != current {
		value := next
		*target = &value
	}
}
