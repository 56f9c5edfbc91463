package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/api/dto"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/reporting"
	"github.com/streetburger/issuedesk/internal/service"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	issues IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issues}
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	criteria, err := parseIssueQuery(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.List(c.UserContext(), user, criteria)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueList(issues)})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	draft := domain.IssueDraft{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Category:    deref(req.Category),
		SubCategory: deref(req.SubCategory),
		Place:       deref(req.Place),
		Location:    deref(req.Location),
		Priority:    domain.IssuePriorityMedium,
	}
	if p := strings.TrimSpace(deref(req.Priority)); p != "" {
		draft.Priority = domain.IssuePriority(strings.ToUpper(p))
	}
	if req.Attachments != nil {
		draft.Attachments = attachmentsFromRequest(*req.Attachments)
	}
	issue, err := h.issues.Create(c.UserContext(), user, draft)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// Update PATCH /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	in := service.IssueUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Place:       req.Place,
		Location:    req.Location,
	}
	if req.Priority != nil {
		priority := domain.IssuePriority(strings.ToUpper(strings.TrimSpace(*req.Priority)))
		in.Priority = &priority
	}
	if req.Attachments != nil {
		attachments := attachmentsFromRequest(*req.Attachments)
		in.Attachments = &attachments
	}
	issue, err := h.issues.Update(c.UserContext(), user, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// ChangeStatus PATCH /issues/:id/status.
func (h *IssuesHandler) ChangeStatus(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status := domain.IssueStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	issue, err := h.issues.ChangeStatus(c.UserContext(), user, c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// Assign PATCH /issues/:id/assignee.
func (h *IssuesHandler) Assign(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.issues.Assign(c.UserContext(), user, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// AssignToMe POST /issues/:id/assign-to-me.
func (h *IssuesHandler) AssignToMe(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.AssignToMe(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// AddComment POST /issues/:id/comments.
func (h *IssuesHandler) AddComment(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.issues.AddComment(c.UserContext(), user, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.detail(user, *issue)})
}

// Analyze POST /issues/:id/analysis.
func (h *IssuesHandler) Analyze(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	result, err := h.issues.Analyze(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{
		Text:      result.Text,
		Generated: result.Generated,
		Cached:    result.Cached,
	}})
}

// Delete DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	if err := h.issues.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExpandDescription POST /ai/expand-description.
func (h *IssuesHandler) ExpandDescription(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.ExpandDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suggestion, err := h.issues.ExpandDescription(c.UserContext(), user, req.Title, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Text: suggestion.Text, Generated: suggestion.Generated}})
}

func (h *IssuesHandler) detail(user domain.User, issue domain.Issue) dto.IssueResponse {
	return issueResponse(issue, h.issues.Permissions(user, issue))
}

func parseIssueQuery(c *fiber.Ctx) (reporting.Criteria, error) {
	criteria := reporting.Criteria{
		View:   reporting.ParseView(c.Query("view")),
		Search: strings.TrimSpace(c.Query("q")),
		Facets: reporting.Facets{
			Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
			Branch: strings.TrimSpace(c.Query("branch")),
			Place:  strings.TrimSpace(c.Query("place")),
		},
	}
	if day := strings.TrimSpace(c.Query("date")); day != "" {
		if _, err := time.Parse(reporting.DayLayout, day); err != nil {
			return reporting.Criteria{}, apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": day})
		}
		criteria.Day = day
	}
	return criteria, nil
}

func attachmentsFromRequest(items []dto.AttachmentObject) []domain.Attachment {
	attachments := make([]domain.Attachment, 0, len(items))
	for _, item := range items {
		attachments = append(attachments, domain.Attachment{
			ID:   item.ID,
			Name: item.Name,
			Type: item.Type,
			Data: item.Data,
		})
	}
	return attachments
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
