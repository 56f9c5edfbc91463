package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/api/dto"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/service"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// UsersHandler manages the caller's profile and account administration.
type UsersHandler struct {
	users  UserService
	policy policy.Policy
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users UserService, p policy.Policy) *UsersHandler {
	if p == nil {
		p = policy.Default
	}
	return &UsersHandler{users: users, policy: p}
}

// Me GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	actor := policy.ActorFor(user)
	perms := policy.Permissions(h.policy, actor, policy.Resource{OwnerID: user.ID})
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		UserResponse: userResponse(user),
		Permissions:  actionNames(perms),
	}})
}

// UpdateMe PATCH /me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.users.UpdateOwnProfile(c.UserContext(), user, req.Name, req.Avatar)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*updated)})
}

// ChangePassword POST /me/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.ChangeOwnPassword(c.UserContext(), user, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userList(users)})
}

// Technicians GET /users/technicians.
func (h *UsersHandler) Technicians(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	techs, err := h.users.Technicians(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userList(techs)})
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.users.CreateAsAdmin(c.UserContext(), user, service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(*created)})
}

// UpdateRole PATCH /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.UpdateRole(c.UserContext(), user, c.Params("id"), domain.Role(strings.ToUpper(strings.TrimSpace(req.Role)))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResetPassword POST /users/:id/password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AdminPasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.ResetPasswordAsAdmin(c.UserContext(), user, c.Params("id"), req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func userList(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, userResponse(user))
	}
	return items
}
