package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/api/dto"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/service"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// AuthHandler exposes sign-up, sign-in, sessions and password recovery.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// SignUp POST /auth/sign-up. Self-registration always creates a STAFF
// account; other roles are granted by an administrator.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	identity, session, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Role:           domain.RoleStaff,
		PersistSession: true,
	})
	if err != nil {
		return err
	}
	if session == nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": identityResponse(identity)})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// SignIn POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	session, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// SignOut POST /auth/sign-out.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated("authentication required")
	}
	if err := h.auth.SignOut(c.UserContext(), principal.SessionID, principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	session, err := h.auth.Session(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// RequestRecovery POST /auth/recovery. The response is identical whether or
// not the email belongs to an account.
func (h *AuthHandler) RequestRecovery(c *fiber.Ctx) error {
	var req dto.RecoveryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if _, err := h.auth.RequestRecovery(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "recovery_requested"})
}

// ConfirmRecovery POST /auth/recovery/confirm.
func (h *AuthHandler) ConfirmRecovery(c *fiber.Ctx) error {
	var req dto.RecoveryConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	session, err := h.auth.ConfirmRecovery(c.UserContext(), req.Token, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}
