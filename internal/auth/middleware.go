package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/domain"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SessionID string
	User      domain.User
}

// UserResolver turns a token subject into the dashboard user.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionStore
	users    UserResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionStore, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewNotAuthenticated("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.NewNotAuthenticated("invalid authorization header")
	}
	return parts[1], nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewNotAuthenticated("invalid token")
	}

	ctx := c.UserContext()
	active, err := m.sessions.Active(ctx, claims.SessionID())
	if err != nil {
		return apperrors.NewStoreUnavailable("session store is unavailable", err)
	}
	if !active {
		return apperrors.NewNotAuthenticated("session has ended")
	}

	user, err := m.users.ResolveUser(ctx, claims.UserID())
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{SessionID: claims.SessionID(), User: *user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// CurrentUser returns the authenticated user or NotAuthenticated.
func CurrentUser(c *fiber.Ctx) (domain.User, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.User{}, apperrors.NewNotAuthenticated("authentication required")
	}
	return principal.User, nil
}
