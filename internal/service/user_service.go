package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/repository"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// AccountProvider is the slice of the authentication provider the user
// service needs.
type AccountProvider interface {
	SignUp(ctx context.Context, in SignUpInput) (domain.Identity, *domain.Session, error)
	Identity(ctx context.Context, userID string) (domain.Identity, error)
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	UpdateMetadata(ctx context.Context, userID, name, avatar string) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
}

// UserService coordinates profile reads and account administration.
type UserService struct {
	users    repository.UserRepository
	accounts AccountProvider
	policy   policy.Policy
	logger   *zap.Logger
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo repository.UserRepository
	Accounts AccountProvider
	Policy   policy.Policy
	Logger   *zap.Logger
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	p := deps.Policy
	if p == nil {
		p = policy.Default
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: deps.UserRepo, accounts: deps.Accounts, policy: p, logger: logger}
}

// CreateUserInput is the admin's new-account form.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// ResolveUser implements auth.UserResolver.
func (s *UserService) ResolveUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.GetCurrent(ctx, userID)
}

// GetCurrent returns the signed-in user's profile. A missing profile falls
// back to the identity claims held by the auth provider; any other store
// error is returned.
func (s *UserService) GetCurrent(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.NewNotAuthenticated("authentication required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	s.logger.Debug("profile missing, using identity claims", zap.String("user_id", userID))

	identity, idErr := s.accounts.Identity(ctx, userID)
	if idErr != nil {
		return nil, idErr
	}
	name := identity.FullName
	if name == "" {
		name = "User"
	}
	return &domain.User{
		ID:     identity.ID,
		Email:  identity.Email,
		Name:   name,
		Role:   domain.ParseRole(identity.Role),
		Avatar: identity.AvatarURL,
	}, nil
}

// List returns every profile ordered by name.
func (s *UserService) List(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionManageUsers, policy.Resource{}) {
		return nil, apperrors.NewPermissionDenied("only administrators can list users")
	}
	return s.users.List(ctx)
}

// Technicians lists the users an issue can be assigned to.
func (s *UserService) Technicians(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionAssignTechnician, policy.Resource{}) {
		return nil, apperrors.NewPermissionDenied("you cannot assign technicians")
	}
	return s.users.ListByRole(ctx, domain.RoleTechnician)
}

// CreateAsAdmin registers an account without touching the admin's session.
func (s *UserService) CreateAsAdmin(ctx context.Context, actor domain.User, in CreateUserInput) (*domain.User, error) {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionManageUsers, policy.Resource{}) {
		return nil, apperrors.NewPermissionDenied("only administrators can create users")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(in.Role)})
	}

	identity, _, err := s.accounts.SignUp(ctx, SignUpInput{
		Email:          in.Email,
		Password:       in.Password,
		Name:           in.Name,
		Role:           in.Role,
		PersistSession: false,
	})
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:     identity.ID,
		Name:   identity.FullName,
		Email:  identity.Email,
		Role:   domain.ParseRole(identity.Role),
		Avatar: identity.AvatarURL,
	}, nil
}

// UpdateRole changes another user's role on the profile and on the account
// metadata, so the identity fallback never carries a stale role.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.User, targetID string, role domain.Role) error {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionChangeUserRole, policy.UserResource(targetID)) {
		return apperrors.NewPermissionDenied("you cannot change this user's role")
	}
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		return storeError("user", targetID, err)
	}
	return s.accounts.UpdateRole(ctx, targetID, role)
}

// ResetPasswordAsAdmin sets another user's password through the privileged procedure.
func (s *UserService) ResetPasswordAsAdmin(ctx context.Context, actor domain.User, targetID, newPassword string) error {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionManageUsers, policy.UserResource(targetID)) {
		return apperrors.NewPermissionDenied("only administrators can reset passwords")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	return storeError("user", targetID, s.users.AdminResetPassword(ctx, targetID, newPassword))
}

// DeleteUser removes another user's account.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.User, targetID string) error {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionDeleteUser, policy.UserResource(targetID)) {
		return apperrors.NewPermissionDenied("you cannot delete this user")
	}
	return storeError("user", targetID, s.users.DeleteUser(ctx, targetID))
}

// UpdateOwnProfile writes the caller's name and avatar. Empty values are
// left unchanged.
func (s *UserService) UpdateOwnProfile(ctx context.Context, actor domain.User, name, avatar string) (*domain.User, error) {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionEditOwnProfile, policy.Resource{}) {
		return nil, apperrors.NewPermissionDenied("you cannot edit your profile")
	}
	name = strings.TrimSpace(name)
	avatar = strings.TrimSpace(avatar)
	if name == "" && avatar == "" {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	if err := s.users.UpdateProfile(ctx, actor.ID, name, avatar); err != nil {
		return nil, storeError("profile", actor.ID, err)
	}
	if err := s.accounts.UpdateMetadata(ctx, actor.ID, name, avatar); err != nil {
		s.logger.Warn("account metadata not updated", zap.String("user_id", actor.ID), zap.Error(err))
	}
	updated := actor
	if name != "" {
		updated.Name = name
	}
	if avatar != "" {
		updated.Avatar = avatar
	}
	return &updated, nil
}

// ChangeOwnPassword sets the caller's password after checking the confirmation.
func (s *UserService) ChangeOwnPassword(ctx context.Context, actor domain.User, newPassword, confirm string) error {
	if !s.policy.Allowed(policy.ActorFor(actor), policy.ActionChangeOwnPassword, policy.Resource{}) {
		return apperrors.NewPermissionDenied("you cannot change your password")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirm {
		return apperrors.NewValidationError("passwords do not match", map[string]any{"confirm": "mismatch"})
	}
	return s.accounts.UpdatePassword(ctx, actor.ID, newPassword)
}
