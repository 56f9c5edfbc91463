package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/config"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/events"
	"github.com/streetburger/issuedesk/internal/repository"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// AuthService is the authentication provider: credentials, sessions,
// password recovery and the auth state event stream.
type AuthService struct {
	credentials repository.CredentialRepository
	profiles    repository.UserRepository
	recovery    repository.RecoveryRepository
	tokens      *auth.TokenManager
	sessions    auth.SessionStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	recoveryTTL time.Duration
	now         func() time.Time
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	CredentialRepo repository.CredentialRepository
	ProfileRepo    repository.UserRepository
	RecoveryRepo   repository.RecoveryRepository
	Sessions       auth.SessionStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: deps.CredentialRepo,
		profiles:    deps.ProfileRepo,
		recovery:    deps.RecoveryRepo,
		tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		sessions:    deps.Sessions,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		recoveryTTL: cfg.Auth.RecoveryTTL(),
		now:         time.Now,
	}
}

// SignUpInput describes a new account. PersistSession=false registers the
// account without signing anyone in, so an admin creating a user keeps their
// own session.
type SignUpInput struct {
	Email          string
	Password       string
	Name           string
	Role           domain.Role
	PersistSession bool
}

// AvatarURL is the generated avatar used for new accounts.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

// SignUp registers credentials and the matching profile row.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (domain.Identity, *domain.Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Identity{}, nil, apperrors.NewValidationError("a valid email is required", map[string]any{"email": "invalid"})
	}
	if err := checkPassword(in.Password); err != nil {
		return domain.Identity{}, nil, err
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	role := in.Role
	if !role.Valid() {
		role = domain.RoleStaff
	}

	if _, err := s.credentials.GetByEmail(ctx, email); err == nil {
		return domain.Identity{}, nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Identity{}, nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return domain.Identity{}, nil, apperrors.NewInternalError(err)
	}
	cred := &repository.Credential{
		Email:        email,
		PasswordHash: hash,
		Metadata: repository.CredentialMetadata{
			FullName:  name,
			Role:      string(role),
			AvatarURL: AvatarURL(name),
		},
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return domain.Identity{}, nil, err
	}

	profile := &domain.User{ID: cred.ID, Name: name, Email: email, Role: role, Avatar: cred.Metadata.AvatarURL}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// the identity exists; the profile can be provisioned later and
		// reads fall back to the account metadata meanwhile
		s.logger.Warn("profile provisioning failed", zap.String("user_id", cred.ID), zap.Error(err))
	}

	identity := identityOf(cred)
	if !in.PersistSession {
		return identity, nil, nil
	}
	session, err := s.startSession(ctx, identity)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	return identity, session, nil
}

// SignIn checks credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	cred, err := s.credentials.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotAuthenticated("invalid login credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(cred.PasswordHash, password); err != nil {
		return nil, apperrors.NewNotAuthenticated("invalid login credentials")
	}
	return s.startSession(ctx, identityOf(cred))
}

// SignOut revokes the session.
func (s *AuthService) SignOut(ctx context.Context, sessionID, userID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return apperrors.NewStoreUnavailable("session store is unavailable", err)
	}
	s.publish(ctx, domain.AuthEventSignedOut, userID, "")
	return nil
}

// Session resolves a bearer token into its live session.
func (s *AuthService) Session(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewNotAuthenticated("invalid token")
	}
	active, err := s.sessions.Active(ctx, claims.SessionID())
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("session store is unavailable", err)
	}
	if !active {
		return nil, apperrors.NewNotAuthenticated("session has ended")
	}
	identity, err := s.Identity(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	session := &domain.Session{ID: claims.SessionID(), Token: token, Identity: identity}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Identity returns the provider's view of an account.
func (s *AuthService) Identity(ctx context.Context, userID string) (domain.Identity, error) {
	cred, err := s.credentials.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, apperrors.NewNotAuthenticated("account no longer exists")
		}
		return domain.Identity{}, err
	}
	return identityOf(cred), nil
}

// UpdatePassword replaces the account password.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.credentials.UpdatePassword(ctx, userID, hash); err != nil {
		return storeError("user", userID, err)
	}
	s.publish(ctx, domain.AuthEventUserUpdated, userID, "")
	return nil
}

// UpdateMetadata keeps the account metadata in step with profile edits.
func (s *AuthService) UpdateMetadata(ctx context.Context, userID, name, avatar string) error {
	err := s.credentials.UpdateMetadata(ctx, userID, repository.CredentialMetadata{FullName: name, AvatarURL: avatar})
	if err != nil {
		return storeError("user", userID, err)
	}
	s.publish(ctx, domain.AuthEventUserUpdated, userID, "")
	return nil
}

// UpdateRole records the account's role in its metadata.
func (s *AuthService) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	err := s.credentials.UpdateMetadata(ctx, userID, repository.CredentialMetadata{Role: string(role)})
	if err != nil {
		return storeError("user", userID, err)
	}
	s.publish(ctx, domain.AuthEventUserUpdated, userID, "")
	return nil
}

// RequestRecovery issues a recovery token for the email. Unknown emails get
// no token and no error so callers cannot probe for accounts.
func (s *AuthService) RequestRecovery(ctx context.Context, email string) (*domain.RecoveryToken, error) {
	cred, err := s.credentials.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token := &domain.RecoveryToken{
		UserID:    cred.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.recoveryTTL),
	}
	if err := s.recovery.Create(ctx, token); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.AuthEventPasswordRecovery, cred.ID, cred.Email)
	return token, nil
}

// ConfirmRecovery consumes the token, sets the new password and signs the
// account in.
func (s *AuthService) ConfirmRecovery(ctx context.Context, tokenStr, newPassword string) (*domain.Session, error) {
	if err := checkPassword(newPassword); err != nil {
		return nil, err
	}
	token, err := s.recovery.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("recovery link is invalid", nil)
		}
		return nil, err
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return nil, apperrors.NewValidationError("recovery link has expired or was already used", nil)
	}

	if err := s.UpdatePassword(ctx, token.UserID, newPassword); err != nil {
		return nil, err
	}
	if err := s.recovery.MarkUsed(ctx, token.ID); err != nil {
		return nil, storeError("recovery token", token.ID, err)
	}
	identity, err := s.Identity(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, identity)
}

// OnAuthStateChange delivers auth events to handler until the returned
// subscription is released.
func (s *AuthService) OnAuthStateChange(handler func(context.Context, events.AuthStatePayload)) events.Subscription {
	return s.dispatcher.Subscribe(events.EventAuthStateChanged, func(ctx context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.AuthStatePayload); ok {
			handler(ctx, payload)
		}
		return nil
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) startSession(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	sessionID := uuid.NewString()
	token, issuedAt, expiresAt, err := s.tokens.GenerateToken(identity.ID, sessionID, identity.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("sign token: %w", err))
	}
	if err := s.sessions.Save(ctx, sessionID, identity.ID, s.tokens.TTL()); err != nil {
		return nil, apperrors.NewStoreUnavailable("session store is unavailable", err)
	}
	s.publish(ctx, domain.AuthEventSignedIn, identity.ID, identity.Email)
	return &domain.Session{
		ID:        sessionID,
		Token:     token,
		Identity:  identity,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, kind domain.AuthEventType, userID, email string) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(events.EventAuthStateChanged, "", userID, events.AuthStatePayload{Kind: kind, UserID: userID, Email: email})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func identityOf(cred *repository.Credential) domain.Identity {
	return domain.Identity{
		ID:        cred.ID,
		Email:     cred.Email,
		FullName:  cred.Metadata.FullName,
		Role:      cred.Metadata.Role,
		AvatarURL: cred.Metadata.AvatarURL,
	}
}
