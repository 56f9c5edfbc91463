package domain

import "time"

// Identity is what the authentication provider knows about an account,
// independent of its profile row.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	Role      string
	AvatarURL string
}

// Session is an authenticated sign-in.
type Session struct {
	ID        string
	Token     string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthEventType names a change in authentication state.
type AuthEventType string

const (
	AuthEventSignedIn         AuthEventType = "SIGNED_IN"
	AuthEventSignedOut        AuthEventType = "SIGNED_OUT"
	AuthEventUserUpdated      AuthEventType = "USER_UPDATED"
	AuthEventPasswordRecovery AuthEventType = "PASSWORD_RECOVERY"
)

// RecoveryToken is a one-time password recovery grant.
type RecoveryToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
