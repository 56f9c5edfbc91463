package dto

import "time"

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest payload for login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse standard response for endpoints that open a session.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a profile.
type UserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// MeResponse adds the caller's global permissions.
type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// CreateUserRequest is the admin's new-account form.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RoleUpdateRequest payload for PATCH /users/:id/role.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// ProfileUpdateRequest payload for PATCH /me.
type ProfileUpdateRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
