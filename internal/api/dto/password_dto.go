package dto

// RecoveryRequest payload for initiating password recovery.
type RecoveryRequest struct {
	Email string `json:"email"`
}

// RecoveryConfirmRequest payload for confirming recovery.
type RecoveryConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// PasswordChangeRequest payload for changing your own password.
type PasswordChangeRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AdminPasswordResetRequest payload for POST /users/:id/password.
type AdminPasswordResetRequest struct {
	NewPassword string `json:"newPassword"`
}
