package service

import (
	"errors"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/repository"
	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// storeError turns a repository miss into NotFound and passes everything
// else through untouched.
func storeError(resource, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func validationError(err error) error {
	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		details := make(map[string]any, len(fields))
		for field, reason := range fields {
			details[field] = reason
		}
		return apperrors.NewValidationError("please correct the highlighted fields", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

func checkPassword(password string) error {
	if len(password) < domain.MinPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters", map[string]any{"password": "too short"})
	}
	return nil
}
