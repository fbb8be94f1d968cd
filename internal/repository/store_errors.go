package repository

import (
	"errors"

	apperrors "movie-api/internal/pkg/errors"

	"gorm.io/gorm"
)

// storeError maps gorm failures onto the application sentinels. Anything
// that is not a known constraint outcome is an infrastructure failure.
func storeError(err error, message string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.ErrAlreadyExists, message)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Wrap(apperrors.ErrNotFound, message)
	default:
		return apperrors.Infra(err, message)
	}
}
