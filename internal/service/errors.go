package service

import (
	"errors"
	"fmt"

	"secure_blog/internal/apperr"
	"secure_blog/internal/repository"
)

var errDuplicateAccount = apperr.Validation("email or username already in use")

// fromRepo translates repository sentinels into apperr kinds. Errors that
// already carry a kind pass through unchanged.
func fromRepo(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Validation(what + " already exists")
	default:
		return apperr.Internal(fmt.Sprintf("%s storage failure", what), err)
	}
}
