package identityerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrUnresolvedDepartment = apperror.New(
		apperror.CodeForbidden,
		"approver department could not be resolved",
		http.StatusForbidden,
	)
	ErrNotAuthorizedForDepartment = apperror.New(
		apperror.CodeForbidden,
		"approver is not authorized for this department",
		http.StatusForbidden,
	)
	ErrInvalidEmail = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approver email",
		http.StatusBadRequest,
	)
)
