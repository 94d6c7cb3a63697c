package usererrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrAlreadyActive = apperror.New(
		apperror.CodeInvalidState,
		"user is already active",
		http.StatusBadRequest,
	)
)
