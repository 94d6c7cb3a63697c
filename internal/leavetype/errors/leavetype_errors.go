package leavetypeerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found",
		http.StatusNotFound,
	)
	ErrDuplicateName = apperror.New(
		apperror.CodeConflict,
		"leave type with this name already exists",
		http.StatusConflict,
	)
	ErrFixedDaysImmutable = apperror.New(
		apperror.CodeInvalidState,
		"default days of a fixed-allocation leave type cannot be changed",
		http.StatusBadRequest,
	)
	ErrInvalidDefaultDays = apperror.New(
		apperror.CodeInvalidInput,
		"default_days must not be negative",
		http.StatusBadRequest,
	)
)
