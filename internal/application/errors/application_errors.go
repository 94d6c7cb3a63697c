package applicationerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrInvalidRequesterID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid requester id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be greater than zero",
		http.StatusBadRequest,
	)
	ErrReasonTooShort = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be at least 10 characters",
		http.StatusBadRequest,
	)
	ErrRequesterNotFound = apperror.New(
		apperror.CodeNotFound,
		"requester not found",
		http.StatusNotFound,
	)
	ErrRequesterInactive = apperror.New(
		apperror.CodeForbidden,
		"requester account is not active",
		http.StatusForbidden,
	)
	ErrRequesterNoDepartment = apperror.New(
		apperror.CodeInvalidState,
		"requester has no department affiliation",
		http.StatusBadRequest,
	)
	ErrApplicationNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave application not found",
		http.StatusNotFound,
	)
	ErrInvalidStateTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave application status transition",
		http.StatusConflict,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"role is not permitted to decide leave applications",
		http.StatusForbidden,
	)
	ErrCrossDepartmentForbidden = apperror.New(
		apperror.CodeForbidden,
		"approver may only decide applications from their own department",
		http.StatusForbidden,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting",
		http.StatusBadRequest,
	)
	ErrNotRequester = apperror.New(
		apperror.CodeForbidden,
		"only the requester may cancel a leave application",
		http.StatusForbidden,
	)
)
