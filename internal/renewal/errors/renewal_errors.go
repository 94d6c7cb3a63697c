package renewalerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"invalid financial year",
		http.StatusBadRequest,
	)
	ErrNoLeaveTypes = apperror.New(
		apperror.CodeInvalidState,
		"no leave types are configured",
		http.StatusConflict,
	)
)
