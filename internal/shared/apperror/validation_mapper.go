package apperror

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var fieldTitleCaser = cases.Title(language.English)

// formatFieldName turns "rejection_reason" into "Rejection Reason".
func formatFieldName(s string) string {
	return fieldTitleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// MapValidationError converts go-playground validation errors into a
// field-level AppError. Only the first failing field is reported.
func MapValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return New(CodeInvalidInput, "Invalid input", http.StatusBadRequest)
	}

	field := formatFieldName(errs[0].Field())
	if errs[0].Tag() == "required" {
		return RequiredField(field)
	}
	return InvalidField(field)
}
