package command

import (
	"net/http"

	"github.com/andersonfds/freitool/core"
	goerrors "github.com/goliatone/go-errors"
)

func commandDependencyError(message string) error {
	return core.StampTextCode(
		goerrors.New(message, goerrors.CategoryInternal).WithCode(http.StatusInternalServerError),
		core.ErrorInternal,
	)
}

func commandValidationError(field string, message string) error {
	err := goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithSeverity(goerrors.SeverityError)
	return core.StampTextCode(err, core.ErrorBadInput)
}
