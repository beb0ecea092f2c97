package command

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery-relay/core"
)

func commandDependencyError(message string) error {
	return core.Internal(message, map[string]any{"command": TypeReconcileDelivery})
}

// commandValidationError reports a malformed reconcile message. The message
// never reaches the reconciler.
func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: reconcile message is invalid", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.DefaultTextCode(goerrors.CategoryValidation))
}
