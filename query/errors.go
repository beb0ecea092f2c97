package query

import "github.com/goliatone/go-delivery-relay/core"

func queryDependencyError(message string) error {
	return core.Internal(message, nil)
}

// queryInvalidInputError carries the message shown to HTTP callers verbatim.
func queryInvalidInputError(message string, field string) error {
	return core.BadInput(message, map[string]any{"field": field})
}
