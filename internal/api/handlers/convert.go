package handlers

import (
	"context"
	"errors"
	"net/http"

	"ontoforge.io/ontoforge/internal/catalog"
	"ontoforge.io/ontoforge/internal/graph"
	"ontoforge.io/ontoforge/internal/idgen"
	apperrors "ontoforge.io/ontoforge/internal/pkg/errors"
	"ontoforge.io/ontoforge/internal/schema"
)

type errorMapping struct {
	target  error
	code    string
	message string
	status  int
}

// Order matters: more specific sentinels first.
var errorMappings = []errorMapping{
	{idgen.ErrTimestampOverflow, apperrors.CodeIDOverflow, "identifier space exhausted", http.StatusInternalServerError},
	{idgen.ErrInvalidMachineID, apperrors.CodeInvalidMachineID, "invalid machine id", http.StatusInternalServerError},
	{graph.ErrUnknownProperty, apperrors.CodeUnknownProperty, "property is not declared on the schema", http.StatusBadRequest},
	{graph.ErrEndpointMismatch, apperrors.CodeEndpointMismatch, "relation endpoint type not allowed", http.StatusBadRequest},
	{graph.ErrUnknownNodeKey, apperrors.CodeUnknownNodeKey, "relation references an unknown node key", http.StatusBadRequest},
	{graph.ErrDuplicateNodeKey, apperrors.CodeDuplicateNodeKey, "node key used more than once", http.StatusBadRequest},
	{schema.ErrSchemaNotRegistered, apperrors.CodeSchemaNotFound, "schema not registered", http.StatusBadRequest},
	{schema.ErrSchemaAlreadyRegistered, apperrors.CodeSchemaExists, "schema already registered", http.StatusConflict},
	{schema.ErrUnknownField, apperrors.CodeUnknownField, "index references an undeclared field", http.StatusBadRequest},
	{schema.ErrDuplicateIndex, apperrors.CodeDuplicateIndex, "field is already indexed", http.StatusBadRequest},
	{schema.ErrInvalidIndexKind, apperrors.CodeInvalidIndexKind, "invalid index kind", http.StatusBadRequest},
	{schema.ErrMissingEndpoint, apperrors.CodeMissingEndpoint, "relation has no source or target type", http.StatusBadRequest},
	{schema.ErrUnknownReference, apperrors.CodeUnknownReference, "referenced node schema is not registered", http.StatusBadRequest},
	{catalog.ErrParentCycle, apperrors.CodeParentCycle, "schema parent chain forms a cycle", http.StatusBadRequest},
}

// toAppError translates a domain error into an API error. Offending schema
// and field names are carried as params.
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, idgen.ErrClockMovedBackwards) {
		return apperrors.ErrClockMovedBackwardsf(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeRequestCancelled, "request cancelled", http.StatusServiceUnavailable)
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return apperrors.Wrap(err, m.code, m.message, m.status).WithParams(schemaParams(err))
		}
	}
	return apperrors.Wrap(err, "INTERNAL_ERROR", "An internal error occurred", http.StatusInternalServerError)
}

func schemaParams(err error) map[string]interface{} {
	var se *schema.Error
	if !errors.As(err, &se) {
		return nil
	}
	params := map[string]interface{}{}
	if se.Schema.Name != "" {
		params["schema"] = se.Schema.String()
	}
	if se.Field != "" {
		params["field"] = se.Field
	}
	return params
}
