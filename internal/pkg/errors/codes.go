package errors

import "net/http"

// Error code constants.
// Errors carry code + params; messages stay short and in English.

// Schema error codes.
const (
	CodeSchemaNotFound   = "SCHEMA_NOT_FOUND"
	CodeSchemaExists     = "SCHEMA_ALREADY_REGISTERED"
	CodeUnknownField     = "UNKNOWN_FIELD"
	CodeDuplicateIndex   = "DUPLICATE_INDEX"
	CodeInvalidIndexKind = "INVALID_INDEX_KIND"
	CodeMissingEndpoint  = "MISSING_ENDPOINT"
	CodeUnknownReference = "UNKNOWN_REFERENCE"
	CodeParentCycle      = "PARENT_CYCLE"
	CodeUnknownProperty  = "UNKNOWN_PROPERTY"
	CodeEndpointMismatch = "ENDPOINT_MISMATCH"
	CodeUnknownNodeKey   = "UNKNOWN_NODE_KEY"
	CodeDuplicateNodeKey = "DUPLICATE_NODE_KEY"
)

// ID generator error codes.
const (
	CodeInvalidMachineID    = "INVALID_MACHINE_ID"
	CodeClockMovedBackwards = "CLOCK_MOVED_BACKWARDS"
	CodeIDOverflow          = "ID_OVERFLOW"
	CodeInvalidID           = "INVALID_ID"
)

// Request error codes.
const (
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeRequestCancelled    = "REQUEST_CANCELLED"
)

// Convenience constructors using predefined codes.

// ErrSchemaNotFoundf creates a schema not found error.
func ErrSchemaNotFoundf(ref string) *AppError {
	return (&AppError{
		Code:       CodeSchemaNotFound,
		Message:    "schema not registered",
		HTTPStatus: http.StatusNotFound,
	}).WithParams(map[string]interface{}{"schema": ref})
}

// ErrClockMovedBackwardsf creates a clock regression error (503, the caller may retry).
func ErrClockMovedBackwardsf(err error) *AppError {
	return Wrap(err, CodeClockMovedBackwards, "system clock moved backwards", http.StatusServiceUnavailable)
}

// ErrInvalidRequestFieldf creates a bad request error for a malformed field.
func ErrInvalidRequestFieldf(fieldName string) *AppError {
	return (&AppError{
		Code:       CodeInvalidRequestField,
		Message:    "request contains invalid field: " + fieldName,
		HTTPStatus: http.StatusBadRequest,
	}).WithParams(map[string]interface{}{"field": fieldName})
}
