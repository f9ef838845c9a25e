package schema

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced by validation, merge and registration.
var (
	ErrUnknownField            = errors.New("index references a field not declared on the schema")
	ErrDuplicateIndex          = errors.New("field is already indexed")
	ErrInvalidIndexKind        = errors.New("invalid index kind")
	ErrSchemaAlreadyRegistered = errors.New("schema already registered")
	ErrSchemaNotRegistered     = errors.New("schema not registered")
	ErrMissingEndpoint         = errors.New("relation has no source or target type")
	ErrInvalidDefinition       = errors.New("invalid schema definition")
	// ErrUnknownReference is returned when an auto container or relation
	// endpoint names a node schema that is not registered.
	ErrUnknownReference = errors.New("referenced node schema is not registered")
)

// Error describes a failed schema operation.
type Error struct {
	// Op is the operation that failed: "validate", "register", "check" or "lookup".
	Op string
	// Schema is the schema being processed, zero when not known.
	Schema Ref
	// Field is the offending field name, if any.
	Field string
	// Err is one of the sentinel errors above.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("schema ")
	b.WriteString(e.Op)
	if e.Schema.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Schema.String())
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// withSchema fills in the schema reference on a validation error raised
// before the owning schema was known.
func withSchema(err error, ref Ref, op string) error {
	var se *Error
	if errors.As(err, &se) {
		cp := *se
		if cp.Schema.Name == "" {
			cp.Schema = ref
		}
		cp.Op = op
		return &cp
	}
	return &Error{Op: op, Schema: ref, Err: err}
}
