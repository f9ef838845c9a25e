package schema

import "slices"

// ValidateIndexes checks proposed index declarations against a schema's
// declared fields and the fields its ancestors already index.
//
// A proposed index fails with ErrUnknownField when its field is neither
// declared nor a meta-field, and with ErrDuplicateIndex when the field is
// already indexed or appears twice in proposed. On success the proposed list
// is returned unchanged, as a fresh slice.
func ValidateIndexes(declared map[string]struct{}, proposed []FieldIndex, alreadyIndexed map[string]struct{}) ([]FieldIndex, error) {
	seen := make(map[string]struct{}, len(proposed))
	for _, fi := range proposed {
		if !fi.Kind.Valid() {
			return nil, &Error{Op: "validate", Field: fi.Field, Err: ErrInvalidIndexKind}
		}
		if _, ok := declared[fi.Field]; !ok {
			if _, meta := MetaFields[fi.Field]; !meta {
				return nil, &Error{Op: "validate", Field: fi.Field, Err: ErrUnknownField}
			}
		}
		if _, ok := alreadyIndexed[fi.Field]; ok {
			return nil, &Error{Op: "validate", Field: fi.Field, Err: ErrDuplicateIndex}
		}
		if _, ok := seen[fi.Field]; ok {
			return nil, &Error{Op: "validate", Field: fi.Field, Err: ErrDuplicateIndex}
		}
		seen[fi.Field] = struct{}{}
	}
	out := slices.Clone(proposed)
	if out == nil {
		out = []FieldIndex{}
	}
	return out, nil
}

// FieldSet builds the declared-field set used by ValidateIndexes.
func FieldSet(fields []Field) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f.Name] = struct{}{}
	}
	return set
}
