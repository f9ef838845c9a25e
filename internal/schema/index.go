package schema

import (
	"fmt"
	"strings"
)

// IndexKind is the search/storage strategy a downstream graph store uses for a field.
type IndexKind int

const (
	IndexExact IndexKind = iota + 1
	IndexVector
	IndexFullText
	IndexPartial
	IndexFuzzy
	IndexTerm
)

var indexKindNames = map[IndexKind]string{
	IndexExact:    "exact",
	IndexVector:   "vector",
	IndexFullText: "fulltext",
	IndexPartial:  "partial",
	IndexFuzzy:    "fuzzy",
	IndexTerm:     "term",
}

func (k IndexKind) String() string {
	if name, ok := indexKindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether k is one of the declared kinds.
func (k IndexKind) Valid() bool {
	_, ok := indexKindNames[k]
	return ok
}

// ParseIndexKind parses a kind name case-insensitively ("full_text" and "full-text" are accepted).
func ParseIndexKind(s string) (IndexKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "").Replace(norm)
	for k, name := range indexKindNames {
		if name == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidIndexKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k IndexKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndexKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IndexKind) UnmarshalText(text []byte) error {
	parsed, err := ParseIndexKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FieldIndex declares that one field of a schema is indexed with a given kind.
type FieldIndex struct {
	Field string    `json:"field"`
	Kind  IndexKind `json:"kind"`
}

func (f FieldIndex) String() string {
	return f.Field + ":" + f.Kind.String()
}
