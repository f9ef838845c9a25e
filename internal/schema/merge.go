package schema

import "slices"

// MergeNode resolves a node schema's metadata.
//
// Without a parent the raw metadata becomes the resolved metadata once its
// field indexes pass validation. With a parent, the display tag comes from the
// child, descriptions accumulate parent-first, unset flags and the auto
// container are inherited, and the child's indexes are appended after the
// parent's. Nothing is returned on error.
func MergeNode(parent *NodeMetadata, child RawNodeMetadata, declared map[string]struct{}) (NodeMetadata, error) {
	if parent == nil {
		indexes, err := ValidateIndexes(declared, child.FieldIndexes, nil)
		if err != nil {
			return NodeMetadata{}, err
		}
		return NodeMetadata{
			DisplayTag:    child.DisplayTag,
			Description:   child.Description,
			MultiValued:   deref(child.MultiValued, false),
			AskOracle:     deref(child.AskOracle, false),
			FieldIndexes:  indexes,
			AutoContainer: deref(child.AutoContainer, ""),
		}, nil
	}

	indexes, err := ValidateIndexes(declared, child.FieldIndexes, parent.IndexedFields())
	if err != nil {
		return NodeMetadata{}, err
	}

	merged := make([]FieldIndex, 0, len(parent.FieldIndexes)+len(indexes))
	merged = append(merged, parent.FieldIndexes...)
	merged = append(merged, indexes...)

	return NodeMetadata{
		DisplayTag:    child.DisplayTag,
		Description:   joinDescriptions(parent.Description, child.Description),
		MultiValued:   deref(child.MultiValued, parent.MultiValued),
		AskOracle:     deref(child.AskOracle, parent.AskOracle),
		FieldIndexes:  merged,
		AutoContainer: deref(child.AutoContainer, parent.AutoContainer),
	}, nil
}

// MergeRelation resolves a relation schema's metadata with the same rules as
// MergeNode. Relations carry no field indexes of their own.
func MergeRelation(parent *RelationMetadata, child RawRelationMetadata) RelationMetadata {
	if parent == nil {
		return RelationMetadata{
			EdgeType:    child.EdgeType,
			Description: child.Description,
			Indexed:     deref(child.Indexed, false),
			AskOracle:   deref(child.AskOracle, false),
		}
	}
	return RelationMetadata{
		EdgeType:    child.EdgeType,
		Description: joinDescriptions(parent.Description, child.Description),
		Indexed:     deref(child.Indexed, parent.Indexed),
		AskOracle:   deref(child.AskOracle, parent.AskOracle),
	}
}

// mergeFields appends own fields after the inherited ones. A redeclared
// field keeps its inherited position and takes the child's type.
func mergeFields(inherited, own []Field) []Field {
	out := slices.Clone(inherited)
	for _, f := range own {
		if i := slices.IndexFunc(out, func(p Field) bool { return p.Name == f.Name }); i >= 0 {
			if f.Type != "" {
				out[i].Type = f.Type
			}
			continue
		}
		out = append(out, f)
	}
	if out == nil {
		out = []Field{}
	}
	return out
}

// joinDescriptions keeps authored text as is and skips an empty side.
func joinDescriptions(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	default:
		return parent + "\n" + child
	}
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
