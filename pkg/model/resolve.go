package model

// ResolvedAssociation is a declared association that was matched to an
// actual entity present in the render.
type ResolvedAssociation struct {
	Source      *Entity
	Key         string
	Association Association
	Target      *Entity
}

// Resolve matches the declared associations of every entity against the full
// entity list and returns those that resolve to a present target.
//
// A candidate target must have the same name as the association's target AND
// be declared either in a file the source imports or in the source's own
// file. This import gate prevents false edges between unrelated types that
// happen to share a name across unrelated files.
//
// When more than one entity satisfies the rule, the first match in list
// order wins. Callers that need reproducible output should pass the list in
// a deterministic order (see SortByCodePath); resolution order is then
// well-defined rather than incidental.
//
// Associations whose target name matches no entity are dropped silently.
// Forward references to types that were never fetched or parsed are normal,
// not an error.
func Resolve(entities []*Entity) []ResolvedAssociation {
	var resolved []ResolvedAssociation
	for _, src := range entities {
		for _, key := range src.AssociationKeys() {
			assoc := src.Associations[key]
			target := findTarget(src, assoc.TargetName, entities)
			if target == nil {
				continue
			}
			resolved = append(resolved, ResolvedAssociation{
				Source:      src,
				Key:         key,
				Association: assoc,
				Target:      target,
			})
		}
	}
	return resolved
}

// findTarget returns the first entity whose name matches and whose file is
// either imported by the source or is the source's own file.
func findTarget(src *Entity, name string, entities []*Entity) *Entity {
	for _, candidate := range entities {
		if candidate.Name != name {
			continue
		}
		if candidate.CodePath == src.CodePath || src.Imports(candidate.CodePath) {
			return candidate
		}
	}
	return nil
}
