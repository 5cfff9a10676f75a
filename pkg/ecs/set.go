package ecs

// EntitySet is an unordered set of entity identifiers. Iteration order is
// unspecified. Sets returned by index accessors and query execution must be
// treated as read-only by callers; mutating them corrupts index state.
type EntitySet map[EntityID]struct{}

// NewEntitySet builds a set from the given identifiers.
func NewEntitySet(ids ...EntityID) EntitySet {
	s := make(EntitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s EntitySet) Add(id EntityID)    { s[id] = struct{}{} }
func (s EntitySet) Remove(id EntityID) { delete(s, id) }

func (s EntitySet) Has(id EntityID) bool {
	_, ok := s[id]
	return ok
}

func (s EntitySet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s EntitySet) Clone() EntitySet {
	out := make(EntitySet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the members as a slice in unspecified order.
func (s EntitySet) Slice() []EntityID {
	out := make([]EntityID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Equal reports whether both sets contain exactly the same members.
func (s EntitySet) Equal(other EntitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
