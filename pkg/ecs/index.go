package ecs

// TypeIndex is the forward inverted index: TypeID → set of entities currently
// possessing that type. An entity appears under T iff it holds at least one
// component instance of T or the tag T; per-(type,entity) instance counts keep
// that invariant correct for multi-instance component types.
type TypeIndex struct {
	entities map[TypeID]EntitySet
	counts   map[TypeID]map[EntityID]int
}

func NewTypeIndex() *TypeIndex {
	return &TypeIndex{
		entities: make(map[TypeID]EntitySet),
		counts:   make(map[TypeID]map[EntityID]int),
	}
}

// Add records one instance of typ on entity. Adding a tag counts as a single
// instance.
func (ix *TypeIndex) Add(entity EntityID, typ TypeID) {
	c, ok := ix.counts[typ]
	if !ok {
		c = make(map[EntityID]int)
		ix.counts[typ] = c
	}
	c[entity]++
	if c[entity] == 1 {
		s, ok := ix.entities[typ]
		if !ok {
			s = make(EntitySet)
			ix.entities[typ] = s
		}
		s.Add(entity)
	}
}

// Remove drops one instance of typ from entity; the entity leaves the index
// for typ only when its last instance is gone.
func (ix *TypeIndex) Remove(entity EntityID, typ TypeID) {
	c, ok := ix.counts[typ]
	if !ok {
		return
	}
	n, ok := c[entity]
	if !ok {
		return
	}
	if n <= 1 {
		delete(c, entity)
		if s, ok := ix.entities[typ]; ok {
			s.Remove(entity)
		}
		return
	}
	c[entity] = n - 1
}

// EntitiesWithType returns the live set of entities holding typ. The returned
// set is the index's own storage: callers must treat it as read-only. A nil
// return means no entity holds the type.
func (ix *TypeIndex) EntitiesWithType(typ TypeID) EntitySet {
	return ix.entities[typ]
}

// Has reports whether entity currently holds typ.
func (ix *TypeIndex) Has(entity EntityID, typ TypeID) bool {
	c, ok := ix.counts[typ]
	if !ok {
		return false
	}
	return c[entity] > 0
}
