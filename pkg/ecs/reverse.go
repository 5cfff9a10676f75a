package ecs

type refKey struct {
	target EntityID
	typ    TypeID
}

// ReverseIndex answers "who references entity X through component type T". It
// is maintained synchronously on every mutation of a reference-valued
// component slot. A referrer may link to the same target through several
// slots; per-referrer counts give Referrers set semantics while keeping
// unlink correct slot by slot.
//
// Entries keyed by a destroyed target are not purged eagerly; the query layer
// resolves reverse clauses against a destroyed target to an empty set.
type ReverseIndex struct {
	links map[refKey]map[EntityID]int
}

func NewReverseIndex() *ReverseIndex {
	return &ReverseIndex{links: make(map[refKey]map[EntityID]int)}
}

// Link records one reference slot on referrer pointing at target via typ.
func (ix *ReverseIndex) Link(referrer, target EntityID, typ TypeID) {
	k := refKey{target: target, typ: typ}
	m, ok := ix.links[k]
	if !ok {
		m = make(map[EntityID]int)
		ix.links[k] = m
	}
	m[referrer]++
}

// Unlink drops one reference slot; the referrer leaves the entry when its
// last slot pointing at (target, typ) is cleared.
func (ix *ReverseIndex) Unlink(referrer, target EntityID, typ TypeID) {
	k := refKey{target: target, typ: typ}
	m, ok := ix.links[k]
	if !ok {
		return
	}
	n, ok := m[referrer]
	if !ok {
		return
	}
	if n <= 1 {
		delete(m, referrer)
		if len(m) == 0 {
			delete(ix.links, k)
		}
		return
	}
	m[referrer] = n - 1
}

// Referrers returns the set of entities holding at least one live reference
// of type typ to target. The result is a fresh set owned by the caller; it is
// empty (never an error) when no links exist.
func (ix *ReverseIndex) Referrers(target EntityID, typ TypeID) EntitySet {
	m := ix.links[refKey{target: target, typ: typ}]
	out := make(EntitySet, len(m))
	for ref := range m {
		out.Add(ref)
	}
	return out
}

// HasReferrer reports whether referrer holds at least one live reference of
// type typ to target.
func (ix *ReverseIndex) HasReferrer(target EntityID, typ TypeID, referrer EntityID) bool {
	m, ok := ix.links[refKey{target: target, typ: typ}]
	if !ok {
		return false
	}
	return m[referrer] > 0
}
