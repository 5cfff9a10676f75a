package ecs

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/Lexazan/ape-ecs/pkg/generic"
)

// ReverseClause restricts a query to the entities referencing Target through
// component type Type.
type ReverseClause struct {
	Target EntityID
	Type   TypeID
}

// QueryInit is the declarative form of the query builder; zero fields are
// simply absent clauses.
type QueryInit struct {
	From    []EntityID
	All     []TypeID
	Any     []TypeID
	Not     []TypeID
	Only    []TypeID
	Reverse *ReverseClause

	Persist      bool
	TrackAdded   bool
	TrackRemoved bool

	// IncludeDestroyMarked keeps entities carrying the pending-destruction
	// marker in results; by default they are excluded.
	IncludeDestroyMarked bool
}

// ResultFilter optionally narrows Execute results by change recency. Either
// field may be zero, meaning no constraint of that kind.
type ResultFilter struct {
	// UpdatedComponents keeps only entities whose composition changed at or
	// after this tick.
	UpdatedComponents Tick
	// UpdatedValues keeps only entities with a matching component whose
	// payload was explicitly updated at or after this tick.
	UpdatedValues Tick
}

// Query is a compiled set-algebra predicate over component/tag membership and
// reverse references, plus (when persisted) a materialized result set kept
// current by the index manager at synchronization points.
//
// Builder methods chain and validate their arguments immediately; the first
// invalid call poisons the query and the error surfaces from the next
// terminal call (Execute, Persist, Refresh).
type Query struct {
	world  *World
	system *System

	from    EntitySet
	all     []TypeID
	any     []TypeID
	not     []TypeID
	only    []TypeID
	reverse *ReverseClause

	includeMarked bool

	persisted    bool
	trackAdded   bool
	trackRemoved bool

	executed  bool
	destroyed bool
	results   EntitySet
	added     EntitySet
	removed   EntitySet

	sig    uint64
	sigSet bool

	err error
}

var sigBuffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) })

// From restricts the query to a static entity list. Queries built on a static
// list cannot be persisted.
func (q *Query) From(ids ...EntityID) *Query {
	if q.err != nil {
		return q
	}
	if q.from == nil {
		q.from = make(EntitySet, len(ids))
	}
	for _, id := range ids {
		q.from.Add(id)
	}
	q.sigSet = false
	return q
}

// FromAll requires every listed type to be present.
func (q *Query) FromAll(types ...TypeID) *Query {
	q.all = q.appendTypes(q.all, "all", types)
	return q
}

// FromAny requires at least one listed type to be present.
func (q *Query) FromAny(types ...TypeID) *Query {
	q.any = q.appendTypes(q.any, "any", types)
	return q
}

// Not excludes entities possessing any listed type. It is a filter and
// requires a base clause.
func (q *Query) Not(types ...TypeID) *Query {
	q.not = q.appendTypes(q.not, "not", types)
	return q
}

// Only restricts results to entities possessing at least one listed type. It
// layers on top of Not rather than relaxing it; both apply simultaneously.
func (q *Query) Only(types ...TypeID) *Query {
	q.only = q.appendTypes(q.only, "only", types)
	return q
}

// FromReverse restricts the query to entities referencing target through
// component type typ. A destroyed or unknown target resolves to an empty
// result, never an error.
func (q *Query) FromReverse(target EntityID, typ TypeID) *Query {
	if q.err != nil {
		return q
	}
	if !q.world.registry.Known(typ) {
		q.err = fmt.Errorf("reverse clause type %d: %w", typ, ErrUnknownType)
		return q
	}
	q.reverse = &ReverseClause{Target: target, Type: typ}
	q.sigSet = false
	return q
}

// IncludeDestroyMarked keeps entities carrying the pending-destruction marker
// in results.
func (q *Query) IncludeDestroyMarked() *Query {
	q.includeMarked = true
	return q
}

func (q *Query) appendTypes(dst []TypeID, clause string, types []TypeID) []TypeID {
	if q.err != nil {
		return dst
	}
	for _, t := range types {
		if !q.world.registry.Known(t) {
			q.err = fmt.Errorf("%s clause type %d: %w", clause, t, ErrUnknownType)
			return dst
		}
		dst = append(dst, t)
	}
	q.sigSet = false
	return dst
}

func (q *Query) hasBase() bool {
	return q.from != nil || len(q.all) > 0 || len(q.any) > 0 || q.reverse != nil
}

func (q *Query) validate() error {
	if q.err != nil {
		return q.err
	}
	if q.destroyed {
		return ErrQueryDestroyed
	}
	if !q.hasBase() {
		if len(q.not) > 0 || len(q.only) > 0 {
			return ErrFilterWithoutBase
		}
		return ErrNoBaseClause
	}
	return nil
}

// Persist registers the query with the index manager for incremental
// maintenance. The result set stays empty until the first maintenance pass.
// Fails on a query with a static From clause or one not created through a
// system scope.
func (q *Query) Persist(trackAdded, trackRemoved bool) error {
	if err := q.validate(); err != nil {
		return err
	}
	if q.from != nil {
		return ErrPersistStaticFrom
	}
	if q.system == nil {
		return ErrPersistUnscoped
	}
	if q.persisted {
		return nil
	}
	q.persisted = true
	q.trackAdded = trackAdded
	q.trackRemoved = trackRemoved
	// Registered state: result stays empty until the first maintenance pass
	// materializes it, even if the query was executed before persisting.
	q.executed = false
	q.results = make(EntitySet)
	q.world.manager.Register(q)
	return nil
}

// Persisted reports whether the query is registered for incremental
// maintenance.
func (q *Query) Persisted() bool { return q.persisted }

// Execute returns the current result set. A non-persisted query evaluates
// lazily on first call and then returns the cached set until Refresh; a
// persisted query returns the materialized set as of the last synchronization
// pass and is never re-evaluated here. The returned set is read-only unless a
// filter was applied.
func (q *Query) Execute(filter ...ResultFilter) (EntitySet, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if !q.persisted && !q.executed {
		q.results = q.evaluate()
		q.executed = true
	}
	if len(filter) == 0 {
		return q.results, nil
	}
	f := filter[0]
	out := make(EntitySet)
	for id := range q.results {
		e, ok := q.world.entities[id]
		if !ok {
			continue
		}
		if f.UpdatedComponents != 0 && e.compTick < f.UpdatedComponents {
			continue
		}
		if f.UpdatedValues != 0 && !q.valueUpdatedSince(e, f.UpdatedValues) {
			continue
		}
		out.Add(id)
	}
	return out, nil
}

// Refresh forces an immediate full re-evaluation against current index state.
// Valid on both persisted and non-persisted queries; it bypasses dirty-set
// bookkeeping and does not touch the added/removed deltas.
func (q *Query) Refresh() *Query {
	if err := q.validate(); err != nil {
		q.err = err
		return q
	}
	q.results = q.evaluate()
	q.executed = true
	return q
}

// Added returns the entities that entered the result set during the last
// maintenance pass. Nil unless the query is persisted with added-tracking.
// The set is caller-owned between passes; the next pass overwrites it.
func (q *Query) Added() EntitySet { return q.added }

// Removed returns the entities that left the result set during the last
// maintenance pass. Nil unless the query is persisted with removed-tracking.
func (q *Query) Removed() EntitySet { return q.removed }

// Err returns the sticky builder error, if any.
func (q *Query) Err() error { return q.err }

// Destroy releases the query. A persisted query deregisters from the index
// manager; further terminal calls fail with ErrQueryDestroyed.
func (q *Query) Destroy() {
	if q.destroyed {
		return
	}
	if q.persisted {
		q.world.manager.Deregister(q)
	}
	q.destroyed = true
	q.results = nil
	q.added = nil
	q.removed = nil
}

// Signature returns a stable hash of the compiled predicate, used as the
// index manager's registry key.
func (q *Query) Signature() uint64 {
	if q.sigSet {
		return q.sig
	}
	buf := sigBuffers.Get()
	buf.Reset()
	writeTypeClause(buf, "all", q.all)
	writeTypeClause(buf, "any", q.any)
	writeTypeClause(buf, "not", q.not)
	writeTypeClause(buf, "only", q.only)
	if q.from != nil {
		ids := q.from.Slice()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		buf.WriteString("|from:")
		for _, id := range ids {
			buf.WriteString(string(id))
			buf.WriteByte(',')
		}
	}
	if q.reverse != nil {
		buf.WriteString("|rev:")
		buf.WriteString(string(q.reverse.Target))
		buf.WriteByte('@')
		buf.WriteString(strconv.FormatUint(uint64(q.reverse.Type), 10))
	}
	if q.includeMarked {
		buf.WriteString("|marked")
	}
	q.sig = xxhash.Sum64(buf.Bytes())
	q.sigSet = true
	sigBuffers.Put(buf)
	return q.sig
}

func writeTypeClause(buf *bytes.Buffer, name string, types []TypeID) {
	if len(types) == 0 {
		return
	}
	sorted := make([]TypeID, len(types))
	copy(sorted, types)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	buf.WriteByte('|')
	buf.WriteString(name)
	buf.WriteByte(':')
	for _, t := range sorted {
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
		buf.WriteByte(',')
	}
}

// matches evaluates full predicate membership for a single entity against
// current index state. The index manager uses it to re-check dirty entities.
func (q *Query) matches(id EntityID) bool {
	w := q.world
	e, ok := w.entities[id]
	if !ok || e.destroyed {
		return false
	}
	if !q.includeMarked && e.Has(w.markTag) {
		return false
	}
	if q.from != nil && !q.from.Has(id) {
		return false
	}
	for _, t := range q.all {
		if !e.Has(t) {
			return false
		}
	}
	if len(q.any) > 0 && !hasAnyOf(e, q.any) {
		return false
	}
	if q.reverse != nil {
		// A destroyed target resolves to an empty set even while stale
		// reverse entries keyed by it remain.
		if _, alive := w.entities[q.reverse.Target]; !alive {
			return false
		}
		if !w.reverse.HasReferrer(q.reverse.Target, q.reverse.Type, id) {
			return false
		}
	}
	for _, t := range q.not {
		if e.Has(t) {
			return false
		}
	}
	if len(q.only) > 0 && !hasAnyOf(e, q.only) {
		return false
	}
	return true
}

func hasAnyOf(e *Entity, types []TypeID) bool {
	for _, t := range types {
		if e.Has(t) {
			return true
		}
	}
	return false
}

// evaluate runs the full non-incremental evaluation: seed from the cheapest
// base clause, then filter every candidate through the complete predicate.
func (q *Query) evaluate() EntitySet {
	out := make(EntitySet)
	for id := range q.seed() {
		if q.matches(id) {
			out.Add(id)
		}
	}
	return out
}

// seed picks the base candidate set to iterate. Remaining base clauses are
// enforced by matches, so any one of them is a correct starting point; the
// smallest available is preferred.
func (q *Query) seed() EntitySet {
	var best EntitySet
	have := false
	consider := func(s EntitySet) {
		if !have || s.Len() < best.Len() {
			best = s
			have = true
		}
	}
	if q.from != nil {
		consider(q.from)
	}
	if q.reverse != nil {
		if _, alive := q.world.entities[q.reverse.Target]; !alive {
			return nil
		}
		consider(q.world.reverse.Referrers(q.reverse.Target, q.reverse.Type))
	}
	if len(q.all) > 0 {
		smallest := q.world.types.EntitiesWithType(q.all[0])
		for _, t := range q.all[1:] {
			s := q.world.types.EntitiesWithType(t)
			if s.Len() < smallest.Len() {
				smallest = s
			}
		}
		consider(smallest)
	}
	if have {
		return best
	}
	// any is the sole base clause: the candidate set is the union of the
	// per-type index sets.
	union := make(EntitySet)
	for _, t := range q.any {
		for id := range q.world.types.EntitiesWithType(t) {
			union.Add(id)
		}
	}
	return union
}

// valueUpdatedSince reports whether any of the entity's components matching
// the predicate's type clauses was explicitly updated at or after the tick.
// A query with no type clauses (from/reverse only) considers every component.
func (q *Query) valueUpdatedSince(e *Entity, since Tick) bool {
	typed := len(q.all) > 0 || len(q.any) > 0 || len(q.only) > 0
	check := func(types []TypeID) bool {
		for _, t := range types {
			for c := range e.components[t] {
				if c.valueTick >= since {
					return true
				}
			}
		}
		return false
	}
	if typed {
		return check(q.all) || check(q.any) || check(q.only)
	}
	for _, set := range e.components {
		for c := range set {
			if c.valueTick >= since {
				return true
			}
		}
	}
	return false
}
