package ecs

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
)

// PendingDestroyTag is the framework-level marker for entities scheduled for
// destruction at the next tick boundary. Queries exclude marked entities
// unless built with IncludeDestroyMarked.
const PendingDestroyTag = "PendingDestroy"

// World is the entity store and the owner of every index structure: the type
// registry, forward type index, reverse reference index, change tracker and
// the persisted-query index manager.
//
// The world is single-threaded by design: all mutation and query evaluation
// happen synchronously in the caller's logical step, and the tick boundary is
// the sole ordering point at which persisted results advance. Callers adding
// threads must route every mutation through one owning goroutine.
type World struct {
	registry *Registry
	tracker  *Tracker
	types    *TypeIndex
	reverse  *ReverseIndex
	manager  *IndexManager

	entities map[EntityID]*Entity
	dirty    EntitySet
	systems  []*System

	markTag   TypeID
	log       log.Log
	passHooks []func()
}

// Option configures a World at construction.
type Option func(*World)

// WithLogger sets the world's logger; the default is a no-op logger.
func WithLogger(l log.Log) Option {
	return func(w *World) { w.log = l }
}

func NewWorld(opts ...Option) *World {
	w := &World{
		registry: NewRegistry(),
		tracker:  NewTracker(),
		types:    NewTypeIndex(),
		reverse:  NewReverseIndex(),
		entities: make(map[EntityID]*Entity),
		dirty:    make(EntitySet),
		log:      log.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.manager = newIndexManager(w.log)
	w.markTag, _ = w.registry.RegisterTag(PendingDestroyTag)
	return w
}

func (w *World) Registry() *Registry { return w.registry }

// CurrentTick returns the tick mutations are currently stamped with.
func (w *World) CurrentTick() Tick { return w.tracker.Current() }

// CreateEntity creates an entity with a generated identifier.
func (w *World) CreateEntity() *Entity {
	e, err := w.CreateEntityWithID(EntityID(uuid.NewString()))
	if err != nil {
		// Generated identifiers do not collide with live entities.
		panic(err)
	}
	return e
}

// CreateEntityWithID creates an entity under a caller-chosen identifier.
func (w *World) CreateEntityWithID(id EntityID) (*Entity, error) {
	if _, ok := w.entities[id]; ok {
		return nil, fmt.Errorf("create entity %s: %w", id, ErrDuplicateEntity)
	}
	e := &Entity{
		id:         id,
		world:      w,
		components: make(map[TypeID]map[*Component]struct{}),
		tags:       make(map[TypeID]struct{}),
		compTick:   w.tracker.Current(),
	}
	w.entities[id] = e
	w.markDirty(id)
	return e, nil
}

// Entity looks up a live entity by identifier.
func (w *World) Entity(id EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int { return len(w.entities) }

// DestroyEntity removes the entity and purges it from every index: reference
// slots held by its components are unlinked, its types leave the forward
// index, and it is recorded dirty so persisted queries drop it at the next
// synchronization pass. Reverse entries keyed by the destroyed entity as a
// target are left in place; reverse queries against it resolve to empty.
func (w *World) DestroyEntity(id EntityID) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("destroy entity %s: not found", id)
	}
	e.destroy()
	delete(w.entities, id)
	w.markDirty(id)
	w.log.Debug("entity destroyed", log.String("entity", string(id)))
	return nil
}

// MarkForDestroy tags the entity for destruction at the next tick boundary.
func (w *World) MarkForDestroy(id EntityID) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("mark for destroy %s: not found", id)
	}
	return e.AddTag(w.markTag)
}

// ProcessDestroyMarked destroys every marked entity and returns how many.
func (w *World) ProcessDestroyMarked() int {
	marked := w.types.EntitiesWithType(w.markTag)
	if marked.Len() == 0 {
		return 0
	}
	ids := marked.Slice()
	for _, id := range ids {
		_ = w.DestroyEntity(id)
	}
	return len(ids)
}

// Referrers answers "who references target through component type typ". The
// returned set is caller-owned and empty (never an error) when no live links
// exist, including for a destroyed target.
func (w *World) Referrers(target EntityID, typ TypeID) EntitySet {
	if _, alive := w.entities[target]; !alive {
		return make(EntitySet)
	}
	return w.reverse.Referrers(target, typ)
}

// CreateQuery builds a world-scoped query from an optional init spec.
// World-scoped queries cannot be persisted; use a system scope for that.
func (w *World) CreateQuery(init ...QueryInit) (*Query, error) {
	return w.buildQuery(nil, init...)
}

func (w *World) buildQuery(sys *System, init ...QueryInit) (*Query, error) {
	q := &Query{world: w, system: sys}
	if len(init) == 0 {
		return q, nil
	}
	spec := init[0]
	if len(spec.From) > 0 {
		q.From(spec.From...)
	}
	q.FromAll(spec.All...)
	q.FromAny(spec.Any...)
	q.Not(spec.Not...)
	q.Only(spec.Only...)
	if spec.Reverse != nil {
		q.FromReverse(spec.Reverse.Target, spec.Reverse.Type)
	}
	if spec.IncludeDestroyMarked {
		q.IncludeDestroyMarked()
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	if spec.Persist {
		if err := q.Persist(spec.TrackAdded, spec.TrackRemoved); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// RegisterSystem adds a named scheduled unit of work. Systems run in
// registration order.
func (w *World) RegisterSystem(name string, fn SystemFunc) *System {
	s := &System{name: name, world: w, fn: fn}
	w.systems = append(w.systems, s)
	return s
}

func (w *World) removeSystem(s *System) {
	for i, cand := range w.systems {
		if cand == s {
			w.systems = append(w.systems[:i], w.systems[i+1:]...)
			return
		}
	}
}

// RunSystems executes every registered system at the current tick, running
// one maintenance pass after each so the next system observes results that
// include the previous one's mutations.
func (w *World) RunSystems() {
	tick := w.tracker.Current()
	for _, s := range w.systems {
		s.fn(s, tick)
		w.UpdateIndexes()
	}
}

// OnIndexUpdate registers fn to run after every maintenance pass, including
// the per-system passes inside RunSystems and the tick-boundary pass. Each
// pass overwrites the added/removed delta sets of persisted queries, so a
// consumer that needs deltas spanning several passes harvests them here.
func (w *World) OnIndexUpdate(fn func()) {
	w.passHooks = append(w.passHooks, fn)
}

// UpdateIndexes runs one maintenance pass over all persisted queries,
// consuming the dirty set accumulated since the previous pass. Callable
// directly at any time; invoked automatically after each system and at each
// tick boundary.
func (w *World) UpdateIndexes() {
	if len(w.dirty) == 0 && w.manager.QueryCount() == 0 {
		return
	}
	dirty := w.dirty
	w.dirty = make(EntitySet)
	w.manager.Process(dirty)
	for _, fn := range w.passHooks {
		fn()
	}
}

// Tick is the per-frame synchronization point: marked entities are destroyed,
// a maintenance pass runs, and the logical clock advances.
func (w *World) Tick() Tick {
	w.ProcessDestroyMarked()
	w.UpdateIndexes()
	return w.tracker.Advance()
}

// markDirty records a composition or reference change for the next
// maintenance pass. Multiple changes to one entity collapse; the pass
// re-checks net membership, not intermediate states.
func (w *World) markDirty(id EntityID) {
	w.dirty.Add(id)
}
