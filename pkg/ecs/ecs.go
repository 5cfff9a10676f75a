// Package ecs implements the query and indexing core of an in-memory
// entity-component store. Entities hold a changing set of typed component
// instances and tags; queries answer "which entities match this composition
// predicate" either on demand or as a continuously maintained materialized
// result set.
//
// The consistency model is tick-bounded: mutations are reflected in the
// forward and reverse indexes immediately, but persisted query results only
// advance at synchronization points (World.Tick / World.UpdateIndexes).
package ecs

// EntityID is the stable identifier of an entity. IDs are generated when not
// supplied by the caller and are never reused while any index references them.
type EntityID string

// TypeID is an interned identifier for a component type or tag. Tags share
// the identifier space with component types; the query layer draws no
// distinction between them.
type TypeID uint32

// Tick is the world's logical clock. It advances only at synchronization
// points and is used to stamp structural and value changes.
type Tick uint64
