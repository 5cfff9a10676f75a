package ecs

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity groups a dynamic multiset of component instances and a tag set under
// a stable identifier. Entities are created and destroyed through the World;
// composition changes flow through Entity methods so the forward and reverse
// indexes and the dirty set stay correct.
type Entity struct {
	id         EntityID
	world      *World
	components map[TypeID]map[*Component]struct{}
	tags       map[TypeID]struct{}
	destroyed  bool

	// last composition change (component/tag attach or detach)
	compTick Tick
}

func (e *Entity) ID() EntityID { return e.id }

// Destroyed reports whether the entity has been destroyed. A destroyed entity
// rejects all further mutation.
func (e *Entity) Destroyed() bool { return e.destroyed }

// CompositionTick returns the tick of the entity's last structural change.
func (e *Entity) CompositionTick() Tick { return e.compTick }

// Has reports whether the entity currently holds at least one component
// instance of typ or the tag typ.
func (e *Entity) Has(typ TypeID) bool {
	if _, ok := e.tags[typ]; ok {
		return true
	}
	return len(e.components[typ]) > 0
}

// Components returns the instances of typ attached to the entity, in
// unspecified order.
func (e *Entity) Components(typ TypeID) []*Component {
	set := e.components[typ]
	out := make([]*Component, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Component returns one instance of typ, or nil if none is attached. Which
// instance is returned is unspecified when the type has several.
func (e *Entity) Component(typ TypeID) *Component {
	for c := range e.components[typ] {
		return c
	}
	return nil
}

// Tags returns the entity's current tag identifiers.
func (e *Entity) Tags() []TypeID {
	out := make([]TypeID, 0, len(e.tags))
	for t := range e.tags {
		out = append(out, t)
	}
	return out
}

// AddComponent attaches a new instance of typ with the given payload. A type
// may be attached any number of times; each call creates a distinct instance.
func (e *Entity) AddComponent(typ TypeID, values map[string]any) (*Component, error) {
	if e.destroyed {
		return nil, fmt.Errorf("add component to %s: %w", e.id, ErrEntityDestroyed)
	}
	kind, ok := e.world.registry.Kind(typ)
	if !ok {
		return nil, fmt.Errorf("add component %d: %w", typ, ErrUnknownType)
	}
	if kind != KindComponent {
		return nil, fmt.Errorf("add component %q: %w", e.world.registry.Name(typ), ErrTypeKindMismatch)
	}
	if values == nil {
		values = make(map[string]any)
	}
	now := e.world.tracker.Current()
	c := &Component{
		id:         uuid.NewString(),
		typ:        typ,
		owner:      e,
		values:     values,
		structTick: now,
		valueTick:  now,
	}
	set, ok := e.components[typ]
	if !ok {
		set = make(map[*Component]struct{})
		e.components[typ] = set
	}
	set[c] = struct{}{}
	e.compTick = now
	e.world.types.Add(e.id, typ)
	e.world.markDirty(e.id)
	return c, nil
}

// RemoveComponent detaches the instance, clearing any reference slots it
// holds so the reverse index drops its links.
func (e *Entity) RemoveComponent(c *Component) error {
	if c == nil || c.owner != e {
		return fmt.Errorf("remove component: instance not owned by %s", e.id)
	}
	set, ok := e.components[c.typ]
	if !ok {
		return fmt.Errorf("remove component: instance not attached to %s", e.id)
	}
	if _, ok := set[c]; !ok {
		return fmt.Errorf("remove component: instance not attached to %s", e.id)
	}
	c.unlinkAll()
	delete(set, c)
	if len(set) == 0 {
		delete(e.components, c.typ)
	}
	now := e.world.tracker.Current()
	c.structTick = now
	e.compTick = now
	c.owner = nil
	e.world.types.Remove(e.id, c.typ)
	e.world.markDirty(e.id)
	return nil
}

// AddTag attaches the tag typ. Adding an already present tag is a no-op.
func (e *Entity) AddTag(typ TypeID) error {
	if e.destroyed {
		return fmt.Errorf("add tag to %s: %w", e.id, ErrEntityDestroyed)
	}
	kind, ok := e.world.registry.Kind(typ)
	if !ok {
		return fmt.Errorf("add tag %d: %w", typ, ErrUnknownType)
	}
	if kind != KindTag {
		return fmt.Errorf("add tag %q: %w", e.world.registry.Name(typ), ErrTypeKindMismatch)
	}
	if _, ok := e.tags[typ]; ok {
		return nil
	}
	e.tags[typ] = struct{}{}
	e.compTick = e.world.tracker.Current()
	e.world.types.Add(e.id, typ)
	e.world.markDirty(e.id)
	return nil
}

// RemoveTag detaches the tag typ if present.
func (e *Entity) RemoveTag(typ TypeID) {
	if _, ok := e.tags[typ]; !ok {
		return
	}
	delete(e.tags, typ)
	e.compTick = e.world.tracker.Current()
	e.world.types.Remove(e.id, typ)
	e.world.markDirty(e.id)
}

// destroy purges the entity from every index. Reference slots held by the
// entity's components are unlinked before removal so no reverse entry keeps
// pointing back at it as a referrer.
func (e *Entity) destroy() {
	for typ, set := range e.components {
		for c := range set {
			c.unlinkAll()
			c.owner = nil
			e.world.types.Remove(e.id, typ)
		}
	}
	for typ := range e.tags {
		e.world.types.Remove(e.id, typ)
	}
	e.components = nil
	e.tags = nil
	e.destroyed = true
}
