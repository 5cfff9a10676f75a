package ecs

// Component is a typed data instance owned by exactly one entity. The payload
// is an opaque key/value map; reference-valued slots (single reference,
// reference set, reference map) are held separately because every write to
// them must keep the reverse reference index in sync.
//
// References are non-owning links: the referenced entity's lifetime is
// independent, and a destroyed target is never resurrected or guarded by the
// links pointing at it.
type Component struct {
	id     string
	typ    TypeID
	owner  *Entity
	values map[string]any

	refs    map[string]EntityID
	refSets map[string]EntitySet
	refMaps map[string]map[string]EntityID

	// last attach/detach of this instance
	structTick Tick
	// last explicit payload update
	valueTick Tick
}

func (c *Component) ID() string       { return c.id }
func (c *Component) Type() TypeID     { return c.typ }
func (c *Component) Owner() *Entity   { return c.owner }
func (c *Component) StructTick() Tick { return c.structTick }
func (c *Component) ValueTick() Tick  { return c.valueTick }

// Value reads a payload property.
func (c *Component) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Update merges values into the payload and stamps the instance's value tick.
// This is the explicit "mark updated" call; direct map reads never restamp.
func (c *Component) Update(values map[string]any) {
	for k, v := range values {
		c.values[k] = v
	}
	if c.owner != nil {
		c.valueTick = c.owner.world.tracker.Current()
	}
}

// Ref reads a single-reference slot. The zero EntityID means unset.
func (c *Component) Ref(slot string) EntityID {
	return c.refs[slot]
}

// SetRef assigns a single-reference slot, unlinking the previous target if
// any. Passing the zero EntityID clears the slot.
func (c *Component) SetRef(slot string, target EntityID) {
	old, had := c.refs[slot]
	if had && old == target {
		return
	}
	if had {
		c.world().reverse.Unlink(c.owner.id, old, c.typ)
	}
	if target == "" {
		delete(c.refs, slot)
	} else {
		if c.refs == nil {
			c.refs = make(map[string]EntityID)
		}
		c.refs[slot] = target
		c.world().reverse.Link(c.owner.id, target, c.typ)
	}
	c.stampRefWrite()
}

// RefSet reads a reference-set slot. Callers must treat the set as read-only.
func (c *Component) RefSet(slot string) EntitySet {
	return c.refSets[slot]
}

// AddRef inserts target into a reference-set slot. The zero EntityID means
// unset and is never a set member; passing it is a no-op.
func (c *Component) AddRef(slot string, target EntityID) {
	if target == "" {
		return
	}
	set, ok := c.refSets[slot]
	if !ok {
		set = make(EntitySet)
		if c.refSets == nil {
			c.refSets = make(map[string]EntitySet)
		}
		c.refSets[slot] = set
	}
	if set.Has(target) {
		return
	}
	set.Add(target)
	c.world().reverse.Link(c.owner.id, target, c.typ)
	c.stampRefWrite()
}

// RemoveRef drops target from a reference-set slot.
func (c *Component) RemoveRef(slot string, target EntityID) {
	set, ok := c.refSets[slot]
	if !ok || !set.Has(target) {
		return
	}
	set.Remove(target)
	c.world().reverse.Unlink(c.owner.id, target, c.typ)
	c.stampRefWrite()
}

// MapRef reads an entry from a reference-map slot.
func (c *Component) MapRef(slot, key string) (EntityID, bool) {
	m, ok := c.refMaps[slot]
	if !ok {
		return "", false
	}
	id, ok := m[key]
	return id, ok
}

// SetMapRef writes an entry into a reference-map slot, unlinking any target
// the key previously pointed at. Passing the zero EntityID deletes the entry,
// matching SetRef's clear semantics.
func (c *Component) SetMapRef(slot, key string, target EntityID) {
	if target == "" {
		c.DeleteMapRef(slot, key)
		return
	}
	m, ok := c.refMaps[slot]
	if !ok {
		m = make(map[string]EntityID)
		if c.refMaps == nil {
			c.refMaps = make(map[string]map[string]EntityID)
		}
		c.refMaps[slot] = m
	}
	if old, had := m[key]; had {
		if old == target {
			return
		}
		c.world().reverse.Unlink(c.owner.id, old, c.typ)
	}
	m[key] = target
	c.world().reverse.Link(c.owner.id, target, c.typ)
	c.stampRefWrite()
}

// DeleteMapRef removes an entry from a reference-map slot.
func (c *Component) DeleteMapRef(slot, key string) {
	m, ok := c.refMaps[slot]
	if !ok {
		return
	}
	old, had := m[key]
	if !had {
		return
	}
	delete(m, key)
	c.world().reverse.Unlink(c.owner.id, old, c.typ)
	c.stampRefWrite()
}

func (c *Component) world() *World { return c.owner.world }

// stampRefWrite records a reference mutation: the referrer becomes dirty so
// persisted reverse queries re-check it at the next synchronization point.
func (c *Component) stampRefWrite() {
	w := c.world()
	c.valueTick = w.tracker.Current()
	w.markDirty(c.owner.id)
}

// unlinkAll clears every reference slot, called on instance detach and owner
// destruction.
func (c *Component) unlinkAll() {
	w := c.world()
	for _, target := range c.refs {
		w.reverse.Unlink(c.owner.id, target, c.typ)
	}
	for _, set := range c.refSets {
		for target := range set {
			w.reverse.Unlink(c.owner.id, target, c.typ)
		}
	}
	for _, m := range c.refMaps {
		for _, target := range m {
			w.reverse.Unlink(c.owner.id, target, c.typ)
		}
	}
	c.refs = nil
	c.refSets = nil
	c.refMaps = nil
}
