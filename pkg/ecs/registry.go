package ecs

import (
	"fmt"
	"sync"
)

// TypeKind distinguishes component types from tags at registration time.
// Queries treat both identically; the kind only gates which attach operations
// are valid for the identifier.
type TypeKind uint8

const (
	KindComponent TypeKind = iota
	KindTag
)

func (k TypeKind) String() string {
	if k == KindTag {
		return "tag"
	}
	return "component"
}

// Registry interns component and tag names to TypeIDs. Identifiers are
// immutable once assigned; registering the same name with the same kind is
// idempotent and returns the existing identifier.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]TypeID
	names  []string
	kinds  []TypeKind
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]TypeID)}
}

// RegisterComponent interns name as a component type.
func (r *Registry) RegisterComponent(name string) (TypeID, error) {
	return r.register(name, KindComponent)
}

// RegisterTag interns name as a tag.
func (r *Registry) RegisterTag(name string) (TypeID, error) {
	return r.register(name, KindTag)
}

func (r *Registry) register(name string, kind TypeKind) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		if r.kinds[id] != kind {
			return 0, fmt.Errorf("register %q as %s: %w (already a %s)", name, kind, ErrTypeKindMismatch, r.kinds[id])
		}
		return id, nil
	}
	id := TypeID(len(r.names))
	r.byName[name] = id
	r.names = append(r.names, name)
	r.kinds = append(r.kinds, kind)
	return id, nil
}

// Lookup resolves a previously registered name.
func (r *Registry) Lookup(name string) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the name behind id, or "" for an unknown identifier.
func (r *Registry) Name(id TypeID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// Kind reports the registered kind of id.
func (r *Registry) Kind(id TypeID) (TypeKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.kinds) {
		return 0, false
	}
	return r.kinds[id], true
}

// Known reports whether id has been registered.
func (r *Registry) Known(id TypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(id) < len(r.names)
}
