package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInternsNames(t *testing.T) {
	r := NewRegistry()

	pos, err := r.RegisterComponent("Position")
	require.NoError(t, err)
	tag, err := r.RegisterTag("Frozen")
	require.NoError(t, err)
	assert.NotEqual(t, pos, tag)

	// Re-registering with the same kind is idempotent.
	again, err := r.RegisterComponent("Position")
	require.NoError(t, err)
	assert.Equal(t, pos, again)

	id, ok := r.Lookup("Frozen")
	assert.True(t, ok)
	assert.Equal(t, tag, id)
	assert.Equal(t, "Position", r.Name(pos))

	kind, ok := r.Kind(tag)
	assert.True(t, ok)
	assert.Equal(t, KindTag, kind)
	assert.True(t, r.Known(pos))
	assert.False(t, r.Known(TypeID(99)))
}

func TestRegistryKindMismatch(t *testing.T) {
	r := NewRegistry()

	_, err := r.RegisterComponent("Position")
	require.NoError(t, err)
	_, err = r.RegisterTag("Position")
	assert.ErrorIs(t, err, ErrTypeKindMismatch)
}

func TestRegistryUnknownLookups(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, "", r.Name(TypeID(7)))
	_, ok = r.Kind(TypeID(7))
	assert.False(t, ok)
}
