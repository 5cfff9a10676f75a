package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeIndexAddRemove(t *testing.T) {
	ix := NewTypeIndex()

	ix.Add("a", 1)
	ix.Add("b", 1)
	ix.Add("a", 2)

	assert.True(t, ix.Has("a", 1))
	assert.True(t, ix.Has("a", 2))
	assert.False(t, ix.Has("b", 2))
	assert.True(t, ix.EntitiesWithType(1).Equal(NewEntitySet("a", "b")))

	ix.Remove("a", 1)
	assert.False(t, ix.Has("a", 1))
	assert.True(t, ix.EntitiesWithType(1).Equal(NewEntitySet("b")))
}

func TestTypeIndexMultiInstanceCounting(t *testing.T) {
	ix := NewTypeIndex()

	// Two instances of the same type: the entity stays indexed until the
	// last one is removed.
	ix.Add("a", 1)
	ix.Add("a", 1)
	ix.Remove("a", 1)
	assert.True(t, ix.Has("a", 1))
	ix.Remove("a", 1)
	assert.False(t, ix.Has("a", 1))
	assert.Equal(t, 0, ix.EntitiesWithType(1).Len())
}

func TestTypeIndexRemoveAbsent(t *testing.T) {
	ix := NewTypeIndex()

	ix.Remove("ghost", 3)
	assert.False(t, ix.Has("ghost", 3))
	assert.Nil(t, ix.EntitiesWithType(3))
}
