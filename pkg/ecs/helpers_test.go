package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testWorld is a world with a small pre-registered vocabulary shared by most
// tests.
type testWorld struct {
	*World
	position TypeID
	velocity TypeID
	link     TypeID
	tagX     TypeID
	tagY     TypeID
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	w := NewWorld()
	tw := &testWorld{World: w}
	var err error
	tw.position, err = w.Registry().RegisterComponent("Position")
	require.NoError(t, err)
	tw.velocity, err = w.Registry().RegisterComponent("Velocity")
	require.NoError(t, err)
	tw.link, err = w.Registry().RegisterComponent("Link")
	require.NoError(t, err)
	tw.tagX, err = w.Registry().RegisterTag("X")
	require.NoError(t, err)
	tw.tagY, err = w.Registry().RegisterTag("Y")
	require.NoError(t, err)
	return tw
}

func (tw *testWorld) entityWithTags(t *testing.T, id EntityID, tags ...TypeID) *Entity {
	t.Helper()
	e, err := tw.CreateEntityWithID(id)
	require.NoError(t, err)
	for _, tag := range tags {
		require.NoError(t, e.AddTag(tag))
	}
	return e
}

// noopSystem registers an inert scheduled unit, used as a persistence scope.
func (tw *testWorld) noopSystem() *System {
	return tw.RegisterSystem("noop", func(*System, Tick) {})
}
