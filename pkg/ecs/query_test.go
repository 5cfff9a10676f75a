package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryAllAnyNot(t *testing.T) {
	tw := newTestWorld(t)
	tw.entityWithTags(t, "A", tw.tagX)
	tw.entityWithTags(t, "B", tw.tagX, tw.tagY)

	execute := func(q *Query) EntitySet {
		t.Helper()
		res, err := q.Execute()
		require.NoError(t, err)
		return res
	}

	q, err := tw.CreateQuery()
	require.NoError(t, err)
	assert.True(t, execute(q.FromAll(tw.tagX)).Equal(NewEntitySet("A", "B")))

	q, _ = tw.CreateQuery()
	assert.True(t, execute(q.FromAll(tw.tagX, tw.tagY)).Equal(NewEntitySet("B")))

	q, _ = tw.CreateQuery()
	assert.True(t, execute(q.FromAny(tw.tagX, tw.tagY)).Equal(NewEntitySet("A", "B")))

	q, _ = tw.CreateQuery()
	assert.True(t, execute(q.FromAll(tw.tagX).Not(tw.tagY)).Equal(NewEntitySet("A")))
}

func TestQueryOnlyRestrictsAndStacksWithNot(t *testing.T) {
	tw := newTestWorld(t)
	frozen, err := tw.Registry().RegisterTag("Frozen")
	require.NoError(t, err)
	tw.entityWithTags(t, "plain", tw.tagX)
	tw.entityWithTags(t, "marked", tw.tagX, tw.tagY)
	tw.entityWithTags(t, "frozen", tw.tagX, tw.tagY, frozen)

	q, _ := tw.CreateQuery()
	res, err := q.FromAll(tw.tagX).Only(tw.tagY).Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("marked", "frozen")))

	// not and only apply simultaneously: avoid all of not AND match one of only.
	q, _ = tw.CreateQuery()
	res, err = q.FromAll(tw.tagX).Not(frozen).Only(tw.tagY).Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("marked")))
}

func TestQueryFromStaticList(t *testing.T) {
	tw := newTestWorld(t)
	tw.entityWithTags(t, "A", tw.tagX)
	tw.entityWithTags(t, "B", tw.tagX)
	tw.entityWithTags(t, "C", tw.tagY)

	q, _ := tw.CreateQuery()
	res, err := q.From("A", "C", "ghost").Execute()
	require.NoError(t, err)
	// Unknown ids in the static list never match.
	assert.True(t, res.Equal(NewEntitySet("A", "C")))

	// from combines with type clauses by intersection.
	q, _ = tw.CreateQuery()
	res, err = q.From("A", "C").FromAll(tw.tagX).Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("A")))
}

func TestQueryReverseClause(t *testing.T) {
	tw := newTestWorld(t)
	target := tw.entityWithTags(t, "T")
	r := tw.entityWithTags(t, "R")
	c, err := r.AddComponent(tw.link, nil)
	require.NoError(t, err)
	c.SetRef("to", target.ID())

	q, _ := tw.CreateQuery()
	res, err := q.FromReverse(target.ID(), tw.link).Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("R")))

	// A second reference to the same target does not duplicate the referrer.
	c.AddRef("peers", target.ID())
	q, _ = tw.CreateQuery()
	res, err = q.FromReverse(target.ID(), tw.link).Execute()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
}

func TestQueryReverseCombinesWithAll(t *testing.T) {
	tw := newTestWorld(t)
	target := tw.entityWithTags(t, "T")
	r1 := tw.entityWithTags(t, "R1", tw.tagX)
	r2 := tw.entityWithTags(t, "R2")
	for _, r := range []*Entity{r1, r2} {
		c, err := r.AddComponent(tw.link, nil)
		require.NoError(t, err)
		c.SetRef("to", target.ID())
	}

	q, _ := tw.CreateQuery()
	res, err := q.FromReverse(target.ID(), tw.link).FromAll(tw.tagX).Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("R1")))
}

func TestQueryReverseAgainstDestroyedTarget(t *testing.T) {
	tw := newTestWorld(t)
	target := tw.entityWithTags(t, "T")
	r := tw.entityWithTags(t, "R")
	c, err := r.AddComponent(tw.link, nil)
	require.NoError(t, err)
	c.SetRef("to", target.ID())
	c.SetRef("to", "")

	require.NoError(t, tw.DestroyEntity(target.ID()))

	q, _ := tw.CreateQuery()
	res, err := q.FromReverse(target.ID(), tw.link).Execute()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, tw.Referrers(target.ID(), tw.link).Len())
}

func TestQueryExecuteIsIdempotentAndStale(t *testing.T) {
	tw := newTestWorld(t)
	tw.entityWithTags(t, "A", tw.tagX)

	q, _ := tw.CreateQuery()
	q.FromAll(tw.tagX)
	first, err := q.Execute()
	require.NoError(t, err)
	second, err := q.Execute()
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	// A non-persisted query stays on its cached result across mutations and
	// synchronization passes until Refresh.
	tw.entityWithTags(t, "B", tw.tagX)
	tw.Tick()
	res, err := q.Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("A")))

	res, err = q.Refresh().Execute()
	require.NoError(t, err)
	assert.True(t, res.Equal(NewEntitySet("A", "B")))
}

func TestQueryConstructionErrors(t *testing.T) {
	tw := newTestWorld(t)

	// No base clause at all.
	q, err := tw.CreateQuery()
	require.NoError(t, err)
	_, err = q.Execute()
	assert.ErrorIs(t, err, ErrNoBaseClause)

	// not/only are filters and need a base clause.
	_, err = tw.CreateQuery(QueryInit{Not: []TypeID{tw.tagX}})
	assert.ErrorIs(t, err, ErrFilterWithoutBase)
	_, err = tw.CreateQuery(QueryInit{Only: []TypeID{tw.tagX}})
	assert.ErrorIs(t, err, ErrFilterWithoutBase)

	// Unknown type identifiers poison the builder at the point of the call.
	q, err = tw.CreateQuery()
	require.NoError(t, err)
	q.FromAll(TypeID(999))
	assert.ErrorIs(t, q.Err(), ErrUnknownType)
	_, err = q.Execute()
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestQuerySignatureStability(t *testing.T) {
	tw := newTestWorld(t)

	q1, _ := tw.CreateQuery()
	q1.FromAll(tw.tagX, tw.tagY).Not(tw.velocity)
	q2, _ := tw.CreateQuery()
	q2.FromAll(tw.tagY, tw.tagX).Not(tw.velocity)
	// Clause order does not change the predicate.
	assert.Equal(t, q1.Signature(), q2.Signature())

	q3, _ := tw.CreateQuery()
	q3.FromAll(tw.tagX, tw.tagY)
	assert.NotEqual(t, q1.Signature(), q3.Signature())
}
