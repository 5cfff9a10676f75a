package ecs

import (
	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
)

// IndexManager is the registry of persisted queries, keyed by predicate
// signature. Materialized results are a cache invalidated by the dirty entity
// set: one maintenance pass re-checks membership for dirty entities only, so
// the cost of a pass is bounded by the number of changed entities, not the
// population.
type IndexManager struct {
	queries map[uint64][]*Query
	log     log.Log
}

func newIndexManager(l log.Log) *IndexManager {
	return &IndexManager{
		queries: make(map[uint64][]*Query),
		log:     l,
	}
}

// Register adds a freshly persisted query. Its result set stays empty until
// the first maintenance pass materializes it.
func (m *IndexManager) Register(q *Query) {
	sig := q.Signature()
	m.queries[sig] = append(m.queries[sig], q)
	m.log.Debug("persisted query registered", log.Uint64("signature", sig))
}

// Deregister removes a query from the registry. Terminal: the query's result
// and delta sets are released by Query.Destroy.
func (m *IndexManager) Deregister(q *Query) {
	sig := q.Signature()
	list := m.queries[sig]
	for i, cand := range list {
		if cand == q {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(m.queries, sig)
	} else {
		m.queries[sig] = list
	}
}

// QueryCount returns the number of registered persisted queries.
func (m *IndexManager) QueryCount() int {
	n := 0
	for _, list := range m.queries {
		n += len(list)
	}
	return n
}

// Process runs one maintenance pass: every persisted query re-checks
// membership for each dirty entity. The first pass after registration
// performs a full evaluation instead, moving the query from Registered to
// Materialized. Delta sets are reset at the start of each pass; they hold
// only that pass's changes.
func (m *IndexManager) Process(dirty EntitySet) {
	for _, list := range m.queries {
		for _, q := range list {
			m.maintain(q, dirty)
		}
	}
	if len(dirty) > 0 || m.QueryCount() > 0 {
		m.log.Debug("maintenance pass",
			log.Int("dirty", len(dirty)),
			log.Int("queries", m.QueryCount()),
		)
	}
}

func (m *IndexManager) maintain(q *Query, dirty EntitySet) {
	if q.trackAdded {
		q.added = make(EntitySet)
	}
	if q.trackRemoved {
		q.removed = make(EntitySet)
	}
	if !q.executed {
		q.results = q.evaluate()
		q.executed = true
		if q.trackAdded {
			for id := range q.results {
				q.added.Add(id)
			}
		}
		return
	}
	for id := range dirty {
		match := q.matches(id)
		in := q.results.Has(id)
		switch {
		case match && !in:
			q.results.Add(id)
			if q.trackAdded {
				q.added.Add(id)
			}
		case !match && in:
			q.results.Remove(id)
			if q.trackRemoved {
				q.removed.Add(id)
			}
		}
	}
}
