package ecs

// SystemFunc is one scheduled unit of work. It runs synchronously at the tick
// it was given; the world runs a maintenance pass after it returns.
type SystemFunc func(s *System, tick Tick)

// System is a named scheduled unit of work registered on a world. It is the
// only scope allowed to persist queries: persistence needs a stable
// re-evaluation trigger, which the per-system maintenance pass provides.
type System struct {
	name    string
	world   *World
	fn      SystemFunc
	queries []*Query
}

func (s *System) Name() string  { return s.name }
func (s *System) World() *World { return s.world }

// CreateQuery builds a system-scoped query from an optional init spec.
// System-scoped queries may call Persist.
func (s *System) CreateQuery(init ...QueryInit) (*Query, error) {
	q, err := s.world.buildQuery(s, init...)
	if err != nil {
		return nil, err
	}
	s.queries = append(s.queries, q)
	return q, nil
}

// Destroy deregisters the system from its world and destroys every query it
// created, dropping persisted ones from the index manager.
func (s *System) Destroy() {
	for _, q := range s.queries {
		q.Destroy()
	}
	s.queries = nil
	s.world.removeSystem(s)
}
