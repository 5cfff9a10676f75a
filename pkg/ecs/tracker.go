package ecs

// Tracker owns the world's logical tick counter. The counter is monotonic and
// advances only at synchronization points; structural and value change stamps
// are taken from the current tick at mutation time.
//
// Stamps are used solely for optional result filtering on Query.Execute; index
// correctness never depends on them.
type Tracker struct {
	current Tick
}

func NewTracker() *Tracker { return &Tracker{current: 1} }

// Current returns the tick mutations are currently stamped with.
func (t *Tracker) Current() Tick { return t.current }

// Advance moves the clock to the next tick and returns it.
func (t *Tracker) Advance() Tick {
	t.current++
	return t.current
}
