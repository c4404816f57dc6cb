// Package delta tracks the last observed price per asset and classifies
// each new observation relative to it.
package delta

import "github.com/novacrypto/nova/internal/model"

type entry struct {
	price    float64
	lastSeen uint64
}

// Tracker remembers the last price seen for each asset id.
// It is not safe for concurrent use; the pipeline serializes access.
type Tracker struct {
	prev       map[string]entry
	cycle      uint64
	pruneAfter int
}

// NewTracker creates a tracker. Entries not classified for pruneAfter
// consecutive cycles are evicted by EndCycle; 0 disables pruning.
func NewTracker(pruneAfter int) *Tracker {
	if pruneAfter < 0 {
		pruneAfter = 0
	}
	return &Tracker{
		prev:       make(map[string]entry),
		pruneAfter: pruneAfter,
	}
}

// Classify compares price against the previous value for id and then
// records price as the new previous value.
func (t *Tracker) Classify(id string, price float64) model.Direction {
	old, ok := t.prev[id]
	t.prev[id] = entry{price: price, lastSeen: t.cycle}
	if !ok {
		return model.DirectionUnknown
	}
	switch {
	case price > old.price:
		return model.DirectionUp
	case price < old.price:
		return model.DirectionDown
	default:
		return model.DirectionUnchanged
	}
}

// Previous returns the last recorded price for id without modifying state.
func (t *Tracker) Previous(id string) (float64, bool) {
	e, ok := t.prev[id]
	return e.price, ok
}

// EndCycle closes the current refresh cycle and evicts stale entries.
// It returns the number of evicted entries.
func (t *Tracker) EndCycle() int {
	t.cycle++
	if t.pruneAfter == 0 {
		return 0
	}
	evicted := 0
	for id, e := range t.prev {
		if t.cycle-e.lastSeen > uint64(t.pruneAfter) {
			delete(t.prev, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked assets.
func (t *Tracker) Len() int {
	return len(t.prev)
}

// Reset forgets every tracked price.
func (t *Tracker) Reset() {
	clear(t.prev)
}
