package execution

import (
	"sort"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

// RelationProbe answers whether x relates to y under some fixed relation
// (e.g. pkg/relation.Matrix.Get, or event.CausalityOrder.LessOrEqual),
// abstracted so Covering doesn't depend on a concrete relation type.
type RelationProbe func(x, y *event.Event) bool

// Covering maps each event to the set of events it directly depends on
// (backward covering) or directly unblocks (forward covering) under a
// given relation.
type Covering struct {
	backward map[event.EventID][]*event.Event
	forward  map[event.EventID][]*event.Event
}

// BuildCovering computes, per thread, the first/last position crossing
// the relation for each event on every other thread, using binary search
// when respectsProgramOrder holds (the relation only grows monotonically
// along each thread's positions) and a linear scan otherwise.
func BuildCovering(x *Execution, related RelationProbe, respectsProgramOrder bool) *Covering {
	c := &Covering{
		backward: make(map[event.EventID][]*event.Event),
		forward:  make(map[event.EventID][]*event.Event),
	}

	threads := x.Threads()
	perThread := make(map[event.ThreadID][]*event.Event, len(threads))
	for _, tid := range threads {
		perThread[tid] = x.threads[tid]
	}

	for _, tid := range threads {
		for _, e := range perThread[tid] {
			for _, otherTid := range threads {
				if otherTid == tid {
					continue
				}
				others := perThread[otherTid]
				var idx int
				if respectsProgramOrder {
					// related(others[i], e) holds for a prefix [0,k) and
					// fails afterward; sort.Search needs a false→true
					// predicate, so search on its negation and step back.
					idx = sort.Search(len(others), func(i int) bool {
						return !related(others[i], e)
					})
					idx--
				} else {
					idx = -1
					for i, o := range others {
						if related(o, e) {
							idx = i
						}
					}
				}
				if idx >= 0 && idx < len(others) {
					dep := others[idx]
					c.backward[e.ID] = append(c.backward[e.ID], dep)
					c.forward[dep.ID] = append(c.forward[dep.ID], e)
				}
			}
		}
	}
	return c
}

// Depends returns the events e directly depends on (backward covering).
func (c *Covering) Depends(e *event.Event) []*event.Event {
	return c.backward[e.ID]
}

// Unblocks returns the events that directly depend on e (forward
// covering).
func (c *Covering) Unblocks(e *event.Event) []*event.Event {
	return c.forward[e.ID]
}
