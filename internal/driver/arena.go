package driver

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// arena is the engine's flat, EventID-indexed event store. Every event ever
// constructed during a run lives here, including synchronization candidates
// that lost the response election and sit unvisited for a later backtrack
// to pick up.
type arena struct {
	events []*event.Event
	byID   map[event.EventID]*event.Event
}

func newArena() *arena {
	return &arena{byID: make(map[event.EventID]*event.Event)}
}

func (a *arena) EventByID(id event.EventID) (*event.Event, bool) {
	e, ok := a.byID[id]
	return e, ok
}

func (a *arena) append(e *event.Event) {
	a.events = append(a.events, e)
	a.byID[e.ID] = e
}

// truncateAfter discards every event with ID strictly greater than keep.ID,
// the arena-side half of backtracking to a candidate that lost an earlier
// election.
func (a *arena) truncateAfter(keep event.EventID) {
	cut := len(a.events)
	for i, e := range a.events {
		if e.ID > keep {
			cut = i
			break
		}
	}
	for _, e := range a.events[cut:] {
		delete(a.byID, e.ID)
	}
	a.events = a.events[:cut]
}

// latestUnvisited scans for the highest-EventID event that has not yet been
// marked Visited — the next backtracking target. Visited here means "every
// alternative branch rooted at this event's election point has already
// been explored or this event was itself already elected once".
func (a *arena) latestUnvisited() (*event.Event, bool) {
	for i := len(a.events) - 1; i >= 0; i-- {
		if !a.events[i].Visited {
			return a.events[i], true
		}
	}
	return nil, false
}
