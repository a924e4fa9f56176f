package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
)

// readsFrom returns the write event a read response e synchronized with,
// found among e's recorded Dependencies by matching location. A read served
// by the Initialization or an ObjectAllocation event is not resolved, since
// those labels carry no Location.
func readsFrom(arena event.Arena, e *event.Event) (*event.Event, bool) {
	loc, ok := locationOf(e.Label)
	if !ok {
		return nil, false
	}
	for _, depID := range e.Dependencies {
		dep, ok := arena.EventByID(depID)
		if !ok {
			continue
		}
		depLoc, ok := locationOf(dep.Label)
		if ok && depLoc == loc {
			return dep, true
		}
	}
	return nil, false
}

func locationOf(l event.Label) (event.Location, bool) {
	if loc, ok := l.(event.Locationer); ok {
		return loc.Location(), true
	}
	return event.Location{}, false
}

// exclusiveWriteSource returns the write w's reads-from source: the
// program-order-preceding exclusive read response's own reads-from event,
// which is the value w's read-modify-write observed before overwriting
// it.
func exclusiveWriteSource(arena event.Arena, w *event.Event) (*event.Event, bool) {
	if !w.HasParent {
		return nil, false
	}
	parent, ok := arena.EventByID(w.Parent)
	if !ok {
		return nil, false
	}
	read, ok := parent.Label.(event.Read)
	if !ok || !read.Exclusive || read.Phase != event.Response {
		return nil, false
	}
	return readsFrom(arena, parent)
}

// AtomicityChecker is the incremental checker: for every new exclusive
// write, it verifies no earlier exclusive write shares the same
// reads-from source.
type AtomicityChecker struct {
	arena      event.Arena
	bySource   map[event.EventID]*event.Event // reads-from source -> the one exclusive write that claimed it
}

// NewAtomicityChecker returns a checker that resolves dependency IDs
// through arena.
func NewAtomicityChecker(arena event.Arena) *AtomicityChecker {
	return &AtomicityChecker{arena: arena, bySource: make(map[event.EventID]*event.Event)}
}

// Check inspects the newest event, flagging an atomicity violation if it
// is an exclusive write whose reads-from source was already claimed by an
// earlier exclusive write.
func (c *AtomicityChecker) Check(e *event.Event) Verdict {
	w, ok := e.Label.(event.Write)
	if !ok || !w.Exclusive {
		return Ok()
	}
	source, ok := exclusiveWriteSource(c.arena, e)
	if !ok {
		return Ok()
	}
	if prior, claimed := c.bySource[source.ID]; claimed && prior.ID != e.ID {
		return Fail(AtomicityViolation{W1: prior, W2: e})
	}
	c.bySource[source.ID] = e
	return Ok()
}

// CheckFull re-derives the incremental state from scratch over every
// exclusive write in the execution, in case the incremental view was
// invalidated by backtracking.
func (c *AtomicityChecker) CheckFull(x *execution.Execution) Verdict {
	c.Reset(x)
	for _, e := range x.Events() {
		if v := c.Check(e); v.Status != Consistent {
			return v
		}
	}
	return Ok()
}

// Reset discards the checker's private view.
func (c *AtomicityChecker) Reset(x *execution.Execution) {
	c.bySource = make(map[event.EventID]*event.Event)
}
