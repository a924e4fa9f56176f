// Package execution holds the per-thread event sequences an exploration
// builds up (Execution), the maximal-event snapshot used to restart one
// (Frontier), and the per-event dependency/unblock sets a checker compiles
// from a relation (Covering).
package execution

import (
	"sort"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

// Execution is the thread-partitioned, position-sorted event list an
// exploration has built so far.
type Execution struct {
	threads map[event.ThreadID][]*event.Event
	arena   event.Arena
}

// New returns an empty execution backed by arena for ancestor queries.
func New(arena event.Arena) *Execution {
	return &Execution{threads: make(map[event.ThreadID][]*event.Event), arena: arena}
}

// Append records e as the new last event on its thread. Callers must
// append in increasing ThreadPosition order.
func (x *Execution) Append(e *event.Event) {
	x.threads[e.ThreadID] = append(x.threads[e.ThreadID], e)
}

// Get returns the event at (tid, pos), or (nil, false) if none exists.
func (x *Execution) Get(tid event.ThreadID, pos int) (*event.Event, bool) {
	events := x.threads[tid]
	if pos < 0 || pos >= len(events) {
		return nil, false
	}
	return events[pos], true
}

// NextEvent returns the event immediately following e on its thread.
func (x *Execution) NextEvent(e *event.Event) (*event.Event, bool) {
	return x.Get(e.ThreadID, e.ThreadPosition+1)
}

// LastEvent returns the most recent event appended on tid.
func (x *Execution) LastEvent(tid event.ThreadID) (*event.Event, bool) {
	events := x.threads[tid]
	if len(events) == 0 {
		return nil, false
	}
	return events[len(events)-1], true
}

// Threads returns the set of thread IDs with at least one event, sorted
// for deterministic iteration.
func (x *Execution) Threads() []event.ThreadID {
	out := make([]event.ThreadID, 0, len(x.threads))
	for tid := range x.threads {
		out = append(out, tid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Events returns every event across every thread, in thread order then
// position order (not global EventID order).
func (x *Execution) Events() []*event.Event {
	var out []*event.Event
	for _, tid := range x.Threads() {
		out = append(out, x.threads[tid]...)
	}
	return out
}

// Locations returns the set of distinct memory locations touched by any
// location-bearing label in the execution.
func (x *Execution) Locations() []event.Location {
	seen := make(map[event.Location]bool)
	var out []event.Location
	for _, e := range x.Events() {
		loc, ok := e.Label.(event.Locationer)
		if !ok {
			continue
		}
		l := loc.Location()
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// IsBlockedDanglingRequest reports whether e is a trailing request on its
// thread with no matching response — the thread is stuck waiting.
func (x *Execution) IsBlockedDanglingRequest(e *event.Event) bool {
	if !e.Label.IsRequest() {
		return false
	}
	_, hasNext := x.NextEvent(e)
	return !hasNext
}

// EventByID implements event.Arena by delegating to the backing arena.
func (x *Execution) EventByID(id event.EventID) (*event.Event, bool) {
	return x.arena.EventByID(id)
}

// Frontier is the maximal event per thread, the minimal state needed to
// resume or reconstruct an execution.
type Frontier struct {
	heads map[event.ThreadID]*event.Event
	arena event.Arena
}

// NewFrontier returns an empty frontier backed by arena.
func NewFrontier(arena event.Arena) *Frontier {
	return &Frontier{heads: make(map[event.ThreadID]*event.Event), arena: arena}
}

// Advance records e as tid's new maximal event.
func (f *Frontier) Advance(e *event.Event) {
	f.heads[e.ThreadID] = e
}

// Head returns tid's maximal event, if any.
func (f *Frontier) Head(tid event.ThreadID) (*event.Event, bool) {
	e, ok := f.heads[tid]
	return e, ok
}

// Snapshot freezes the frontier into the flat map event.Event stores at
// construction time.
func (f *Frontier) Snapshot() event.FrontierSnapshot {
	snap := make(event.FrontierSnapshot, len(f.heads))
	for tid, e := range f.heads {
		snap[tid] = e.ID
	}
	return snap
}

// ToExecution reconstructs an Execution by walking each head's parent
// chain back to its thread root and replaying forward. This is the
// round-trip property every frontier snapshot must satisfy.
func (f *Frontier) ToExecution() *Execution {
	x := New(f.arena)
	for tid, head := range f.heads {
		chain := []*event.Event{head}
		cur := head
		for cur.HasParent {
			parent, ok := f.arena.EventByID(cur.Parent)
			if !ok {
				break
			}
			chain = append(chain, parent)
			cur = parent
		}
		for i := len(chain) - 1; i >= 0; i-- {
			x.threads[tid] = append(x.threads[tid], chain[i])
		}
	}
	return x
}

// FromSnapshot rebuilds a Frontier from a frozen snapshot and an arena
// able to resolve its EventIDs.
func FromSnapshot(arena event.Arena, snap event.FrontierSnapshot) *Frontier {
	f := NewFrontier(arena)
	for tid, id := range snap {
		if e, ok := arena.EventByID(id); ok {
			f.heads[tid] = e
		}
	}
	return f
}
