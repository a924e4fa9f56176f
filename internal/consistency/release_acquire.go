package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/pkg/relation"
)

// ReleaseAcquireChecker is a full checker: it builds the writes-before
// relation over every write in the execution and verifies it is
// acyclic. writesBefore(w1, w2) holds when w1 causally precedes w2 at the
// same location, or some read observed w1 and itself causally precedes
// w2 — the read-from-then-overwrite chain release/acquire forbids
// cycling through.
type ReleaseAcquireChecker struct {
	arena event.Arena
}

// NewReleaseAcquireChecker returns a checker resolving dependencies
// through arena.
func NewReleaseAcquireChecker(arena event.Arena) *ReleaseAcquireChecker {
	return &ReleaseAcquireChecker{arena: arena}
}

// CheckFull builds writesBefore over x and reports whether it is
// acyclic.
func (c *ReleaseAcquireChecker) CheckFull(x *execution.Execution) Verdict {
	nodes := x.Events()
	if len(nodes) == 0 {
		return Ok()
	}
	enum := relation.NewEnumerator(nodes)
	m := relation.New(enum)

	causality := event.CausalityOrder{}
	byLocation := make(map[event.Location][]*event.Event)
	for _, e := range nodes {
		if _, ok := e.Label.(event.Write); ok {
			loc, _ := locationOf(e.Label)
			byLocation[loc] = append(byLocation[loc], e)
		}
	}

	for _, e := range nodes {
		loc, ok := locationOf(e.Label)
		if !ok {
			continue
		}
		source, ok := readsFrom(c.arena, e)
		if !ok {
			continue
		}
		for _, w := range byLocation[loc] {
			if w.ID == source.ID {
				continue
			}
			if causality.LessOrEqual(source, w) {
				continue
			}
			if causality.LessOrEqual(e, w) {
				m.Set(source, w, true)
			}
		}
	}
	for loc, writes := range byLocation {
		_ = loc
		for _, w1 := range writes {
			for _, w2 := range writes {
				if w1.ID != w2.ID && causality.LessThan(w1, w2) {
					m.Set(w1, w2, true)
				}
			}
		}
	}

	m.TransitiveClosure()
	if !m.Irreflexive() {
		return Fail(ReleaseAcquireInconsistency{})
	}
	return Ok()
}

// Check has no cheaper per-event update than rebuilding writesBefore, so it
// defers to Unknown; the driver's periodic CheckFull sweep is what actually
// decides this checker.
func (c *ReleaseAcquireChecker) Check(e *event.Event) Verdict { return UnknownVerdict() }

// Reset is a no-op: the checker carries no incremental state between calls.
func (c *ReleaseAcquireChecker) Reset(x *execution.Execution) {}
