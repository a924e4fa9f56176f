package consistency

import (
	"sort"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/internal/options"
	"github.com/GoCodeAlone/lincheck-go/pkg/relation"
)

// SequentialConsistencyChecker is the full, two-stage checker. Stage one
// saturates causalityOrder with the coherence closure (a read and the write
// it reads-from move in lockstep relative to every other same-location
// write) and rejects outright if that is already cyclic. Stage two
// enumerates linear extensions of each location's remaining write order,
// closes the combined relation, and replays the resulting total order
// through an abstract machine tracking last-writer-per-location and mutex
// ownership.
type SequentialConsistencyChecker struct {
	arena  event.Arena
	config options.Config

	// lastOrder is the total order replayCandidate last found consistent,
	// used by IncrementalSequentialConsistencyChecker to install a running
	// candidate once a full check succeeds. Search stops at the first
	// consistent candidate (see tryLocation's done short-circuit), so
	// exactly one replayCandidate call per successful CheckFull ever writes
	// it.
	lastOrder []*event.Event
}

// NewSequentialConsistencyChecker returns a checker bounded by
// config.MaxLinearizations.
func NewSequentialConsistencyChecker(arena event.Arena, config options.Config) *SequentialConsistencyChecker {
	return &SequentialConsistencyChecker{arena: arena, config: config.WithDefaults()}
}

// CheckFull runs both stages over the whole execution.
func (c *SequentialConsistencyChecker) CheckFull(x *execution.Execution) Verdict {
	nodes := orderedByID(x)
	if len(nodes) == 0 {
		return Ok()
	}

	enum := relation.NewEnumerator(nodes)
	m := relation.New(enum)

	causality := event.CausalityOrder{}
	byLocation := make(map[event.Location][]*event.Event)
	readsFromOf := make(map[event.EventID]*event.Event)
	for _, e := range nodes {
		if loc, ok := locationOf(e.Label); ok {
			if _, isWrite := e.Label.(event.Write); isWrite {
				byLocation[loc] = append(byLocation[loc], e)
			}
			if src, ok := readsFrom(c.arena, e); ok {
				readsFromOf[e.ID] = src
			}
		}
	}

	for _, e := range nodes {
		for _, o := range nodes {
			if e.ID != o.ID && causality.LessThan(e, o) {
				m.Set(e, o, true)
			}
		}
	}

	sameLocationWrite := func(a, b *event.Event) bool {
		if _, ok := a.Label.(event.Write); !ok {
			return false
		}
		if _, ok := b.Label.(event.Write); !ok {
			return false
		}
		la, oka := locationOf(a.Label)
		lb, okb := locationOf(b.Label)
		return oka && okb && la == lb
	}

	// r reads-from w': every other same-location write w already ordered
	// before r pulls w' after it too, and every w already ordered after w'
	// pulls r before it too.
	forwardRule := func(xi, yi, zi int) bool {
		w, r, wp := enum.FromIndex(xi), enum.FromIndex(yi), enum.FromIndex(zi)
		if w.ID == wp.ID || !sameLocationWrite(w, wp) {
			return false
		}
		src, ok := readsFromOf[r.ID]
		if !ok || src.ID != wp.ID {
			return false
		}
		return m.Get(w, r)
	}
	backwardRule := func(xi, yi, zi int) bool {
		r, wp, w := enum.FromIndex(xi), enum.FromIndex(yi), enum.FromIndex(zi)
		if w.ID == wp.ID || !sameLocationWrite(w, wp) {
			return false
		}
		src, ok := readsFromOf[r.ID]
		if !ok || src.ID != wp.ID {
			return false
		}
		return m.Get(wp, w)
	}

	for {
		changed := m.TransitiveClosure()
		if m.SaturateRule(forwardRule) {
			changed = true
		}
		if m.SaturateRule(backwardRule) {
			changed = true
		}
		if !changed {
			break
		}
	}
	if !m.Irreflexive() {
		return Fail(SequentialConsistencyApproximationInconsistency{})
	}

	locs := make([]event.Location, 0, len(byLocation))
	for loc := range byLocation {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Object != locs[j].Object {
			return locs[i].Object < locs[j].Object
		}
		return locs[i].Offset < locs[j].Offset
	})

	budget := c.config.MaxLinearizations
	attempted := 0
	sawCandidate := false

	var tryLocation func(i int, base *relation.Matrix[*event.Event]) (Verdict, bool)
	tryLocation = func(i int, base *relation.Matrix[*event.Event]) (Verdict, bool) {
		if i == len(locs) {
			sawCandidate = true
			attempted++
			return c.replayCandidate(nodes, base), true
		}
		writes := byLocation[locs[i]]
		if len(writes) < 2 {
			return tryLocation(i+1, base)
		}
		sub := relation.New(relation.NewEnumerator(writes))
		for _, a := range writes {
			for _, b := range writes {
				if a.ID != b.ID && m.Get(a, b) {
					sub.Set(a, b, true)
				}
			}
		}
		adj := sub.AsGraph()

		var result Verdict
		var done bool
		stop := false
		adj.AllLinearizations(func(order []int) bool {
			if budget > 0 && attempted >= budget {
				stop = true
				return false
			}
			candidate := relation.New(enum)
			cloneInto(candidate, base, nodes)
			writeOrder := make([]*event.Event, len(order))
			for idx, wi := range order {
				writeOrder[idx] = sub.Enumerator().FromIndex(wi)
			}
			candidate.AddTotalOrdering(writeOrder)

			v, complete := tryLocation(i+1, candidate)
			if complete && v.Status == Consistent {
				result, done = v, true
				return false
			}
			if complete && v.Status == Inconsistent {
				result = v
			}
			return true
		})
		if done {
			return result, true
		}
		if stop {
			return Verdict{}, false
		}
		return result, attempted > 0
	}

	verdict, complete := tryLocation(0, m)
	if complete && verdict.Status == Consistent {
		return verdict
	}
	if !sawCandidate {
		return Ok()
	}
	if complete && verdict.Status == Inconsistent {
		return verdict
	}
	return UnknownVerdict()
}

// cloneInto copies every set edge from src into dst over the same node set,
// used to branch a candidate relation per enumerated linear extension
// without disturbing earlier branches.
func cloneInto(dst, src *relation.Matrix[*event.Event], nodes []*event.Event) {
	for _, a := range nodes {
		for _, b := range nodes {
			if a.ID != b.ID && src.Get(a, b) {
				dst.Set(a, b, true)
			}
		}
	}
}

// replayCandidate closes a fully location-ordered candidate relation,
// rejects it if cyclic, topologically sorts it, and replays the resulting
// total order through the reads-see-last-writer and mutex-ownership checks.
func (c *SequentialConsistencyChecker) replayCandidate(nodes []*event.Event, m *relation.Matrix[*event.Event]) Verdict {
	m.TransitiveClosure()
	if !m.Irreflexive() {
		return Fail(CoherenceViolation{})
	}
	order, ok := m.AsGraph().TopoSort()
	if !ok {
		return Fail(CoherenceViolation{})
	}

	enum := m.Enumerator()
	ordered := make([]*event.Event, len(order))
	for i, idx := range order {
		ordered[i] = enum.FromIndex(idx)
	}

	lastWriter := make(map[event.Location]*event.Event)
	for _, e := range ordered {
		loc, ok := locationOf(e.Label)
		if !ok {
			continue
		}
		if _, isWrite := e.Label.(event.Write); isWrite {
			lastWriter[loc] = e
			continue
		}
		src, ok := readsFrom(c.arena, e)
		if !ok {
			continue
		}
		if want := lastWriter[loc]; want != nil && want.ID != src.ID {
			return Fail(SequentialConsistencyReplayViolation{Culprit: e})
		}
	}

	if culprit, mutex, ok := replayMutexes(ordered); !ok {
		_ = mutex
		return Fail(SequentialConsistencyReplayViolation{Culprit: culprit})
	}
	c.lastOrder = ordered
	return Ok()
}

// IncrementalSequentialConsistencyChecker wraps the full checker behind the
// incremental interface. Sequential consistency has no cheap per-event
// update in general — deciding it needs the whole execution's relation —
// but it does have a cheap per-event *extension* check: once a full check
// has installed a running candidate total order, most new events simply
// append to the end of it without disturbing anything already replayed.
// Check reports Consistent for those and only falls back to Unknown (and
// invalidates the candidate) when an event can't be shown to extend it,
// deferring the real verdict to the driver's periodic CheckFull sweep
// (internal/options.Config.FullCheckEveryNEvents).
type IncrementalSequentialConsistencyChecker struct {
	full *SequentialConsistencyChecker

	// candidate is the running total order a prior CheckFull installed, or
	// nil if none is live (either never run, or invalidated by an event
	// that didn't extend it).
	candidate  []*event.Event
	lastWriter map[event.Location]*event.Event
}

// NewIncrementalSequentialConsistencyChecker adapts a
// SequentialConsistencyChecker to IncrementalChecker.
func NewIncrementalSequentialConsistencyChecker(arena event.Arena, config options.Config) *IncrementalSequentialConsistencyChecker {
	return &IncrementalSequentialConsistencyChecker{full: NewSequentialConsistencyChecker(arena, config)}
}

// Check reports whether e can be appended to the running candidate order
// without disturbing it: a read response must see the candidate's current
// last writer for its location (read-response-validity); anything else —
// including every write, which simply becomes the new last writer — always
// extends. No running candidate (nil) always defers to Unknown.
func (c *IncrementalSequentialConsistencyChecker) Check(e *event.Event) Verdict {
	if c.candidate == nil {
		return UnknownVerdict()
	}

	loc, hasLoc := locationOf(e.Label)
	if r, ok := e.Label.(event.Read); ok && hasLoc && r.Phase != event.Request {
		src, ok := readsFrom(c.full.arena, e)
		if ok {
			if want := c.lastWriter[loc]; want != nil && want.ID != src.ID {
				c.invalidate()
				return UnknownVerdict()
			}
		}
	}
	c.candidate = append(c.candidate, e)
	if _, isWrite := e.Label.(event.Write); isWrite && hasLoc {
		c.lastWriter[loc] = e
	}
	return Ok()
}

// CheckFull delegates to the wrapped full checker and, on success, installs
// its winning total order as the new running candidate.
func (c *IncrementalSequentialConsistencyChecker) CheckFull(x *execution.Execution) Verdict {
	v := c.full.CheckFull(x)
	if v.Status == Consistent {
		c.installCandidate(c.full.lastOrder)
	}
	return v
}

func (c *IncrementalSequentialConsistencyChecker) installCandidate(order []*event.Event) {
	c.candidate = append([]*event.Event(nil), order...)
	c.lastWriter = make(map[event.Location]*event.Event)
	for _, e := range order {
		if loc, ok := locationOf(e.Label); ok {
			if _, isWrite := e.Label.(event.Write); isWrite {
				c.lastWriter[loc] = e
			}
		}
	}
}

func (c *IncrementalSequentialConsistencyChecker) invalidate() {
	c.candidate = nil
	c.lastWriter = nil
}

// Reset drops the running candidate: after a backtrack the retained prefix
// may not match the order that last installed it, so the next CheckFull
// sweep must re-derive one before Check can extend it again.
func (c *IncrementalSequentialConsistencyChecker) Reset(x *execution.Execution) {
	c.invalidate()
}
