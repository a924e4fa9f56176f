// Package vclock provides generic partial-order and vector-clock
// primitives: the leaf layer of the event-structure engine. Nothing
// in this package knows about events, threads, or labels — it is the same
// kind of small, dependency-free primitive a vector clock is in
// sfurman3-chatroom's vector/vectorClock.go, generalized from a
// fixed-length array keyed by a 1-based process id to a sparse map keyed by
// any comparable "part" (thread ID, process ID, replica ID, ...).
package vclock

import "fmt"

// PartialOrder describes a binary relation over T with a join (Max)
// operation. Two standard instances — program order and causality order —
// live in internal/event, since they're defined in terms of Event.
type PartialOrder[T any] interface {
	LessThan(x, y T) bool
	LessOrEqual(x, y T) bool
	Max(x, y T) T
}

// VectorClock is a sparse mapping from Part to the highest timestamp
// observed for that part. The zero value is an empty, usable clock.
//
// Observes(part, ts) answers "has this clock seen at least position ts from
// part", which is exactly the causality test used to order events:
// causalityOrder(x, y) ⇔ y.causalityClock[x.threadId] ≥ x.threadPosition.
type VectorClock[Part comparable] struct {
	entries map[Part]int
}

// New returns an empty vector clock.
func New[Part comparable]() VectorClock[Part] {
	return VectorClock[Part]{entries: make(map[Part]int)}
}

// Get returns the clock's recorded timestamp for part, or 0 if unobserved.
func (c VectorClock[Part]) Get(part Part) int {
	if c.entries == nil {
		return 0
	}
	return c.entries[part]
}

// Observes reports whether this clock has observed at least position ts
// from part.
func (c VectorClock[Part]) Observes(part Part, ts int) bool {
	cur, ok := c.entries[part]
	return ok && cur >= ts
}

// Update asserts a monotone advance of part's component to ts and returns
// the updated clock (the receiver is not mutated; clocks are treated as
// immutable value types once attached to an event). It panics if ts is less
// than the clock's current value for part — no update may regress a vector
// clock component, and a regression is an engine-assertion failure, not a
// reportable inconsistency.
func (c VectorClock[Part]) Update(part Part, ts int) VectorClock[Part] {
	if cur := c.Get(part); ts < cur {
		panic(fmt.Sprintf("vclock: non-monotone update for part %v: %d < %d", part, ts, cur))
	}
	out := c.clone()
	out.entries[part] = ts
	return out
}

// Merge returns the pointwise maximum of c and other, the standard vector
// clock join used when an event's causality clock is derived from its
// parent plus its senders.
func (c VectorClock[Part]) Merge(other VectorClock[Part]) VectorClock[Part] {
	out := c.clone()
	for part, ts := range other.entries {
		if cur, ok := out.entries[part]; !ok || ts > cur {
			out.entries[part] = ts
		}
	}
	return out
}

// LessOrEqual reports whether every component of c is <= the corresponding
// component of other (the generic partial order induced by pointwise <=).
func (c VectorClock[Part]) LessOrEqual(other VectorClock[Part]) bool {
	for part, ts := range c.entries {
		if other.Get(part) < ts {
			return false
		}
	}
	return true
}

func (c VectorClock[Part]) clone() VectorClock[Part] {
	out := VectorClock[Part]{entries: make(map[Part]int, len(c.entries)+1)}
	for k, v := range c.entries {
		out.entries[k] = v
	}
	return out
}

// Len reports the number of parts with a recorded timestamp, including
// parts recorded at 0.
func (c VectorClock[Part]) Len() int { return len(c.entries) }
