package event

import "github.com/GoCodeAlone/lincheck-go/pkg/vclock"

// ProgramOrder implements programOrder: x < y iff x and y are on the same
// thread and x is some predecessor of y in the parent chain.
type ProgramOrder struct{ Arena Arena }

// LessThan reports whether x strictly precedes y in program order.
func (p ProgramOrder) LessThan(x, y *Event) bool {
	if x.ThreadID != y.ThreadID || x.ThreadPosition >= y.ThreadPosition {
		return false
	}
	anc, ok := PredNth(p.Arena, y, y.ThreadPosition-x.ThreadPosition)
	return ok && anc.ID == x.ID
}

// LessOrEqual reports x == y or x < y in program order.
func (p ProgramOrder) LessOrEqual(x, y *Event) bool {
	return x.ID == y.ID || p.LessThan(x, y)
}

// Max returns whichever of x, y is program-order-greater; panics if
// incomparable (callers are expected to only call Max on same-thread
// events, as the frontier/covering machinery does).
func (p ProgramOrder) Max(x, y *Event) *Event {
	if x.ID == y.ID {
		return x
	}
	if p.LessThan(x, y) {
		return y
	}
	if p.LessThan(y, x) {
		return x
	}
	panic("event: ProgramOrder.Max called on incomparable events")
}

// CausalityOrder implements causalityOrder: x <= y iff
// y.causalityClock[x.threadId] >= x.threadPosition.
type CausalityOrder struct{}

// LessOrEqual reports whether x causally precedes or equals y.
func (CausalityOrder) LessOrEqual(x, y *Event) bool {
	return y.CausalityClock.Observes(x.ThreadID, x.ThreadPosition)
}

// LessThan reports strict causal precedence: x <= y and x != y.
func (c CausalityOrder) LessThan(x, y *Event) bool {
	return x.ID != y.ID && c.LessOrEqual(x, y)
}

// Max returns the causally-later of x, y if comparable; for incomparable
// (concurrent) events there is no meaningful causality max, so Max is only
// valid when one actually observes the other — callers that need a join
// over vector clocks should use vclock.VectorClock.Merge directly instead.
func (c CausalityOrder) Max(x, y *Event) *Event {
	if c.LessOrEqual(x, y) {
		return y
	}
	if c.LessOrEqual(y, x) {
		return x
	}
	panic("event: CausalityOrder.Max called on concurrent events")
}

// DerivedClock computes the causality clock for a new event from its
// parent's clock (if any) plus its senders' clocks. The event's own
// (threadId, threadPosition) is also recorded so later events can test
// causality against it.
func DerivedClock(parentClock *vclock.VectorClock[ThreadID], tid ThreadID, pos int, senders ...vclock.VectorClock[ThreadID]) vclock.VectorClock[ThreadID] {
	clock := vclock.New[ThreadID]()
	if parentClock != nil {
		clock = clock.Merge(*parentClock)
	}
	for _, s := range senders {
		clock = clock.Merge(s)
	}
	return clock.Update(tid, pos)
}
