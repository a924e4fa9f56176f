package syncalg

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// HyperEvent groups one or more adjacent atomic events that form a single
// logical step, consumed only by the full consistency checkers (the
// incremental checkers see raw atomic events).
type HyperEvent struct {
	Kind    HyperKind
	Members []*event.Event
}

// HyperKind tags which aggregation rule produced a HyperEvent.
type HyperKind int

const (
	// HyperAtomic wraps a single event that didn't aggregate with a
	// neighbor.
	HyperAtomic HyperKind = iota
	// HyperReceive aggregates a request with its response into one
	// logical access.
	HyperReceive
	// HyperRMW aggregates an exclusive read-request, its response, and
	// the exclusive write that follows into one atomic read-modify-write.
	HyperRMW
	// HyperUnlockAndWait aggregates an unlock immediately preceding a
	// wait-request on the same mutex.
	HyperUnlockAndWait
	// HyperWakeupAndLock aggregates a wait-response immediately followed
	// by a lock-request on the same mutex.
	HyperWakeupAndLock
)

// AggregationAlgebra groups a thread-ordered event slice into HyperEvents
// by scanning adjacent pairs for one of the four coalescing rules.
type AggregationAlgebra struct{}

// Aggregate scans a program-order-adjacent slice of events (typically one
// thread's event list) and groups matching neighbors into HyperEvents. The
// three-event RMW window is tried before the two-event pair rules at each
// position, so a read-request is never coalesced away into a plain
// HyperReceive before the exclusive write that completes its RMW is seen.
func (AggregationAlgebra) Aggregate(events []*event.Event) []HyperEvent {
	var out []HyperEvent
	i := 0
	for i < len(events) {
		if i+2 < len(events) && rmwSpan(events[i], events[i+1], events[i+2]) {
			out = append(out, HyperEvent{Kind: HyperRMW, Members: []*event.Event{events[i], events[i+1], events[i+2]}})
			i += 3
			continue
		}
		if i+1 < len(events) {
			if kind, ok := pairKind(events[i], events[i+1]); ok {
				out = append(out, HyperEvent{Kind: kind, Members: []*event.Event{events[i], events[i+1]}})
				i += 2
				continue
			}
		}
		out = append(out, HyperEvent{Kind: HyperAtomic, Members: []*event.Event{events[i]}})
		i++
	}
	return out
}

// rmwSpan reports whether three adjacent events are an exclusive
// read-request, its exclusive response, and the exclusive write that
// consumes it, all at the same location.
func rmwSpan(a, b, c *event.Event) bool {
	ar, ok := a.Label.(event.Read)
	if !ok || ar.Phase != event.Request || !ar.Exclusive {
		return false
	}
	br, ok := b.Label.(event.Read)
	if !ok || br.Phase != event.Response || !br.Exclusive {
		return false
	}
	w, ok := c.Label.(event.Write)
	if !ok || !w.Exclusive {
		return false
	}
	return event.SameLocation(ar, br) && event.SameLocation(br, w)
}

func pairKind(a, b *event.Event) (HyperKind, bool) {
	switch al := a.Label.(type) {
	case event.Read:
		if al.Phase == event.Request {
			if _, ok := b.Label.(event.Read); ok {
				return HyperReceive, true
			}
		}
	case event.Lock:
		if al.Phase == event.Request {
			if _, ok := b.Label.(event.Lock); ok {
				return HyperReceive, true
			}
		}
	case event.ThreadStart:
		if al.Phase == event.Request {
			if _, ok := b.Label.(event.ThreadStart); ok {
				return HyperReceive, true
			}
		}
	case event.ThreadJoin:
		if al.Phase == event.Request {
			if _, ok := b.Label.(event.ThreadJoin); ok {
				return HyperReceive, true
			}
		}
	case event.Park:
		if al.Phase == event.Request {
			if _, ok := b.Label.(event.Park); ok {
				return HyperReceive, true
			}
		}
	case event.Unlock:
		if wl, ok := b.Label.(event.Wait); ok && wl.Phase == event.Request && wl.Mutex == al.Mutex {
			return HyperUnlockAndWait, true
		}
	case event.Wait:
		if al.Phase == event.Request {
			if wl, ok := b.Label.(event.Wait); ok && wl.Phase == event.Response {
				return HyperReceive, true
			}
		}
		if al.Phase == event.Response {
			if ll, ok := b.Label.(event.Lock); ok && ll.Phase == event.Request && ll.Mutex == al.Mutex {
				return HyperWakeupAndLock, true
			}
		}
	}
	return 0, false
}

// ActorAggregator tracks actor-span bracketing per thread, assuming
// exactly one outstanding span per thread: a second ActorStart before the
// first's ActorEnd is an engine assertion failure, not an Inconsistency.
type ActorAggregator struct {
	open map[event.ThreadID]*event.Event
}

// NewActorAggregator returns an empty tracker.
func NewActorAggregator() *ActorAggregator {
	return &ActorAggregator{open: make(map[event.ThreadID]*event.Event)}
}

// Observe feeds one event into the tracker, panicking if a thread starts a
// second span before closing its first.
func (a *ActorAggregator) Observe(e *event.Event) {
	span, ok := e.Label.(event.ActorSpan)
	if !ok {
		return
	}
	switch span.Phase {
	case event.ActorStart:
		if _, exists := a.open[e.ThreadID]; exists {
			panic("syncalg: thread has two outstanding actor spans")
		}
		a.open[e.ThreadID] = e
	case event.ActorEnd:
		if _, exists := a.open[e.ThreadID]; !exists {
			panic("syncalg: actor span end without a matching start")
		}
		delete(a.open, e.ThreadID)
	}
}

// Reset clears all tracked open spans, used on backtracking.
func (a *ActorAggregator) Reset() {
	a.open = make(map[event.ThreadID]*event.Event)
}
