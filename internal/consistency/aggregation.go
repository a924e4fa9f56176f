package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/internal/syncalg"
)

// AggregationChecker is a full-only checker: it groups each thread's event
// sequence into HyperEvents and flags a request left as a lone HyperAtomic
// with more events still following it on the same thread. A trailing
// ungrouped request is an ordinary blocked call (execution.
// IsBlockedDanglingRequest's case); one stranded mid-thread means its
// response never aggregated with it, which the synchronization algebra
// should never produce.
type AggregationChecker struct {
	algebra syncalg.AggregationAlgebra
}

// NewAggregationChecker returns a ready-to-use checker.
func NewAggregationChecker() *AggregationChecker {
	return &AggregationChecker{}
}

// CheckFull aggregates every thread's events and fails on the first
// mid-thread stranded request.
func (c *AggregationChecker) CheckFull(x *execution.Execution) Verdict {
	byThread := make(map[event.ThreadID][]*event.Event)
	for _, e := range x.Events() {
		byThread[e.ThreadID] = append(byThread[e.ThreadID], e)
	}
	for _, tid := range x.Threads() {
		events := byThread[tid]
		hypers := c.algebra.Aggregate(events)
		consumed := 0
		for _, h := range hypers {
			consumed += len(h.Members)
			if h.Kind != syncalg.HyperAtomic {
				continue
			}
			member := h.Members[0]
			if !member.Label.IsRequest() {
				continue
			}
			if consumed < len(events) {
				return Fail(AggregationViolation{Culprit: member})
			}
		}
	}
	return Ok()
}
