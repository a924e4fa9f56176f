package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
)

// AggregateChecker runs a fixed, ordered list of checkers and returns the
// first encountered inconsistency, short-circuiting the rest. A checker
// returning Unknown does not stop the chain — only Inconsistent does — since
// Unknown just means that checker has nothing to say about the event yet,
// not that it found a problem. Order matters: cheaper incremental checkers
// (atomicity) are expected first, the expensive coherence search last.
type AggregateChecker struct {
	checkers []IncrementalChecker
}

// NewAggregateChecker returns a checker running checkers in order.
func NewAggregateChecker(checkers ...IncrementalChecker) *AggregateChecker {
	return &AggregateChecker{checkers: checkers}
}

// Check runs every wrapped checker's Check against e, stopping at the first
// Inconsistent verdict.
func (a *AggregateChecker) Check(e *event.Event) Verdict {
	for _, c := range a.checkers {
		if v := c.Check(e); v.Status == Inconsistent {
			return v
		}
	}
	return Ok()
}

// CheckFull runs every wrapped checker's CheckFull against x, stopping at
// the first Inconsistent verdict.
func (a *AggregateChecker) CheckFull(x *execution.Execution) Verdict {
	for _, c := range a.checkers {
		if v := c.CheckFull(x); v.Status == Inconsistent {
			return v
		}
	}
	return Ok()
}

// Reset resets every wrapped checker's private state.
func (a *AggregateChecker) Reset(x *execution.Execution) {
	for _, c := range a.checkers {
		c.Reset(x)
	}
}
