// Package consistency implements the engine's memory-consistency
// checkers: atomicity, release/acquire, lock well-bracketing, and
// sequential consistency (via coherence-closure approximation plus
// linearization replay), aggregated behind a single short-circuiting
// Checker interface.
package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
)

// Status is the three-valued result a checker can report.
type Status int

const (
	Consistent Status = iota
	Inconsistent
	Unknown
)

// Verdict pairs a Status with the witnessing Inconsistency, if any.
type Verdict struct {
	Status        Status
	Inconsistency Inconsistency
}

// Ok builds a Consistent verdict.
func Ok() Verdict { return Verdict{Status: Consistent} }

// UnknownVerdict builds an Unknown verdict (e.g. the coherence search was
// bounded and exhausted without a result).
func UnknownVerdict() Verdict { return Verdict{Status: Unknown} }

// Fail builds an Inconsistent verdict carrying its witness.
func Fail(inc Inconsistency) Verdict { return Verdict{Status: Inconsistent, Inconsistency: inc} }

// Checker is the common surface both incremental and full checkers
// satisfy: a way to check a whole execution from scratch.
type Checker interface {
	CheckFull(x *execution.Execution) Verdict
}

// IncrementalChecker additionally supports checking just the newest
// event against its own private view, and resetting that view when the
// driver backtracks.
type IncrementalChecker interface {
	Checker
	Check(e *event.Event) Verdict
	Reset(x *execution.Execution)
}
