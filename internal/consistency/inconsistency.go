package consistency

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// Inconsistency is the closed tagged union of invariant violations a
// checker can witness in the program under test. Unlike engine assertion
// failures, these are data: the driver records them in statistics and
// moves on to the next exploration branch.
type Inconsistency interface {
	isInconsistency()
	Reason() string
}

type base struct{}

func (base) isInconsistency() {}

// AtomicityViolation witnesses two exclusive writes sharing the same
// reads-from source.
type AtomicityViolation struct {
	base
	W1, W2 *event.Event
}

func (AtomicityViolation) Reason() string { return "atomicity violation" }

// ReleaseAcquireInconsistency witnesses a writes-before cycle.
type ReleaseAcquireInconsistency struct {
	base
	Cycle []*event.Event
}

func (ReleaseAcquireInconsistency) Reason() string { return "release/acquire inconsistency" }

// LockConsistencyViolation witnesses a mutex's Lock/Unlock/Wait/Notify
// sequence failing the well-bracketed state machine.
type LockConsistencyViolation struct {
	base
	Mutex   event.MutexID
	Culprit *event.Event
}

func (LockConsistencyViolation) Reason() string { return "lock consistency violation" }

// SequentialConsistencyApproximationInconsistency witnesses the
// coherence-closure approximation stage producing a cyclic relation.
type SequentialConsistencyApproximationInconsistency struct {
	base
	Cycle []*event.Event
}

func (SequentialConsistencyApproximationInconsistency) Reason() string {
	return "sequential consistency approximation inconsistency"
}

// CoherenceViolation witnesses every enumerated linear extension failing
// to produce an irreflexive extended-coherence relation.
type CoherenceViolation struct {
	base
	Location event.Location
}

func (CoherenceViolation) Reason() string { return "coherence violation" }

// SequentialConsistencyReplayViolation witnesses a coherence order that
// passed the graph stage but failed replay through the abstract SC
// machine.
type SequentialConsistencyReplayViolation struct {
	base
	Culprit *event.Event
}

func (SequentialConsistencyReplayViolation) Reason() string {
	return "sequential consistency replay violation"
}

// AggregationViolation witnesses a request event left ungrouped by the
// aggregation algebra even though later events exist on its thread — a
// request only aggregates away (or stays a trailing, legitimately blocked
// HyperAtomic) into its response; one stranded mid-thread means the
// response that should follow it never synchronized.
type AggregationViolation struct {
	base
	Culprit *event.Event
}

func (AggregationViolation) Reason() string { return "aggregation violation" }
