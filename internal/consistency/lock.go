package consistency

import (
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
)

type lockState int

const (
	unheld lockState = iota
	heldBy
	waiting
)

// mutexState is the replay state machine for one mutex: Unheld,
// HeldBy(t, depth) for reentrant locking, or Waiting(t) while t has
// released the lock inside a Wait.
type mutexState struct {
	state    lockState
	holder   event.ThreadID
	depth    int
	waiter   event.ThreadID
	notified bool
}

// LockChecker is a full checker verifying that each mutex's
// Lock/Unlock/Wait/Notify interleaving is a valid nested well-bracketed
// sequence.
type LockChecker struct{}

// NewLockChecker returns a stateless LockChecker (all state lives in the
// per-CheckFull-call replay).
func NewLockChecker() *LockChecker { return &LockChecker{} }

// CheckFull replays every mutex's responses/sends in execution order and
// verifies each transition is admissible.
func (c *LockChecker) CheckFull(x *execution.Execution) Verdict {
	if culprit, mutex, ok := replayMutexes(orderedByID(x)); !ok {
		return Fail(LockConsistencyViolation{Mutex: mutex, Culprit: culprit})
	}
	return Ok()
}

// Check has no cheaper per-event update than replaying every mutex from
// scratch, so it defers to Unknown; the driver's periodic CheckFull sweep
// is what actually decides this checker.
func (c *LockChecker) Check(e *event.Event) Verdict { return UnknownVerdict() }

// Reset is a no-op: the checker carries no state between CheckFull calls.
func (c *LockChecker) Reset(x *execution.Execution) {}

// replayMutexes drives the Unheld/HeldBy/Waiting state machine across every
// mutex touched by the given events, in the order given. It is shared by
// LockChecker and the sequential-consistency replay stage, which needs the
// same monitor-ownership tracking over its own candidate coherence order.
func replayMutexes(events []*event.Event) (culprit *event.Event, mutex event.MutexID, ok bool) {
	mutexes := make(map[event.MutexID]*mutexState)

	for _, e := range events {
		switch l := e.Label.(type) {
		case event.Lock:
			if l.Phase != event.Response {
				continue
			}
			st := mutexes[l.Mutex]
			if st == nil {
				st = &mutexState{state: unheld}
				mutexes[l.Mutex] = st
			}
			switch st.state {
			case unheld:
				st.state = heldBy
				st.holder = e.ThreadID
				st.depth = 1
			case heldBy:
				if st.holder != e.ThreadID {
					return e, l.Mutex, false
				}
				st.depth++
			case waiting:
				if st.waiter != e.ThreadID || !st.notified {
					return e, l.Mutex, false
				}
				st.state = heldBy
				st.holder = e.ThreadID
				st.depth = 1
				st.notified = false
			}

		case event.Unlock:
			st := mutexes[l.Mutex]
			if st == nil || st.state != heldBy || st.holder != e.ThreadID {
				return e, l.Mutex, false
			}
			st.depth--
			if st.depth == 0 {
				st.state = unheld
			}

		case event.Wait:
			if l.Phase != event.Request {
				continue
			}
			st := mutexes[l.Mutex]
			if st == nil || st.state != heldBy || st.holder != e.ThreadID {
				return e, l.Mutex, false
			}
			st.state = waiting
			st.waiter = e.ThreadID
			st.notified = false

		case event.Notify:
			st := mutexes[l.Mutex]
			if st != nil && st.state == waiting {
				st.notified = true
			}
		}
	}
	return nil, 0, true
}

// orderedByID returns x's events sorted by global EventID, the order the
// driver actually appended them in (Execution.Events returns thread-major
// order, which isn't what replay needs).
func orderedByID(x *execution.Execution) []*event.Event {
	events := x.Events()
	out := make([]*event.Event, len(events))
	copy(out, events)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID > out[j].ID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
