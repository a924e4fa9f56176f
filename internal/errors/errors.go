// Package errors collects the sentinel errors the driver raises that are
// not specific to one internal package: finished-thread operations, budget
// exhaustion, replay mismatches, and other conditions a caller of the public facade needs to
// match against with errors.Is.
package errors

import "errors"

var (
	// ErrUnknownThread names an operation on a ThreadID the engine has
	// never seen a ThreadStart response for. No driver operation returns
	// it: an operation on such a thread records that thread's root event.
	ErrUnknownThread = errors.New("driver: unknown thread")

	// ErrThreadAlreadyFinished is returned when an operation is attempted
	// on a thread that has already recorded a ThreadFinish.
	ErrThreadAlreadyFinished = errors.New("driver: thread already finished")

	// ErrExplorationBudgetExceeded is returned by StartNextExploration when
	// the exploration that just ended ran longer than the configured
	// wall-clock budget.
	ErrExplorationBudgetExceeded = errors.New("driver: exploration budget exceeded")

	// ErrNoMoreExplorations names an exhausted search space: every
	// candidate event in the arena has been visited. StartNextExploration
	// does not return it; it reports exhaustion as (false, nil).
	ErrNoMoreExplorations = errors.New("driver: exploration space exhausted")

	// ErrReplayMismatch is returned when a replayed operation's label shape
	// does not match the recorded event at the same thread position — the
	// program under test took a different path on re-run than it did when
	// the prefix was first recorded, which the engine cannot reconcile.
	ErrReplayMismatch = errors.New("driver: replayed operation does not match recorded event")
)
