package driver

import (
	lcerrors "github.com/GoCodeAlone/lincheck-go/internal/errors"
	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

// tryReplay is consulted at the top of every Add* method. After
// StartNextExploration rebuilds the execution from a frontier snapshot,
// the retained prefix already sits fully formed on tid's thread — but the
// runtime embedding the engine can only reach that state by re-running the
// program under test from the start, re-issuing the same instrumented
// calls it issued the first time. Those calls must not mint new events or
// re-attempt synchronization (a different sender could now be available
// and elect a different outcome than the one already recorded): they are
// simply matched against the recorded chain and answered from it.
//
// consume is 1 for a direct send, 2 for a request/response pair. wantKind
// is checked only loosely (the label Kind of the position consume events
// ends on) as a sanity check that the runtime replayed the same operation
// it recorded, not a stronger full-label equality check — a non-wantKind
// mismatch means the program under test took a different path on replay
// than it did when first recorded, which the engine cannot reconcile.
func (e *Engine) tryReplay(tid event.ThreadID, wantKind event.Kind, consume int) (*event.Event, bool, error) {
	pos := e.replayPos[tid]
	if pos >= e.replayRemaining[tid] {
		return nil, false, nil
	}
	var last *event.Event
	for i := 0; i < consume; i++ {
		ev, ok := e.exec.Get(tid, pos+i)
		if !ok {
			return nil, false, lcerrors.ErrReplayMismatch
		}
		last = ev
	}
	if last.Label.Kind() != wantKind {
		return nil, false, lcerrors.ErrReplayMismatch
	}
	e.replayPos[tid] += consume
	return last, true, nil
}
