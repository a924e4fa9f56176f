package driver

import (
	"context"
	"time"

	"github.com/GoCodeAlone/lincheck-go/internal/consistency"
	lcerrors "github.com/GoCodeAlone/lincheck-go/internal/errors"
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/eventindex"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/internal/obslog"
)

// initThreadID is the reserved thread identity the single Initialization
// event is recorded on. No managed thread is ever assigned this ID.
const initThreadID event.ThreadID = -1

// InitializeExploration seeds the arena with the run's unique
// Initialization event and starts the exploration budget clock. Must be
// called once, before the first StartNextExploration.
func (e *Engine) InitializeExploration() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startedAt = time.Now()
	ev := event.NewRoot(e.allocID(), initThreadID, event.Initialization{}, event.DerivedClock(nil, initThreadID, 0), e.frontier.Snapshot())
	ev.Visited = true
	if err := e.commit(ev); err != nil {
		return err
	}
	e.initEvent = ev
	e.bus.Notify(context.Background(), obslog.NewExplorationLifecycleEvent(e.runID, "exploration", "started", nil))
	return nil
}

// StartNextExploration backtracks to the most recently created unvisited
// candidate response, rebuilds the execution from its frontier snapshot,
// and arms the replay counters so the embedding runtime can fast-forward
// every retained thread back to where the new candidate picks up live
// exploration. Returns false once no unvisited candidate remains anywhere
// in the arena — the exploration space is exhausted.
func (e *Engine) StartNextExploration() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config.ExplorationBudget > 0 && time.Since(e.startedAt) > e.config.ExplorationBudget {
		return false, lcerrors.ErrExplorationBudgetExceeded
	}

	for {
		candidate, ok := e.arena.latestUnvisited()
		if !ok {
			return false, nil
		}
		candidate.Visited = true
		e.arena.truncateAfter(candidate.ID)
		event.ResetPredCache()

		e.nextEventID = candidate.ID + 1
		e.exec = execution.FromSnapshot(e.arena, candidate.Frontier).ToExecution()
		e.exec.Append(candidate)
		e.frontier = execution.NewFrontier(e.arena)
		for _, ev := range e.exec.Events() {
			e.frontier.Advance(ev)
		}

		e.rebuildIndexes()
		e.rebuildThreadBookkeeping()
		e.rebuildConsumption()

		e.incremental.Reset(e.exec)
		e.eventsSinceFullCheck = 0

		if inc := e.checkConsistencyLocked(); inc != nil {
			// The rebuilt prefix is itself inconsistent — this candidate
			// cannot lead anywhere new. Record it and try an earlier one.
			e.noteInconsistency(inc)
			continue
		}

		for _, tid := range e.exec.Threads() {
			if tid == initThreadID {
				continue
			}
			last, _ := e.exec.LastEvent(tid)
			e.replayRemaining[tid] = last.ThreadPosition + 1
			e.replayPos[tid] = 0
		}

		e.bus.Notify(context.Background(), obslog.NewExplorationLifecycleEvent(e.runID, "backtrack", "rebuilt", map[string]interface{}{
			"candidateEventID": int(candidate.ID),
		}))
		e.cond.Broadcast()
		e.startedAt = time.Now()
		return true, nil
	}
}

// rebuildIndexes replays the retained execution's events through the
// location/mutex/thread index and the race tracker, since both were reset
// (or never populated) for the truncated arena.
func (e *Engine) rebuildIndexes() {
	e.index.Reset()
	e.memAccess = eventindex.NewMemoryAccessIndex(func(x, y *event.Event) bool {
		return (event.CausalityOrder{}).LessOrEqual(x, y)
	})
	e.actorAgg.Reset()
	for _, ev := range e.exec.Events() {
		e.indexEvent(ev)
		e.actorAgg.Observe(ev)
	}
}

// rebuildThreadBookkeeping recomputes threadRoots, finished and
// forkedThreads from the retained execution, since the live maps may
// reference events the backtrack just discarded.
func (e *Engine) rebuildThreadBookkeeping() {
	e.threadRoots = make(map[event.ThreadID]*event.Event)
	e.finished = make(map[event.ThreadID]bool)
	forked := make(map[event.ThreadID]bool)
	for _, ev := range e.exec.Events() {
		if !ev.HasParent {
			e.threadRoots[ev.ThreadID] = ev
		}
		switch l := ev.Label.(type) {
		case event.ThreadFinish:
			e.finished[l.Thread] = true
		case event.ThreadFork:
			for _, t := range l.ForkedTids {
				forked[t] = true
			}
		}
	}
	e.forkedThreads = forked
}

// rebuildConsumption recomputes the consumed-sender set and
// mutexEverLocked from the retained execution: a sender is consumed once
// some response/receive event's Dependencies names it, unless the sender
// is total and so may be reused by any number of candidates.
func (e *Engine) rebuildConsumption() {
	e.consumed = make(map[event.EventID]bool)
	e.mutexEverLocked = make(map[event.MutexID]bool)
	for _, ev := range e.exec.Events() {
		for _, depID := range ev.Dependencies {
			if dep, ok := e.exec.EventByID(depID); ok && !dep.Label.IsTotal() {
				e.consumed[depID] = true
			}
		}
		if l, ok := ev.Label.(event.Lock); ok && l.Phase == event.Response {
			e.mutexEverLocked[l.Mutex] = true
		}
	}
}

// checkConsistencyLocked runs the full checker stack against the current
// execution, stopping at the first non-Consistent verdict. Called with
// e.mu already held, from commit's periodic sweep and from
// CheckConsistency.
func (e *Engine) checkConsistencyLocked() consistency.Inconsistency {
	for _, checker := range e.fullCheckers {
		if v := checker.CheckFull(e.exec); v.Status == consistency.Inconsistent {
			return v.Inconsistency
		}
	}
	return nil
}

// CheckConsistency runs the full checker stack on demand, outside the
// periodic cadence commit otherwise drives it on. Returns nil when the
// current execution is consistent.
func (e *Engine) CheckConsistency() consistency.Inconsistency {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkConsistencyLocked()
}

// Stats returns a copy of the run's bookkeeping so far, accumulated across
// every exploration.
func (e *Engine) Stats() ExplorationStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
