// Package driver implements the exploration engine: the single-threaded
// decision maker that turns a managed program's instrumented calls into
// events, resolves synchronization, runs the consistency checkers
// incrementally and in full, and backtracks through the event structure's
// candidate responses until every reachable interleaving has been visited
// or the configured budget runs out.
//
// The engine's own bookkeeping only ever mutates on one logical thread (the
// "driver thread" of SPEC_FULL.md's concurrency model), but its public
// surface is called concurrently by every goroutine standing in for a
// managed thread of the program under test. A single mutex plus condition
// variable serializes those calls into that one logical thread and gives
// blocking operations (lock contention, wait, park, join) somewhere to
// actually block until the engine elects a response for them.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoCodeAlone/lincheck-go/internal/consistency"
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/eventindex"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/internal/objregistry"
	"github.com/GoCodeAlone/lincheck-go/internal/obslog"
	"github.com/GoCodeAlone/lincheck-go/internal/options"
	"github.com/GoCodeAlone/lincheck-go/internal/syncalg"
	"github.com/GoCodeAlone/lincheck-go/pkg/vclock"

	"github.com/google/uuid"
)

// ExplorationStats tracks what one exploration run did, reported back to
// the embedding runtime once StartNextExploration stops returning true.
type ExplorationStats struct {
	Explored             int
	InconsistenciesByKind map[string]int
	Elapsed               time.Duration
}

// Engine is the exploration driver. Construct with NewEngine; the zero
// value is not usable.
type Engine struct {
	mu   sync.Mutex
	cond *sync.Cond

	config options.Config
	logger obslog.Logger
	bus    *obslog.Bus
	runID  string

	arena    *arena
	registry *objregistry.Registry
	index    *eventindex.Index
	memAccess *eventindex.MemoryAccessIndex
	algebra  syncalg.AtomicSynchronizationAlgebra
	actorAgg *syncalg.ActorAggregator

	exec     *execution.Execution
	frontier *execution.Frontier

	threadRoots   map[event.ThreadID]*event.Event
	finished      map[event.ThreadID]bool
	forkedThreads map[event.ThreadID]bool
	initEvent     *event.Event

	mutexEverLocked map[event.MutexID]bool
	consumed        map[event.EventID]bool

	// replayRemaining[tid] counts how many of tid's already-recorded
	// events (from the most recent backtracking rebuild) still need to be
	// re-confirmed by the runtime replaying its instrumented call
	// sequence before live exploration resumes for that thread.
	replayRemaining map[event.ThreadID]int
	replayPos       map[event.ThreadID]int

	incremental  *consistency.AggregateChecker
	fullCheckers []consistency.Checker

	nextEventID          event.EventID
	eventsSinceFullCheck int

	stats     ExplorationStats
	startedAt time.Time
}

// NewEngine wires the event arena, registry, index, synchronization
// algebra, and the full checker stack (atomicity, release/acquire, lock,
// sequential consistency, aggregation well-formedness, in that order — the
// cheapest, most specific checks first) behind a single exploration
// driver.
func NewEngine(config options.Config, logger obslog.Logger, bus *obslog.Bus) *Engine {
	config = config.WithDefaults()
	if logger == nil {
		logger = obslog.NopLogger{}
	}
	if bus == nil {
		bus = obslog.NewBus(logger)
	}

	a := newArena()
	e := &Engine{
		config:          config,
		logger:          logger,
		bus:             bus,
		runID:           uuid.NewString(),
		arena:           a,
		registry:        objregistry.New(),
		index:           eventindex.New(),
		algebra:         syncalg.AtomicSynchronizationAlgebra{AllowSpuriousWakeups: config.AllowSpuriousWakeups},
		actorAgg:        syncalg.NewActorAggregator(),
		exec:            execution.New(a),
		frontier:        execution.NewFrontier(a),
		threadRoots:     make(map[event.ThreadID]*event.Event),
		finished:        make(map[event.ThreadID]bool),
		forkedThreads:   make(map[event.ThreadID]bool),
		mutexEverLocked: make(map[event.MutexID]bool),
		consumed:        make(map[event.EventID]bool),
		replayRemaining: make(map[event.ThreadID]int),
		replayPos:       make(map[event.ThreadID]int),
	}
	e.cond = sync.NewCond(&e.mu)
	e.memAccess = eventindex.NewMemoryAccessIndex(func(x, y *event.Event) bool {
		return (event.CausalityOrder{}).LessOrEqual(x, y)
	})
	e.incremental = consistency.NewAggregateChecker(
		consistency.NewAtomicityChecker(a),
		consistency.NewReleaseAcquireChecker(a),
		consistency.NewLockChecker(),
		consistency.NewIncrementalSequentialConsistencyChecker(a, config),
	)
	e.fullCheckers = []consistency.Checker{
		consistency.NewAtomicityChecker(a),
		consistency.NewReleaseAcquireChecker(a),
		consistency.NewLockChecker(),
		consistency.NewSequentialConsistencyChecker(a, config),
		consistency.NewAggregationChecker(),
	}
	return e
}

func (e *Engine) allocID() event.EventID {
	id := e.nextEventID
	e.nextEventID++
	return id
}

// locKey/mutexKey/threadKey are the eventindex.Index key encodings; kept
// together so the (Category, key) pairing used on Insert and ByKey never
// drifts apart.
func locKey(loc event.Location) string    { return fmt.Sprintf("%d:%d", loc.Object, loc.Offset) }
func mutexKey(m event.MutexID) string     { return fmt.Sprintf("%d", m) }
func threadKey(t event.ThreadID) string   { return fmt.Sprintf("%d", t) }

// indexEvent files e under whatever (category, key) buckets its label
// participates in, so later synchronization attempts can find it without
// scanning the whole arena.
func (e *Engine) indexEvent(ev *event.Event) {
	if loc, ok := ev.Label.(event.Locationer); ok {
		e.index.Insert(eventindex.CategoryLocation, locKey(loc.Location()), ev)
		switch l := ev.Label.(type) {
		case event.Write:
			e.memAccess.InsertWrite(l.Loc, ev)
		case event.Read:
			if l.Phase == event.Request {
				e.memAccess.InsertRead(l.Loc, ev)
			} else {
				e.memAccess.InsertReadResponse(l.Loc, ev)
			}
		}
	}
	switch l := ev.Label.(type) {
	case event.Lock:
		e.index.Insert(eventindex.CategoryMutex, mutexKey(l.Mutex), ev)
	case event.Unlock:
		e.index.Insert(eventindex.CategoryMutex, mutexKey(l.Mutex), ev)
	case event.Wait:
		e.index.Insert(eventindex.CategoryMutex, mutexKey(l.Mutex), ev)
	case event.Notify:
		e.index.Insert(eventindex.CategoryMutex, mutexKey(l.Mutex), ev)
	case event.Park:
		e.index.Insert(eventindex.CategoryThread, threadKey(l.Thread), ev)
	case event.Unpark:
		e.index.Insert(eventindex.CategoryThread, threadKey(l.Target), ev)
	case event.ThreadFork:
		for _, t := range l.ForkedTids {
			e.index.Insert(eventindex.CategoryThread, threadKey(t), ev)
		}
	case event.ThreadFinish:
		e.index.Insert(eventindex.CategoryThread, threadKey(l.Thread), ev)
	}
}

// commit appends ev to the arena, execution and frontier, indexes it, runs
// the incremental checkers, and wakes every goroutine blocked in
// synchronize — a newly committed event may be exactly the sender they
// were waiting on.
func (e *Engine) commit(ev *event.Event) error {
	e.arena.append(ev)
	e.exec.Append(ev)
	e.frontier.Advance(ev)
	e.indexEvent(ev)
	e.actorAgg.Observe(ev)
	e.stats.Explored++
	e.eventsSinceFullCheck++

	if v := e.incremental.Check(ev); v.Status == consistency.Inconsistent {
		e.noteInconsistency(v.Inconsistency)
	}
	if e.config.FullCheckEveryNEvents > 0 && e.eventsSinceFullCheck >= e.config.FullCheckEveryNEvents {
		e.eventsSinceFullCheck = 0
		if v := e.checkConsistencyLocked(); v != nil {
			e.noteInconsistency(v)
		}
	}

	e.cond.Broadcast()
	return nil
}

func (e *Engine) noteInconsistency(inc consistency.Inconsistency) {
	if e.stats.InconsistenciesByKind == nil {
		e.stats.InconsistenciesByKind = make(map[string]int)
	}
	e.stats.InconsistenciesByKind[fmt.Sprintf("%T", inc)]++
	e.bus.Notify(context.Background(), obslog.NewExplorationLifecycleEvent(e.runID, "inconsistency", inc.Reason(), map[string]interface{}{
		"kind": fmt.Sprintf("%T", inc),
	}))
	e.logger.Warn("inconsistency detected", "kind", fmt.Sprintf("%T", inc), "reason", inc.Reason())
}

// causalityClockFor derives a new event's clock from its program-order
// parent (if any) plus the clocks of every synchronization sender it
// depends on.
func (e *Engine) causalityClockFor(parent *event.Event, tid event.ThreadID, pos int, deps []*event.Event) vclock.VectorClock[event.ThreadID] {
	var parentClock *vclock.VectorClock[event.ThreadID]
	if parent != nil {
		parentClock = &parent.CausalityClock
	}
	senders := make([]vclock.VectorClock[event.ThreadID], len(deps))
	for i, d := range deps {
		senders[i] = d.CausalityClock
	}
	return event.DerivedClock(parentClock, tid, pos, senders...)
}

// checkCausality enforces the one precondition the driver checks before an
// event is ever constructed: no dependency may be causally after the
// candidate parent. Causality only ever grows forward from a dependency's
// point of creation, so a dependency already causally downstream of its
// own parent event would make the new event's derived clock
// self-contradictory — the parent would both precede and follow the same
// sender. The check runs once, here, and is never repaired afterward.
func (e *Engine) checkCausality(parent *event.Event, deps []*event.Event) error {
	if parent == nil {
		return nil
	}
	causality := event.CausalityOrder{}
	for _, d := range deps {
		if causality.LessThan(parent, d) {
			return fmt.Errorf("%w: dependency %d is causally after parent %d", event.ErrCausalityCycle, d.ID, parent.ID)
		}
	}
	return nil
}
