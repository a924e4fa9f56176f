// Package lincheck is the public facade over the exploration engine: a
// runtime instrumenting a concurrent data structure under test calls
// Engine's methods for every shared-memory operation its managed threads
// perform, and drives the exploration loop with InitializeExploration and
// StartNextExploration between runs.
package lincheck

import (
	"github.com/GoCodeAlone/lincheck-go/internal/consistency"
	"github.com/GoCodeAlone/lincheck-go/internal/driver"
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/obslog"
	"github.com/GoCodeAlone/lincheck-go/internal/options"
)

// Re-exported types so callers never need to import internal packages
// directly.
type (
	ThreadID         = event.ThreadID
	ObjectID         = event.ObjectID
	Location         = event.Location
	MutexID          = event.MutexID
	TypeTag          = event.TypeTag
	Config           = options.Config
	ExplorationStats = driver.ExplorationStats
	Inconsistency    = consistency.Inconsistency
	Logger           = obslog.Logger
	Observer         = obslog.Observer
	Bus              = obslog.Bus
)

// NopLogger is a Logger that discards everything, the default when none is
// supplied.
var NopLogger = obslog.NopLogger{}

// Re-exported TypeTag values for AddRead/AddWrite's tag parameter.
const (
	TypeInt    = event.TypeInt
	TypeInt64  = event.TypeInt64
	TypeBool   = event.TypeBool
	TypeString = event.TypeString
	TypeFloat  = event.TypeFloat
)

// Engine is the entry point: construct one per exploration run with
// NewEngine, call InitializeExploration once, then alternate running the
// program under test (through the Add*/RegisterObjectAllocation methods)
// with StartNextExploration until it returns false.
type Engine struct {
	e *driver.Engine
}

// NewEngine wires a fresh exploration engine. A nil logger defaults to
// NopLogger; a nil bus gets one built from logger.
func NewEngine(config Config, logger Logger, bus *Bus) *Engine {
	return &Engine{e: driver.NewEngine(config, logger, bus)}
}

// InitializeExploration seeds the run's Initialization event. Call once
// before the first StartNextExploration.
func (eng *Engine) InitializeExploration() error { return eng.e.InitializeExploration() }

// StartNextExploration backtracks to the next unvisited candidate and
// rebuilds the execution around it, returning false once the reachable
// exploration space is exhausted.
func (eng *Engine) StartNextExploration() (bool, error) { return eng.e.StartNextExploration() }

// CheckConsistency runs the full checker stack against the current
// execution on demand.
func (eng *Engine) CheckConsistency() Inconsistency { return eng.e.CheckConsistency() }

// Stats reports the run's statistics so far, accumulated across
// explorations.
func (eng *Engine) Stats() ExplorationStats { return eng.e.Stats() }

// RegisterObjectAllocation mints a stable ObjectID for an object tid just
// allocated, identified by ptr's pointer identity.
func (eng *Engine) RegisterObjectAllocation(tid ThreadID, ptr uintptr) (ObjectID, error) {
	return eng.e.RegisterObjectAllocation(tid, ptr)
}

// AddThreadStart records tid beginning to run.
func (eng *Engine) AddThreadStart(tid ThreadID) error { return eng.e.AddThreadStart(tid) }

// AddThreadFinish records tid's terminal event.
func (eng *Engine) AddThreadFinish(tid ThreadID) error { return eng.e.AddThreadFinish(tid) }

// AddThreadFork records tid spawning children.
func (eng *Engine) AddThreadFork(tid ThreadID, children []ThreadID) error {
	return eng.e.AddThreadFork(tid, children)
}

// AddThreadJoin blocks tid until every thread in joined has finished.
func (eng *Engine) AddThreadJoin(tid ThreadID, joined []ThreadID) error {
	return eng.e.AddThreadJoin(tid, joined)
}

// AddRead records tid reading loc and returns the value coerced to tag's Go
// type. exclusive marks the read half of a compare-and-swap or
// fetch-and-add.
func (eng *Engine) AddRead(tid ThreadID, loc Location, tag TypeTag, exclusive bool) (any, error) {
	return eng.e.AddRead(tid, loc, tag, exclusive)
}

// AddWrite records tid writing value, coerced to tag's Go type, to loc.
// exclusive must immediately follow an exclusive AddRead to the same
// location on the same thread.
func (eng *Engine) AddWrite(tid ThreadID, loc Location, value any, tag TypeTag, exclusive bool) error {
	return eng.e.AddWrite(tid, loc, value, tag, exclusive)
}

// AddLockAcquire blocks tid until mutex is available, always succeeding
// once it returns (the scheduler guarantees progress once a thread enters
// a critical section).
func (eng *Engine) AddLockAcquire(tid ThreadID, mutex MutexID) error {
	return eng.e.AddLockAcquire(tid, mutex)
}

// AddLockRelease records tid releasing mutex.
func (eng *Engine) AddLockRelease(tid ThreadID, mutex MutexID) error {
	return eng.e.AddLockRelease(tid, mutex)
}

// AddWait blocks tid on mutex's condition until a matching AddNotify.
func (eng *Engine) AddWait(tid ThreadID, mutex MutexID) error { return eng.e.AddWait(tid, mutex) }

// AddNotify wakes one (or, if broadcast, every) thread waiting on mutex.
func (eng *Engine) AddNotify(tid ThreadID, mutex MutexID, broadcast bool) error {
	return eng.e.AddNotify(tid, mutex, broadcast)
}

// AddPark blocks tid until a matching AddUnpark targets it.
func (eng *Engine) AddPark(tid ThreadID) error { return eng.e.AddPark(tid) }

// AddUnpark wakes target if it is parked.
func (eng *Engine) AddUnpark(tid ThreadID, target ThreadID) error {
	return eng.e.AddUnpark(tid, target)
}

// ShouldSwitch reports whether the runtime should preempt tid in favor of
// another thread.
func (eng *Engine) ShouldSwitch(tid ThreadID) bool { return eng.e.ShouldSwitch(tid) }

// ChooseThread picks which managed thread should run next, honoring hint
// when possible.
func (eng *Engine) ChooseThread(hint ThreadID) ThreadID { return eng.e.ChooseThread(hint) }

// IsActive reports whether tid has started and has not yet finished.
func (eng *Engine) IsActive(tid ThreadID) bool { return eng.e.IsActive(tid) }

// InReplayPhase reports whether any managed thread still has recorded
// events left to replay.
func (eng *Engine) InReplayPhase() bool { return eng.e.InReplayPhase() }

// CanReplayNext reports whether tid specifically has a recorded event left
// to replay.
func (eng *Engine) CanReplayNext(tid ThreadID) bool { return eng.e.CanReplayNext(tid) }
