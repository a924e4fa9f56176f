// Package driver's ops.go is the public surface a runtime interposes on a
// managed program's lifecycle, memory, and lock operations. Every method
// here takes the engine lock and either returns immediately (direct sends)
// or blocks the calling goroutine until a synchronizing sender exists
// (requests) — see synchronize in pipeline.go.
package driver

import (
	"fmt"

	"github.com/GoCodeAlone/lincheck-go/internal/errors"
	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/eventindex"
)

// RegisterObjectAllocation mints a stable ObjectID for an object tid just
// allocated, identified by ptr's pointer identity, and records the
// allocation as a direct event on tid's thread.
func (e *Engine) RegisterObjectAllocation(tid event.ThreadID, ptr uintptr) (event.ObjectID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev, ok, err := e.tryReplay(tid, event.KindObjectAllocation, 1); ok || err != nil {
		if err != nil {
			return 0, err
		}
		return ev.Label.(event.ObjectAllocation).Object, nil
	}

	id, err := e.registry.RegisterPointer(ptr, nil)
	if err != nil {
		return 0, err
	}
	if _, err := e.appendOwn(tid, event.ObjectAllocation{Object: id}); err != nil {
		return 0, err
	}
	return id, nil
}

// AddThreadStart records tid beginning to run. main distinguishes the
// program's initial thread (whose start synchronizes with the run's
// Initialization event) from a forked thread (whose start synchronizes
// with the ThreadFork that named it) — tracked internally from prior
// AddThreadFork calls rather than asked of the caller.
func (e *Engine) AddThreadStart(tid event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindThreadStart, 2); ok || err != nil {
		return err
	}

	main := !e.forkedThreads[tid]
	label := event.ThreadStart{Thread: tid, Main: main, Phase: event.Request}
	lookup := func() []*event.Event {
		cands := append([]*event.Event{}, e.index.ByKey(eventindex.CategoryThread, threadKey(tid))...)
		if main && e.initEvent != nil {
			cands = append(cands, e.initEvent)
		}
		return cands
	}
	_, err := e.synchronize(tid, label, lookup)
	return err
}

// AddThreadFinish records tid's terminal event, after which it can be
// joined but no further operations on tid are valid.
func (e *Engine) AddThreadFinish(tid event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindThreadFinish, 1); ok || err != nil {
		return err
	}
	if e.finished[tid] {
		return errors.ErrThreadAlreadyFinished
	}
	if _, err := e.appendOwn(tid, event.ThreadFinish{Thread: tid}); err != nil {
		return err
	}
	e.finished[tid] = true
	return nil
}

// AddThreadFork records tid spawning children, each of which may
// subsequently call AddThreadStart to synchronize with this event.
func (e *Engine) AddThreadFork(tid event.ThreadID, children []event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindThreadFork, 1); ok || err != nil {
		return err
	}
	if _, err := e.appendOwn(tid, event.ThreadFork{Thread: tid, ForkedTids: children}); err != nil {
		return err
	}
	for _, c := range children {
		e.forkedThreads[c] = true
	}
	return nil
}

// AddThreadJoin blocks tid until every thread in joined has recorded a
// ThreadFinish.
func (e *Engine) AddThreadJoin(tid event.ThreadID, joined []event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindThreadJoin, 2); ok || err != nil {
		return err
	}

	label := event.ThreadJoin{Thread: tid, JoinedSet: joined, Phase: event.Request}
	lookup := func() []*event.Event {
		var cands []*event.Event
		for _, t := range joined {
			cands = append(cands, e.index.ByKey(eventindex.CategoryThread, threadKey(t))...)
		}
		return cands
	}
	_, err := e.synchronize(tid, label, lookup)
	return err
}

// AddRead records tid reading loc, blocking until a write (or the
// location's zero-value allocation/initialization event) is available to
// read from, and returns the synthesized value coerced to tag's Go type.
func (e *Engine) AddRead(tid event.ThreadID, loc event.Location, tag event.TypeTag, exclusive bool) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev, ok, err := e.tryReplay(tid, event.KindRead, 2); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return ev.Label.(event.Read).Value, nil
	}

	label := event.Read{Loc: loc, Tag: tag, Exclusive: exclusive, Phase: event.Request}
	lookup := func() []*event.Event {
		cands := append([]*event.Event{}, e.index.ByKey(eventindex.CategoryLocation, locKey(loc))...)
		if e.initEvent != nil {
			cands = append(cands, e.initEvent)
		}
		return cands
	}
	resp, err := e.synchronize(tid, label, lookup)
	if err != nil {
		return nil, err
	}
	return resp.Label.(event.Read).Value, nil
}

// AddWrite records tid writing value to loc, after coercing value to tag's
// Go type. An exclusive write must immediately follow an exclusive read
// response to the same location on the same thread — the read-modify-write
// coupling a CAS or fetch-and-add compiles down to — or it is rejected as
// an assertion failure rather than an Inconsistency.
func (e *Engine) AddWrite(tid event.ThreadID, loc event.Location, value any, tag event.TypeTag, exclusive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindWrite, 1); ok || err != nil {
		return err
	}

	if exclusive {
		parent, ok := e.frontier.Head(tid)
		if !ok || !event.IsExclusiveReadResponse(parent.Label) || !event.SameLocation(parent.Label, event.Read{Loc: loc}) {
			return fmt.Errorf("%w: thread %d loc %v", event.ErrExclusiveWriteWithoutExclusiveParent, tid, loc)
		}
	}
	coerced, err := event.CoerceValue(value, tag)
	if err != nil {
		return err
	}
	_, err = e.appendOwn(tid, event.Write{Loc: loc, Value: coerced, Tag: tag, Exclusive: exclusive})
	return err
}

// AddLockAcquire blocks tid until mutex is available — either never
// locked (Initialization sender) or most recently released (Unlock
// sender) — and records the acquisition.
func (e *Engine) AddLockAcquire(tid event.ThreadID, mutex event.MutexID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindLock, 2); ok || err != nil {
		return err
	}

	label := event.Lock{Mutex: mutex, Phase: event.Request}
	lookup := func() []*event.Event {
		cands := append([]*event.Event{}, e.index.ByKey(eventindex.CategoryMutex, mutexKey(mutex))...)
		if !e.mutexEverLocked[mutex] && e.initEvent != nil {
			cands = append(cands, e.initEvent)
		}
		return cands
	}
	_, err := e.synchronize(tid, label, lookup)
	return err
}

// AddLockRelease records tid releasing mutex, unblocking the next
// AddLockAcquire election on it.
func (e *Engine) AddLockRelease(tid event.ThreadID, mutex event.MutexID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindUnlock, 1); ok || err != nil {
		return err
	}
	_, err := e.appendOwn(tid, event.Unlock{Mutex: mutex})
	return err
}

// AddWait blocks tid on mutex's condition until a matching Notify.
func (e *Engine) AddWait(tid event.ThreadID, mutex event.MutexID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindWait, 2); ok || err != nil {
		return err
	}

	label := event.Wait{Mutex: mutex, Phase: event.Request}
	lookup := func() []*event.Event {
		return e.index.ByKey(eventindex.CategoryMutex, mutexKey(mutex))
	}
	_, err := e.synchronize(tid, label, lookup)
	return err
}

// AddNotify wakes one (or, if broadcast, every) thread waiting on mutex.
func (e *Engine) AddNotify(tid event.ThreadID, mutex event.MutexID, broadcast bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindNotify, 1); ok || err != nil {
		return err
	}
	_, err := e.appendOwn(tid, event.Notify{Mutex: mutex, Broadcast: broadcast})
	return err
}

// AddPark blocks tid until a matching AddUnpark targets it.
func (e *Engine) AddPark(tid event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindPark, 2); ok || err != nil {
		return err
	}

	label := event.Park{Thread: tid, Phase: event.Request}
	lookup := func() []*event.Event {
		return e.index.ByKey(eventindex.CategoryThread, threadKey(tid))
	}
	_, err := e.synchronize(tid, label, lookup)
	return err
}

// AddUnpark wakes target if it is parked.
func (e *Engine) AddUnpark(tid event.ThreadID, target event.ThreadID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.tryReplay(tid, event.KindUnpark, 1); ok || err != nil {
		return err
	}
	_, err := e.appendOwn(tid, event.Unpark{Target: target})
	return err
}
