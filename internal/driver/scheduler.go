package driver

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// ShouldSwitch reports whether the runtime should preempt tid and let the
// scheduler choose another thread, true whenever tid has a pending request
// at the frontier that the engine has not yet been able to elect a
// response for (it would simply block if allowed to continue).
func (e *Engine) ShouldSwitch(tid event.ThreadID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	head, ok := e.frontier.Head(tid)
	if !ok {
		return false
	}
	return e.exec.IsBlockedDanglingRequest(head)
}

// ChooseThread picks which managed thread the runtime should run next.
// hint is honored when it is still active and not itself blocked;
// otherwise the lowest-numbered active, unblocked thread is chosen, giving
// a deterministic fallback order rather than a random one.
func (e *Engine) ChooseThread(hint event.ThreadID) event.ThreadID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isActiveLocked(hint) && !e.isBlockedLocked(hint) {
		return hint
	}
	for _, tid := range e.exec.Threads() {
		if tid == initThreadID {
			continue
		}
		if e.isActiveLocked(tid) && !e.isBlockedLocked(tid) {
			return tid
		}
	}
	return hint
}

// IsActive reports whether tid has started and has not yet finished.
func (e *Engine) IsActive(tid event.ThreadID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isActiveLocked(tid)
}

func (e *Engine) isActiveLocked(tid event.ThreadID) bool {
	_, started := e.threadRoots[tid]
	return started && !e.finished[tid]
}

func (e *Engine) isBlockedLocked(tid event.ThreadID) bool {
	head, ok := e.frontier.Head(tid)
	if !ok {
		return false
	}
	return e.exec.IsBlockedDanglingRequest(head)
}

// InReplayPhase reports whether any managed thread still has recorded
// events left to replay before live exploration can mint new ones.
func (e *Engine) InReplayPhase() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for tid, remaining := range e.replayRemaining {
		if e.replayPos[tid] < remaining {
			return true
		}
	}
	return false
}

// CanReplayNext reports whether tid specifically still has a recorded
// event to replay.
func (e *Engine) CanReplayNext(tid event.ThreadID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replayPos[tid] < e.replayRemaining[tid]
}
