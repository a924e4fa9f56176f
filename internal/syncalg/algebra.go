// Package syncalg implements the synchronization algebra: the partial,
// commutative operation that decides whether two labels combine into a
// third (typically a request synchronizing with a sender to produce a
// response or receive), and the aggregation algebra that groups adjacent
// atomic events into HyperEvents for the full consistency checkers.
package syncalg

import "github.com/GoCodeAlone/lincheck-go/internal/event"

// SyncKind classifies how a request label accepts matching senders.
type SyncKind int

const (
	// None means the label never synchronizes as a request (e.g. Write).
	None SyncKind = iota
	// Binary means exactly one sender matches one request.
	Binary
	// Barrier means the request accumulates multiple senders until its
	// completion condition holds, then emits a single response.
	Barrier
)

// Algebra is a partial, commutative, associative binary operation on
// labels: Synchronize(a, b) either produces a new label (the ⊕ result) or
// reports false if a and b don't combine.
type Algebra interface {
	Synchronize(a, b event.Label) (event.Label, bool)
	SyncType(l event.Label) SyncKind
	SynchronizesInto(a, c event.Label) bool
	IsValidResponse(resp, req event.Label) bool
}

// AtomicSynchronizationAlgebra dispatches synchronization by the request
// label's kind, implementing the fixed rule set: thread fork/join, memory
// access, lock, wait/notify, park.
type AtomicSynchronizationAlgebra struct {
	// AllowSpuriousWakeups lets a Wait/Park request's response be
	// synthesized without a matching Notify/Unpark sender, modeling a
	// spurious wakeup. Disabled by default.
	AllowSpuriousWakeups bool
}

// SyncType reports how l behaves as a request.
func (AtomicSynchronizationAlgebra) SyncType(l event.Label) SyncKind {
	switch v := l.(type) {
	case event.ThreadStart:
		if v.Phase == event.Request {
			return Binary
		}
	case event.ThreadJoin:
		if v.Phase == event.Request {
			return Barrier
		}
	case event.Read:
		if v.Phase == event.Request {
			return Binary
		}
	case event.Lock:
		if v.Phase == event.Request {
			return Binary
		}
	case event.Wait:
		if v.Phase == event.Request {
			return Binary
		}
	case event.Park:
		if v.Phase == event.Request {
			return Binary
		}
	}
	return None
}

// Synchronize attempts to combine a request label a with a candidate
// sender b, returning the response/receive label it produces.
func (alg AtomicSynchronizationAlgebra) Synchronize(a, b event.Label) (event.Label, bool) {
	switch req := a.(type) {
	case event.ThreadStart:
		return alg.syncThreadStart(req, b)
	case event.ThreadJoin:
		return alg.syncThreadJoin(req, b)
	case event.Read:
		return alg.syncRead(req, b)
	case event.Lock:
		return alg.syncLock(req, b)
	case event.Wait:
		return alg.syncWait(req, b)
	case event.Park:
		return alg.syncPark(req, b)
	}
	return nil, false
}

func (AtomicSynchronizationAlgebra) syncThreadStart(req event.ThreadStart, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	switch sender := b.(type) {
	case event.ThreadFork:
		for _, t := range sender.ForkedTids {
			if t == req.Thread {
				return event.ThreadStart{Thread: req.Thread, Main: req.Main, Phase: event.Response}, true
			}
		}
	case event.Initialization:
		if req.Main {
			return event.ThreadStart{Thread: req.Thread, Main: true, Phase: event.Response}, true
		}
	}
	return nil, false
}

// joinAccumulator tracks which of a ThreadJoin request's target threads
// have finished, since join is a Barrier synthesis folding many senders.
type joinAccumulator struct {
	remaining map[event.ThreadID]bool
}

func newJoinAccumulator(joined []event.ThreadID) *joinAccumulator {
	rem := make(map[event.ThreadID]bool, len(joined))
	for _, t := range joined {
		rem[t] = true
	}
	return &joinAccumulator{remaining: rem}
}

func (j *joinAccumulator) observe(tid event.ThreadID) {
	delete(j.remaining, tid)
}

func (j *joinAccumulator) complete() bool {
	return len(j.remaining) == 0
}

// syncThreadJoin matches one ThreadFinish sender whose thread is in req's
// joined set and returns the join response label. It does not track which
// joined threads have finished: internal/driver's electBarrier checks that
// every joined thread has a ThreadFinish itself, without calling this.
func (AtomicSynchronizationAlgebra) syncThreadJoin(req event.ThreadJoin, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	finish, ok := b.(event.ThreadFinish)
	if !ok {
		return nil, false
	}
	for _, t := range req.JoinedSet {
		if t == finish.Thread {
			return event.ThreadJoin{Thread: req.Thread, JoinedSet: req.JoinedSet, Phase: event.Response}, true
		}
	}
	return nil, false
}

// syncRead matches a Write at the same location, or the zero-value senders
// that stand in for "never written": ObjectAllocation (matched by Object
// only — offsets within a freshly allocated object all start at zero) and
// the global Initialization event (matched unconditionally, the fallback
// for locations observed before any allocation event was recorded for
// them). Neither zero-value sender implements Locationer, so they are
// matched by type before any Location comparison rather than through it.
// The zero-value senders carry no value of their own, so the response is
// synthesized from req.Tag via DefaultValue rather than copied from b.
func (AtomicSynchronizationAlgebra) syncRead(req event.Read, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	switch w := b.(type) {
	case event.Write:
		if w.Loc != req.Loc {
			return nil, false
		}
		return event.Read{Loc: req.Loc, Tag: req.Tag, Exclusive: req.Exclusive, Phase: event.Response, Value: w.Value}, true
	case event.ObjectAllocation:
		if w.Object != req.Loc.Object {
			return nil, false
		}
		return event.Read{Loc: req.Loc, Tag: req.Tag, Exclusive: req.Exclusive, Phase: event.Response, Value: event.DefaultValue(req.Tag)}, true
	case event.Initialization:
		return event.Read{Loc: req.Loc, Tag: req.Tag, Exclusive: req.Exclusive, Phase: event.Response, Value: event.DefaultValue(req.Tag)}, true
	}
	return nil, false
}

func (AtomicSynchronizationAlgebra) syncLock(req event.Lock, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	switch v := b.(type) {
	case event.Unlock:
		if v.Mutex == req.Mutex {
			return event.Lock{Mutex: req.Mutex, Phase: event.Response}, true
		}
	case event.Initialization:
		return event.Lock{Mutex: req.Mutex, Phase: event.Response}, true
	}
	return nil, false
}

func (alg AtomicSynchronizationAlgebra) syncWait(req event.Wait, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	if n, ok := b.(event.Notify); ok && n.Mutex == req.Mutex {
		return event.Wait{Mutex: req.Mutex, Phase: event.Response}, true
	}
	return nil, false
}

func (alg AtomicSynchronizationAlgebra) syncPark(req event.Park, b event.Label) (event.Label, bool) {
	if req.Phase != event.Request {
		return nil, false
	}
	if u, ok := b.(event.Unpark); ok && u.Target == req.Thread {
		return event.Park{Thread: req.Thread, Phase: event.Response}, true
	}
	return nil, false
}

// SpuriousResponse synthesizes a Wait/Park response with no matching
// sender, used only when AllowSpuriousWakeups is enabled. Returns false
// for any other label.
func (alg AtomicSynchronizationAlgebra) SpuriousResponse(req event.Label) (event.Label, bool) {
	if !alg.AllowSpuriousWakeups {
		return nil, false
	}
	switch v := req.(type) {
	case event.Wait:
		if v.Phase == event.Request {
			return event.Wait{Mutex: v.Mutex, Phase: event.Response}, true
		}
	case event.Park:
		if v.Phase == event.Request {
			return event.Park{Thread: v.Thread, Phase: event.Response}, true
		}
	}
	return nil, false
}

// SynchronizesInto reports whether some sender b exists with a ⊕ b = c,
// approximated here by checking that c is a's Response/Receive phase of
// the same kind and location/mutex/thread — the structural half of the
// relation the full Synchronize dispatch already computes exactly, used
// when only the candidate response (not the sender) is in hand.
func (alg AtomicSynchronizationAlgebra) SynchronizesInto(a, c event.Label) bool {
	return alg.IsValidResponse(c, a)
}

// IsValidResponse reports whether resp is a structurally valid completion
// of req (same kind, same target, req a request and resp not a request).
func (AtomicSynchronizationAlgebra) IsValidResponse(resp, req event.Label) bool {
	if req.Kind() != resp.Kind() {
		return false
	}
	if !req.IsRequest() || resp.IsRequest() {
		return false
	}
	switch r := req.(type) {
	case event.ThreadStart:
		return resp.(event.ThreadStart).Thread == r.Thread
	case event.ThreadJoin:
		return resp.(event.ThreadJoin).Thread == r.Thread
	case event.Read:
		return resp.(event.Read).Loc == r.Loc
	case event.Lock:
		return resp.(event.Lock).Mutex == r.Mutex
	case event.Wait:
		return resp.(event.Wait).Mutex == r.Mutex
	case event.Park:
		return resp.(event.Park).Thread == r.Thread
	}
	return false
}
