package driver

import (
	"fmt"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/syncalg"
)

// appendOwn records label as the next event on tid's own thread: either a
// fresh root (tid has no prior event) or a child of tid's current frontier
// head. Used for both requests and direct sends — the two only differ in
// what happens after this event is on the frontier.
func (e *Engine) appendOwn(tid event.ThreadID, label event.Label) (*event.Event, error) {
	parent, hasParent := e.frontier.Head(tid)
	var ev *event.Event
	if !hasParent {
		clock := event.DerivedClock(nil, tid, 0)
		ev = event.NewRoot(e.allocID(), tid, label, clock, e.frontier.Snapshot())
	} else {
		clock := e.causalityClockFor(parent, tid, parent.ThreadPosition+1, nil)
		var err error
		ev, err = event.NewChild(e.arena, e.allocID(), parent, label, clock, e.frontier.Snapshot())
		if err != nil {
			return nil, err
		}
	}
	ev.Visited = true
	if e.threadRoots[tid] == nil {
		e.threadRoots[tid] = ev
	}
	if err := e.commit(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func idsOf(events []*event.Event) []event.EventID {
	ids := make([]event.EventID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// commitResponse constructs and commits a response/receive event as a
// child of req, synchronized against the given senders.
func (e *Engine) commitResponse(req *event.Event, label event.Label, deps []*event.Event) (*event.Event, error) {
	if err := e.checkCausality(req, deps); err != nil {
		return nil, err
	}
	clock := e.causalityClockFor(req, req.ThreadID, req.ThreadPosition+1, deps)
	child, err := event.NewChild(e.arena, e.allocID(), req, label, clock, e.frontier.Snapshot())
	if err != nil {
		return nil, err
	}
	child.Dependencies = idsOf(deps)
	child.Visited = true
	if err := e.commit(child); err != nil {
		return nil, err
	}
	return child, nil
}

// mintCandidate records a response that was structurally possible but lost
// the election to a more-recently-created sender. It is appended to the
// arena only — never to the execution or frontier — so it plays no part in
// the current run but remains available as a backtracking target via
// arena.latestUnvisited. Its frontier snapshot names req as the head of
// req's thread, not the winning response committed there.
func (e *Engine) mintCandidate(req *event.Event, label event.Label, deps []*event.Event) {
	if err := e.checkCausality(req, deps); err != nil {
		return
	}
	clock := e.causalityClockFor(req, req.ThreadID, req.ThreadPosition+1, deps)
	snap := e.frontier.Snapshot()
	snap[req.ThreadID] = req.ID
	child, err := event.NewChild(e.arena, e.allocID(), req, label, clock, snap)
	if err != nil {
		return
	}
	child.Dependencies = idsOf(deps)
	child.Visited = false
	e.arena.append(child)
}

// elect resolves req against the candidate senders, committing the winning
// response (most-recently-created tie-break for Binary syncs) and minting
// the rest as unvisited backtracking candidates. Returns (nil, nil) if no
// sender currently satisfies req — the caller should keep waiting.
func (e *Engine) elect(req *event.Event, senders []*event.Event) (*event.Event, error) {
	kind := e.algebra.SyncType(req.Label)
	switch kind {
	case syncalg.Binary:
		return e.electBinary(req, senders)
	case syncalg.Barrier:
		return e.electBarrier(req, senders)
	default:
		return nil, fmt.Errorf("driver: label %T does not synchronize as a request", req.Label)
	}
}

func (e *Engine) electBinary(req *event.Event, senders []*event.Event) (*event.Event, error) {
	type match struct {
		sender *event.Event
		label  event.Label
	}
	var matches []match
	seen := make(map[event.EventID]bool)
	for _, s := range senders {
		if s == nil || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if e.consumed[s.ID] && !s.Label.IsTotal() {
			continue
		}
		if resp, ok := e.algebra.Synchronize(req.Label, s.Label); ok {
			matches = append(matches, match{sender: s, label: resp})
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	best := 0
	for i := 1; i < len(matches); i++ {
		if matches[i].sender.ID > matches[best].sender.ID {
			best = i
		}
	}
	elected := matches[best]
	resp, err := e.commitResponse(req, elected.label, []*event.Event{elected.sender})
	if err != nil {
		return nil, err
	}
	if !elected.sender.Label.IsTotal() {
		e.consumed[elected.sender.ID] = true
	}
	if l, ok := elected.label.(event.Lock); ok && l.Phase == event.Response {
		e.mutexEverLocked[l.Mutex] = true
	}

	for i, m := range matches {
		if i == best {
			continue
		}
		e.mintCandidate(req, m.label, []*event.Event{m.sender})
	}
	return resp, nil
}

// electBarrier resolves a ThreadJoin request: every thread in its joined
// set must have a recorded ThreadFinish before the join response can be
// synthesized. Unlike Binary sync there is no election to make — the
// response is fully determined once the set is complete, so no candidate
// events are minted.
func (e *Engine) electBarrier(req *event.Event, senders []*event.Event) (*event.Event, error) {
	join, ok := req.Label.(event.ThreadJoin)
	if !ok {
		return nil, fmt.Errorf("driver: electBarrier called on non-join label %T", req.Label)
	}
	finishOf := make(map[event.ThreadID]*event.Event, len(join.JoinedSet))
	for _, s := range senders {
		if f, ok := s.Label.(event.ThreadFinish); ok {
			finishOf[f.Thread] = s
		}
	}
	deps := make([]*event.Event, 0, len(join.JoinedSet))
	for _, t := range join.JoinedSet {
		f, ok := finishOf[t]
		if !ok {
			return nil, nil // barrier incomplete, keep waiting
		}
		deps = append(deps, f)
	}
	respLabel := event.ThreadJoin{Thread: join.Thread, JoinedSet: join.JoinedSet, Phase: event.Response}
	return e.commitResponse(req, respLabel, deps)
}

// synchronize appends label as a request on tid, then blocks the calling
// goroutine (releasing the engine lock while parked) until lookup() yields
// a satisfying sender. lookup is called fresh on every wake since the
// candidate pool only grows as other threads commit new events.
func (e *Engine) synchronize(tid event.ThreadID, label event.Label, lookup func() []*event.Event) (*event.Event, error) {
	req, err := e.appendOwn(tid, label)
	if err != nil {
		return nil, err
	}
	for {
		resp, err := e.elect(req, lookup())
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
		if spurious, ok := e.algebra.SpuriousResponse(req.Label); ok {
			return e.commitResponse(req, spurious, nil)
		}
		e.cond.Wait()
	}
}
