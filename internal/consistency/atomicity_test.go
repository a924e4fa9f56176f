package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/pkg/vclock"
)

type listArena struct{ events []*event.Event }

func (a *listArena) EventByID(id event.EventID) (*event.Event, bool) {
	if id < 0 || int(id) >= len(a.events) {
		return nil, false
	}
	return a.events[id], true
}

func (a *listArena) append(e *event.Event) { a.events = append(a.events, e) }

func rmwChain(t *testing.T, arena *listArena, tid event.ThreadID, source *event.Event, loc event.Location) (read, write *event.Event) {
	t.Helper()
	rootClock := vclock.New[event.ThreadID]().Update(tid, 0)
	root := event.NewRoot(event.EventID(len(arena.events)), tid, event.Initialization{}, rootClock, nil)
	arena.append(root)

	readClock := root.CausalityClock.Update(tid, 1)
	r, err := event.NewChild(arena, event.EventID(len(arena.events)), root, event.Read{Loc: loc, Exclusive: true, Phase: event.Response}, readClock, nil)
	require.NoError(t, err)
	r.Dependencies = []event.EventID{source.ID}
	arena.append(r)

	writeClock := r.CausalityClock.Update(tid, 2)
	w, err := event.NewChild(arena, event.EventID(len(arena.events)), r, event.Write{Loc: loc, Exclusive: true}, writeClock, nil)
	require.NoError(t, err)
	arena.append(w)

	return r, w
}

func TestAtomicityCheckerAllowsDistinctRMWSources(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	loc := event.Location{Object: 1}

	initClock := vclock.New[event.ThreadID]().Update(9, 0)
	init := event.NewRoot(0, 9, event.Write{Loc: loc}, initClock, nil)
	arena.append(init)

	_, w1 := rmwChain(t, arena, 0, init, loc)
	_, w2 := rmwChain(t, arena, 1, w1, loc)

	x := execution.New(arena)
	for _, e := range arena.events {
		x.Append(e)
	}

	c := NewAtomicityChecker(arena)
	got := c.CheckFull(x)
	assert.Equal(t, Consistent, got.Status)
	_ = w2
}

func TestAtomicityCheckerFlagsSharedSource(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	loc := event.Location{Object: 1}

	initClock := vclock.New[event.ThreadID]().Update(9, 0)
	init := event.NewRoot(0, 9, event.Write{Loc: loc}, initClock, nil)
	arena.append(init)

	_, w1 := rmwChain(t, arena, 0, init, loc)
	_, w2 := rmwChain(t, arena, 1, init, loc)

	x := execution.New(arena)
	for _, e := range arena.events {
		x.Append(e)
	}

	c := NewAtomicityChecker(arena)
	got := c.CheckFull(x)
	require.Equal(t, Inconsistent, got.Status)
	violation, ok := got.Inconsistency.(AtomicityViolation)
	require.True(t, ok)
	assert.ElementsMatch(t, []event.EventID{w1.ID, w2.ID}, []event.EventID{violation.W1.ID, violation.W2.ID})
}
