package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
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

func buildChain(t *testing.T, arena *listArena, tid event.ThreadID, n int) []*event.Event {
	t.Helper()
	clock := vclock.New[event.ThreadID]().Update(tid, 0)
	root := event.NewRoot(event.EventID(len(arena.events)), tid, event.Initialization{}, clock, nil)
	arena.append(root)
	events := []*event.Event{root}
	for i := 1; i < n; i++ {
		parent := events[i-1]
		c := parent.CausalityClock.Update(tid, i)
		child, err := event.NewChild(arena, event.EventID(len(arena.events)), parent, event.Write{Loc: event.Location{Object: 1}}, c, nil)
		require.NoError(t, err)
		arena.append(child)
		events = append(events, child)
	}
	return events
}

func TestExecutionAppendAndGet(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	chain := buildChain(t, arena, 0, 3)

	x := New(arena)
	for _, e := range chain {
		x.Append(e)
	}

	got, ok := x.Get(0, 1)
	require.True(t, ok)
	assert.Equal(t, chain[1].ID, got.ID)

	last, ok := x.LastEvent(0)
	require.True(t, ok)
	assert.Equal(t, chain[2].ID, last.ID)

	_, ok = x.Get(0, 5)
	assert.False(t, ok)
}

func TestFrontierToExecutionRoundTrip(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	chainA := buildChain(t, arena, 0, 4)
	chainB := buildChain(t, arena, 1, 2)

	f := NewFrontier(arena)
	f.Advance(chainA[len(chainA)-1])
	f.Advance(chainB[len(chainB)-1])

	x := f.ToExecution()
	gotA := x.Events()
	require.NotEmpty(t, gotA)

	for _, e := range chainA {
		got, ok := x.Get(0, e.ThreadPosition)
		require.True(t, ok)
		assert.Equal(t, e.ID, got.ID)
	}
	for _, e := range chainB {
		got, ok := x.Get(1, e.ThreadPosition)
		require.True(t, ok)
		assert.Equal(t, e.ID, got.ID)
	}
}

func TestFrontierSnapshotAndFromSnapshot(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	chain := buildChain(t, arena, 0, 3)

	f := NewFrontier(arena)
	f.Advance(chain[2])
	snap := f.Snapshot()

	rebuilt := FromSnapshot(arena, snap)
	head, ok := rebuilt.Head(0)
	require.True(t, ok)
	assert.Equal(t, chain[2].ID, head.ID)
}

func TestIsBlockedDanglingRequest(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	clock := vclock.New[event.ThreadID]().Update(0, 0)
	root := event.NewRoot(0, 0, event.Initialization{}, clock, nil)
	arena.append(root)
	req, err := event.NewChild(arena, 1, root, event.Lock{Mutex: 1, Phase: event.Request}, clock.Update(0, 1), nil)
	require.NoError(t, err)
	arena.append(req)

	x := New(arena)
	x.Append(root)
	x.Append(req)

	assert.True(t, x.IsBlockedDanglingRequest(req))
	assert.False(t, x.IsBlockedDanglingRequest(root))
}

func TestBuildCoveringWithBinarySearch(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	chainA := buildChain(t, arena, 0, 3)
	chainB := buildChain(t, arena, 1, 3)

	x := New(arena)
	for _, e := range chainA {
		x.Append(e)
	}
	for _, e := range chainB {
		x.Append(e)
	}

	co := event.CausalityOrder{}
	related := func(a, b *event.Event) bool { return co.LessOrEqual(a, b) }

	cov := BuildCovering(x, related, true)
	deps := cov.Depends(chainB[2])
	assert.Empty(t, deps, "independent chains have no cross-thread dependency by causality alone")
}
