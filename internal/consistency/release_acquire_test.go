package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
	"github.com/GoCodeAlone/lincheck-go/pkg/vclock"
)

func buildWriteChain(t *testing.T, arena *listArena, tid event.ThreadID, loc event.Location, n int) []*event.Event {
	t.Helper()
	clock := vclock.New[event.ThreadID]().Update(tid, 0)
	root := event.NewRoot(event.EventID(len(arena.events)), tid, event.Write{Loc: loc}, clock, nil)
	arena.append(root)
	events := []*event.Event{root}
	for i := 1; i < n; i++ {
		parent := events[i-1]
		c := parent.CausalityClock.Update(tid, i)
		child, err := event.NewChild(arena, event.EventID(len(arena.events)), parent, event.Write{Loc: loc}, c, nil)
		require.NoError(t, err)
		arena.append(child)
		events = append(events, child)
	}
	return events
}

func TestReleaseAcquireCheckerAcceptsAcyclicWritesBefore(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	loc := event.Location{Object: 1}
	a := buildWriteChain(t, arena, 0, loc, 2)
	b := buildWriteChain(t, arena, 1, loc, 2)

	x := execution.New(arena)
	for _, e := range append(a, b...) {
		x.Append(e)
	}

	c := NewReleaseAcquireChecker(arena)
	got := c.CheckFull(x)
	assert.Equal(t, Consistent, got.Status)
}

// TestReleaseAcquireCheckerFlagsWritesBeforeCycle constructs a two-event
// same-location write chain, then corrupts the parent's causality clock to
// also observe the child's position — a witness that could only arise from
// a broken synchronization chain — and checks the matrix-closure machinery
// actually catches the resulting cycle instead of silently ignoring it.
func TestReleaseAcquireCheckerFlagsWritesBeforeCycle(t *testing.T) {
	t.Parallel()
	event.ResetPredCache()

	arena := &listArena{}
	loc := event.Location{Object: 1}
	chain := buildWriteChain(t, arena, 0, loc, 2)
	a, b := chain[0], chain[1]
	a.CausalityClock = a.CausalityClock.Update(a.ThreadID, b.ThreadPosition)

	x := execution.New(arena)
	x.Append(a)
	x.Append(b)

	c := NewReleaseAcquireChecker(arena)
	got := c.CheckFull(x)
	require.Equal(t, Inconsistent, got.Status)
	_, ok := got.Inconsistency.(ReleaseAcquireInconsistency)
	assert.True(t, ok)
}
