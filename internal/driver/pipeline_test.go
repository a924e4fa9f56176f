package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/eventindex"
	"github.com/GoCodeAlone/lincheck-go/internal/options"
)

// TestElectBinaryPicksMostRecentSenderAndMintsTheRest covers electBinary's
// tie-break: when more than one sender currently satisfies a request, the
// one with the highest EventID (most recently created) wins the election
// and every other match is minted as an unvisited backtracking candidate
// instead of being discarded.
func TestElectBinaryPicksMostRecentSenderAndMintsTheRest(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	loc := event.Location{Object: 1}
	require.NoError(t, e.AddWrite(0, loc, 1, event.TypeInt, false))
	require.NoError(t, e.AddWrite(1, loc, 2, event.TypeInt, false))

	got, err := e.AddRead(2, loc, event.TypeInt, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got, "electBinary must elect the most-recently-created sender")

	cand, ok := e.arena.latestUnvisited()
	require.True(t, ok, "the write that lost the election must remain as a backtracking candidate")
	assert.Equal(t, event.KindRead, cand.Label.Kind())
	assert.False(t, cand.Visited)
}

// TestElectBinaryNoMatchLeavesRequestPending checks the other half of
// electBinary's contract: with zero matching senders it returns (nil, nil)
// rather than erroring, leaving the caller blocked in synchronize.
func TestElectBinaryNoMatchLeavesRequestPending(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	loc := event.Location{Object: 1}
	req, err := e.appendOwn(0, event.Read{Loc: loc, Phase: event.Request})
	require.NoError(t, err)

	resp, err := e.electBinary(req, nil)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

// TestElectBarrierWaitsForEveryJoinedThread covers electBarrier's
// completion rule: a join only resolves once every thread in its joined
// set has a recorded ThreadFinish, never earlier and never on a partial
// set.
func TestElectBarrierWaitsForEveryJoinedThread(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	require.NoError(t, e.AddThreadStart(0))
	require.NoError(t, e.AddThreadStart(1))
	require.NoError(t, e.AddThreadStart(2))

	joinDone := make(chan error, 1)
	go func() {
		joinDone <- e.AddThreadJoin(2, []event.ThreadID{0, 1})
	}()

	select {
	case <-joinDone:
		t.Fatal("join returned before either joined thread finished")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, e.AddThreadFinish(0))

	select {
	case <-joinDone:
		t.Fatal("join returned after only one of two joined threads finished")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, e.AddThreadFinish(1))

	select {
	case err := <-joinDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("join did not return once every joined thread had finished")
	}
}

// TestElectBarrierIncompleteSetReturnsNoResponse exercises electBarrier
// directly: a joined set with only some of its ThreadFinish senders
// present must report (nil, nil), not a partial response.
func TestElectBarrierIncompleteSetReturnsNoResponse(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	require.NoError(t, e.AddThreadStart(0))
	require.NoError(t, e.AddThreadStart(1))
	require.NoError(t, e.AddThreadFinish(0))

	req, err := e.appendOwn(2, event.ThreadJoin{Thread: 2, JoinedSet: []event.ThreadID{0, 1}, Phase: event.Request})
	require.NoError(t, err)

	senders := e.index.ByKey(eventindex.CategoryThread, threadKey(0))
	senders = append(senders, e.index.ByKey(eventindex.CategoryThread, threadKey(1))...)

	resp, err := e.electBarrier(req, senders)
	require.NoError(t, err)
	assert.Nil(t, resp)
}
