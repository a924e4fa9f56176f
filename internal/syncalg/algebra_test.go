package syncalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
)

func TestSyncReadMatchesWrite(t *testing.T) {
	t.Parallel()

	alg := AtomicSynchronizationAlgebra{}
	loc := event.Location{Object: 1}
	req := event.Read{Loc: loc, Phase: event.Request}
	write := event.Write{Loc: loc, Value: 7}

	resp, ok := alg.Synchronize(req, write)
	require.True(t, ok)
	assert.Equal(t, 7, resp.(event.Read).Value)
	assert.True(t, alg.IsValidResponse(resp, req))
}

func TestSyncReadIgnoresDifferentLocation(t *testing.T) {
	t.Parallel()

	alg := AtomicSynchronizationAlgebra{}
	req := event.Read{Loc: event.Location{Object: 1}, Phase: event.Request}
	write := event.Write{Loc: event.Location{Object: 2}, Value: 7}

	_, ok := alg.Synchronize(req, write)
	assert.False(t, ok)
}

func TestSyncThreadForkMatchesRequestedThread(t *testing.T) {
	t.Parallel()

	alg := AtomicSynchronizationAlgebra{}
	req := event.ThreadStart{Thread: 3, Phase: event.Request}
	fork := event.ThreadFork{Thread: 0, ForkedTids: []event.ThreadID{2, 3}}

	resp, ok := alg.Synchronize(req, fork)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(3), resp.(event.ThreadStart).Thread)
}

func TestSyncLockWithInitializationOnFreshMutex(t *testing.T) {
	t.Parallel()

	alg := AtomicSynchronizationAlgebra{}
	req := event.Lock{Mutex: 5, Phase: event.Request}
	resp, ok := alg.Synchronize(req, event.Initialization{})
	require.True(t, ok)
	assert.Equal(t, event.MutexID(5), resp.(event.Lock).Mutex)
}

func TestSyncWaitRequiresMatchingNotify(t *testing.T) {
	t.Parallel()

	alg := AtomicSynchronizationAlgebra{}
	req := event.Wait{Mutex: 1, Phase: event.Request}
	_, ok := alg.Synchronize(req, event.Notify{Mutex: 2})
	assert.False(t, ok)

	resp, ok := alg.Synchronize(req, event.Notify{Mutex: 1})
	require.True(t, ok)
	assert.Equal(t, event.Response, resp.(event.Wait).Phase)
}

func TestSpuriousResponseGatedByFlag(t *testing.T) {
	t.Parallel()

	req := event.Park{Thread: 1, Phase: event.Request}

	disabled := AtomicSynchronizationAlgebra{}
	_, ok := disabled.SpuriousResponse(req)
	assert.False(t, ok)

	enabled := AtomicSynchronizationAlgebra{AllowSpuriousWakeups: true}
	resp, ok := enabled.SpuriousResponse(req)
	require.True(t, ok)
	assert.Equal(t, event.Response, resp.(event.Park).Phase)
}

func TestActorAggregatorPanicsOnDoubleStart(t *testing.T) {
	t.Parallel()

	agg := NewActorAggregator()
	start := &event.Event{ThreadID: 0, Label: event.ActorSpan{Thread: 0, Phase: event.ActorStart}}
	agg.Observe(start)

	assert.Panics(t, func() {
		agg.Observe(&event.Event{ThreadID: 0, Label: event.ActorSpan{Thread: 0, Phase: event.ActorStart}})
	})
}

func TestActorAggregatorAllowsStartEndStart(t *testing.T) {
	t.Parallel()

	agg := NewActorAggregator()
	agg.Observe(&event.Event{ThreadID: 0, Label: event.ActorSpan{Thread: 0, Phase: event.ActorStart}})
	agg.Observe(&event.Event{ThreadID: 0, Label: event.ActorSpan{Thread: 0, Phase: event.ActorEnd}})
	assert.NotPanics(t, func() {
		agg.Observe(&event.Event{ThreadID: 0, Label: event.ActorSpan{Thread: 0, Phase: event.ActorStart}})
	})
}

func TestAggregateGroupsRMW(t *testing.T) {
	t.Parallel()

	loc := event.Location{Object: 1}
	req := &event.Event{Label: event.Read{Loc: loc, Exclusive: true, Phase: event.Request}}
	resp := &event.Event{Label: event.Read{Loc: loc, Exclusive: true, Phase: event.Response}}
	write := &event.Event{Label: event.Write{Loc: loc, Exclusive: true}}

	out := AggregationAlgebra{}.Aggregate([]*event.Event{req, resp, write})
	require.Len(t, out, 1)
	assert.Equal(t, HyperRMW, out[0].Kind)
	assert.Len(t, out[0].Members, 3)
}

func TestAggregateDoesNotStrandRMWRequestAsReceive(t *testing.T) {
	t.Parallel()

	loc := event.Location{Object: 1}
	req := &event.Event{Label: event.Read{Loc: loc, Exclusive: true, Phase: event.Request}}
	resp := &event.Event{Label: event.Read{Loc: loc, Exclusive: true, Phase: event.Response}}
	write := &event.Event{Label: event.Write{Loc: loc, Exclusive: true}}
	trailing := &event.Event{Label: event.Read{Loc: event.Location{Object: 2}, Phase: event.Request}}

	out := AggregationAlgebra{}.Aggregate([]*event.Event{req, resp, write, trailing})
	require.Len(t, out, 2)
	assert.Equal(t, HyperRMW, out[0].Kind)
	assert.Equal(t, HyperAtomic, out[1].Kind)
}

func TestAggregateLeavesUnmatchedAtomic(t *testing.T) {
	t.Parallel()

	w1 := &event.Event{Label: event.Write{Loc: event.Location{Object: 1}}}
	w2 := &event.Event{Label: event.Write{Loc: event.Location{Object: 2}}}

	out := AggregationAlgebra{}.Aggregate([]*event.Event{w1, w2})
	require.Len(t, out, 2)
	assert.Equal(t, HyperAtomic, out[0].Kind)
	assert.Equal(t, HyperAtomic, out[1].Kind)
}
