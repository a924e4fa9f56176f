package obslog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExplorationLifecycleEvent(t *testing.T) {
	t.Parallel()

	evt := NewExplorationLifecycleEvent("run-1", "exploration", "started", map[string]interface{}{
		"explorationIndex": 3,
	})

	assert.Equal(t, EventTypeExplorationStarted, evt.Type())
	assert.Equal(t, "run-1", evt.Source())
	require.NoError(t, ValidateCloudEvent(evt))

	var payload LifecyclePayload
	require.NoError(t, evt.DataAs(&payload))
	assert.Equal(t, "exploration", payload.Subject)
	assert.Equal(t, "started", payload.Action)
	assert.EqualValues(t, 3, payload.Detail["explorationIndex"])
}

func TestBusNotifyFiltersByEventType(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	var received []string
	obs := NewFunctionalObserver("obs-1", func(_ context.Context, evt CloudEvent) error {
		received = append(received, evt.Type())
		return nil
	})
	bus.RegisterObserver(obs, EventTypeInconsistency)

	bus.Notify(context.Background(), NewExplorationLifecycleEvent("run-1", "exploration", "started", nil))
	assert.Empty(t, received)

	bus.Notify(context.Background(), NewExplorationLifecycleEvent("run-1", "inconsistency", "atomicity", nil))
	require.Len(t, received, 1)
	assert.Equal(t, EventTypeInconsistency, received[0])
}

func TestBusSurvivesObserverPanic(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	panicking := NewFunctionalObserver("panicker", func(context.Context, CloudEvent) error {
		panic("boom")
	})
	calledSecond := false
	second := NewFunctionalObserver("second", func(context.Context, CloudEvent) error {
		calledSecond = true
		return nil
	})
	bus.RegisterObserver(panicking)
	bus.RegisterObserver(second)

	assert.NotPanics(t, func() {
		bus.Notify(context.Background(), NewExplorationLifecycleEvent("run-1", "exploration", "finished", nil))
	})
	assert.True(t, calledSecond)
}

func TestBusUnregisterObserverIsIdempotent(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	obs := NewFunctionalObserver("obs", func(context.Context, CloudEvent) error { return nil })
	bus.UnregisterObserver(obs)
	bus.RegisterObserver(obs)
	bus.UnregisterObserver(obs)
	bus.UnregisterObserver(obs)
}
