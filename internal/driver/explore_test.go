package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/options"
)

// TestStartNextExplorationBacktracksThroughBothOutcomes exercises spec's
// canonical two-outcome scenario: one thread writes a location, another
// reads it. The first exploration elects the write (most recent sender);
// backtracking to the candidate that lost that election re-derives the
// other outcome (reading the location's never-written default), and a
// third StartNextExploration call finds nothing left to backtrack to.
func TestStartNextExplorationBacktracksThroughBothOutcomes(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	loc := event.Location{Object: 1}
	var observed []any
	explorations := 0

	for {
		require.NoError(t, e.AddWrite(0, loc, 1, event.TypeInt, false))
		v, err := e.AddRead(1, loc, event.TypeInt, false)
		require.NoError(t, err)
		observed = append(observed, v)
		explorations++

		more, err := e.StartNextExploration()
		require.NoError(t, err)
		if !more {
			break
		}
		require.Less(t, explorations, 10, "exploration did not terminate")
	}

	assert.Equal(t, 2, explorations)
	assert.ElementsMatch(t, []any{0, 1}, observed)
}

// TestStartNextExplorationReturnsFalseWithNothingToExplore covers the
// no-branching case: a read of a location nobody ever wrote only ever
// matches the single run-wide Initialization event, so electBinary never
// mints a losing candidate and the very first call finds the arena fully
// visited.
func TestStartNextExplorationReturnsFalseWithNothingToExplore(t *testing.T) {
	event.ResetPredCache()
	e := NewEngine(options.Config{}, nil, nil)
	require.NoError(t, e.InitializeExploration())

	loc := event.Location{Object: 1}
	v, err := e.AddRead(0, loc, event.TypeInt, false)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	more, err := e.StartNextExploration()
	require.NoError(t, err)
	assert.False(t, more)
}
