package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/lincheck-go/internal/event"
	"github.com/GoCodeAlone/lincheck-go/internal/execution"
)

type stubChecker struct {
	verdict    Verdict
	checked    int
	wasReset   bool
}

func (s *stubChecker) Check(e *event.Event) Verdict { s.checked++; return s.verdict }
func (s *stubChecker) CheckFull(x *execution.Execution) Verdict { return s.verdict }
func (s *stubChecker) Reset(x *execution.Execution)  { s.wasReset = true }

func TestAggregateCheckerShortCircuitsOnFirstInconsistency(t *testing.T) {
	t.Parallel()

	bad := AtomicityViolation{}
	first := &stubChecker{verdict: Fail(bad)}
	second := &stubChecker{verdict: Ok()}

	agg := NewAggregateChecker(first, second)
	got := agg.Check(nil)

	require.Equal(t, Inconsistent, got.Status)
	assert.Equal(t, 1, first.checked)
	assert.Equal(t, 0, second.checked, "second checker must not run once the first fails")
}

func TestAggregateCheckerRunsAllWhenConsistent(t *testing.T) {
	t.Parallel()

	first := &stubChecker{verdict: Ok()}
	second := &stubChecker{verdict: Ok()}

	agg := NewAggregateChecker(first, second)
	got := agg.Check(nil)

	assert.Equal(t, Consistent, got.Status)
	assert.Equal(t, 1, first.checked)
	assert.Equal(t, 1, second.checked)
}

func TestAggregateCheckerResetsEveryChecker(t *testing.T) {
	t.Parallel()

	first := &stubChecker{verdict: Ok()}
	second := &stubChecker{verdict: Ok()}

	agg := NewAggregateChecker(first, second)
	agg.Reset(nil)

	assert.True(t, first.wasReset)
	assert.True(t, second.wasReset)
}
