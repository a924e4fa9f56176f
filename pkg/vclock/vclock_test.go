package vclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorClockObservesAndUpdate(t *testing.T) {
	t.Parallel()

	c := New[int]()
	assert.False(t, c.Observes(1, 1))

	c = c.Update(1, 3)
	assert.True(t, c.Observes(1, 3))
	assert.True(t, c.Observes(1, 2))
	assert.False(t, c.Observes(1, 4))
	assert.Equal(t, 0, c.Get(2))
}

func TestVectorClockUpdatePanicsOnRegression(t *testing.T) {
	t.Parallel()

	c := New[int]().Update(1, 5)
	assert.Panics(t, func() {
		c.Update(1, 4)
	})
}

func TestVectorClockMergeIsPointwiseMax(t *testing.T) {
	t.Parallel()

	a := New[int]().Update(1, 5).Update(2, 1)
	b := New[int]().Update(1, 2).Update(3, 7)

	merged := a.Merge(b)
	assert.Equal(t, 5, merged.Get(1))
	assert.Equal(t, 1, merged.Get(2))
	assert.Equal(t, 7, merged.Get(3))
}

func TestVectorClockLessOrEqual(t *testing.T) {
	t.Parallel()

	a := New[int]().Update(1, 2)
	b := New[int]().Update(1, 3).Update(2, 9)
	assert.True(t, a.LessOrEqual(b))
	assert.False(t, b.LessOrEqual(a))
}

func TestVectorClockImmutability(t *testing.T) {
	t.Parallel()

	a := New[int]().Update(1, 1)
	b := a.Update(1, 2)
	assert.Equal(t, 1, a.Get(1))
	assert.Equal(t, 2, b.Get(1))
}
