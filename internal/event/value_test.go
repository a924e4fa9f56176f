package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceValueConvertsAcrossTags(t *testing.T) {
	t.Parallel()

	v, err := CoerceValue("42", TypeInt)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = CoerceValue(1, TypeBool)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = CoerceValue(3.5, TypeString)
	require.NoError(t, err)
	assert.Equal(t, "3.5", v)
}

func TestCoerceValueRejectsUnknownTag(t *testing.T) {
	t.Parallel()

	_, err := CoerceValue(1, TypeTag("duration"))
	assert.Error(t, err)
}

func TestDefaultValueMatchesTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, DefaultValue(TypeInt))
	assert.Equal(t, int64(0), DefaultValue(TypeInt64))
	assert.Equal(t, false, DefaultValue(TypeBool))
	assert.Equal(t, "", DefaultValue(TypeString))
	assert.Equal(t, float64(0), DefaultValue(TypeFloat))
	assert.Nil(t, DefaultValue(TypeTag("duration")))
}
