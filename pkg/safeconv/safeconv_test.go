package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		got := MustIntToUint32(42)
		assert.Equal(t, uint32(42), got)
	})

	t.Run("zero", func(t *testing.T) {
		t.Parallel()

		got := MustIntToUint32(0)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("max_uint32", func(t *testing.T) {
		t.Parallel()

		got := MustIntToUint32(int(MaxUint32))
		assert.Equal(t, MaxUint32, got)
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
			MustIntToUint32(-1)
		})
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
			MustIntToUint32(int(MaxUint32) + 1)
		})
	})
}

func TestMustUint32ToInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, MustUint32ToInt(0))
	assert.Equal(t, 7, MustUint32ToInt(7))
	assert.Equal(t, int(MaxUint32), MustUint32ToInt(MaxUint32))
}

func TestInt64ToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    int64
		expected int
	}{
		{name: "zero", input: 0, expected: 0},
		{name: "positive", input: 1 << 20, expected: 1 << 20},
		{name: "negative", input: -12, expected: -12},
		{name: "max_int", input: int64(MaxInt), expected: MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Int64ToInt(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	if MaxInt == math.MaxInt32 {
		_, err := Int64ToInt(math.MaxInt64)
		assert.ErrorIs(t, err, ErrOverflow)
	}
}
