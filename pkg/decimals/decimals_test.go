package decimals

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	assert.Equal(t, "1.5", ToDecimal(uint128.From64(1_500_000_000_000_000_000), 18).String())
	assert.Equal(t, "0.000000000000000001", ToDecimal(uint128.From64(1), 18).String())
	assert.Equal(t, "0", ToDecimal(uint128.Zero, 18).String())
}

func TestFromDecimal(t *testing.T) {
	value, err := FromDecimal(MustFromString("1.5"), 18)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1_500_000_000_000_000_000), value)

	// below the smallest unit
	_, err = FromDecimal(MustFromString("0.0000000000000000001"), 18)
	require.Error(t, err)

	_, err = FromDecimal(MustFromString("-1"), 18)
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	original := uint128.From64(123_456_789)
	value, err := FromDecimal(ToDecimal(original, 8), 8)
	require.NoError(t, err)
	assert.Equal(t, original, value)
}
