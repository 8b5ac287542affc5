package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToAddress(t *testing.T) {
	addr, err := HexToAddress("0x00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, Address{19: 0xff}, addr)

	// bare hex is accepted
	bare, err := HexToAddress("00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, addr, bare)

	// "0" is the zero value
	zero, err := HexToAddress("0")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = HexToAddress("0x1234")
	require.Error(t, err)
	_, err = HexToAddress("0xzz000000000000000000000000000000000000ff")
	require.Error(t, err)
}

func TestHexToAccountID(t *testing.T) {
	id, err := HexToAccountID("0x00000000000000000000000000000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, AccountID{31: 0xff}, id)

	// 20-byte input is never widened into the 32-byte space
	_, err = HexToAccountID("0x00000000000000000000000000000000000000ff")
	require.Error(t, err)
}

func TestAddressTextRoundTrip(t *testing.T) {
	addr := Address{0: 0xab, 19: 0xcd}
	text, err := addr.MarshalText()
	require.NoError(t, err)

	var parsed Address
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, addr, parsed)
}
