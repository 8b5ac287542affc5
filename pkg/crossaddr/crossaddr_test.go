package crossaddr

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
)

func mustAddress(t *testing.T, s string) common.Address {
	t.Helper()
	addr, err := common.HexToAddress(s)
	require.NoError(t, err)
	return addr
}

func mustAccountID(t *testing.T, s string) common.AccountID {
	t.Helper()
	id, err := common.HexToAccountID(s)
	require.NoError(t, err)
	return id
}

func TestResolveEVMOnly(t *testing.T) {
	eth := mustAddress(t, "0xa91f3d0bd99d78d39d36f553895fe51374e837e3")

	resolved, err := Resolve(eth, common.AccountID{})
	require.NoError(t, err)

	assert.Equal(t, SpaceEVM, resolved.Space())
	got, ok := resolved.EVM()
	assert.True(t, ok)
	assert.Equal(t, eth, got)

	// opposite field must be the absent marker
	sub, ok := resolved.Native()
	assert.False(t, ok)
	assert.True(t, sub.IsZero())
}

func TestResolveNativeOnly(t *testing.T) {
	sub := mustAccountID(t, "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	resolved, err := Resolve(common.Address{}, sub)
	require.NoError(t, err)

	assert.Equal(t, SpaceNative, resolved.Space())
	got, ok := resolved.Native()
	assert.True(t, ok)
	assert.Equal(t, sub, got)

	eth, ok := resolved.EVM()
	assert.False(t, ok)
	assert.True(t, eth.IsZero())
}

func TestResolveAmbiguous(t *testing.T) {
	eth := mustAddress(t, "0xa91f3d0bd99d78d39d36f553895fe51374e837e3")
	sub := mustAccountID(t, "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	_, err := Resolve(eth, sub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidIdentity))
}

func TestResolveEmpty(t *testing.T) {
	_, err := Resolve(common.Address{}, common.AccountID{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidIdentity))
}

func TestEqualitySameSpaceOnly(t *testing.T) {
	eth := mustAddress(t, "0xa91f3d0bd99d78d39d36f553895fe51374e837e3")
	var sub common.AccountID
	copy(sub[:], eth.Bytes()) // same leading bytes, different space

	a := FromEVM(eth)
	b := FromNative(sub)

	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, a.Equal(FromEVM(eth)))
}

func TestJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Space
	}{
		{name: "evm owner", in: `{"eth":"0xa91f3d0bd99d78d39d36f553895fe51374e837e3","sub":"0"}`, want: SpaceEVM},
		{name: "native owner", in: `{"eth":"0x0000000000000000000000000000000000000000","sub":"0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"}`, want: SpaceNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c CrossAddress
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c.Space())

			out, err := json.Marshal(c)
			require.NoError(t, err)

			var back CrossAddress
			require.NoError(t, json.Unmarshal(out, &back))
			assert.True(t, c.Equal(back))
		})
	}
}

func TestJSONAmbiguousRejected(t *testing.T) {
	in := `{"eth":"0xa91f3d0bd99d78d39d36f553895fe51374e837e3","sub":"0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"}`
	var c CrossAddress
	err := json.Unmarshal([]byte(in), &c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidIdentity))
}
