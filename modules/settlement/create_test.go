package settlement

import (
	"context"
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

func TestCreateAndMintChargesFee(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	creator := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, creator, uint128.From64(100)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.From64(25))
	require.NoError(t, err)

	// attached value below the configured fee
	_, _, err = env.engine.CreateAndMint(ctx, Call{Caller: creator, Value: uint128.From64(24)}, address, CreateAndMintParams{Name: "arts"})
	require.ErrorIs(t, err, errs.InsufficientFee)

	// nothing happened: value refunded by rollback, no records
	assert.Equal(t, uint128.From64(100), env.balance(t, creator))
	records, err := env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	collection, tokenID, err := env.engine.CreateAndMint(ctx, Call{Caller: creator, Value: uint128.From64(25)}, address, CreateAndMintParams{
		Name:     "arts",
		TokenURI: "ipfs://initial",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokenID)

	// the full attached value is escrowed into the contract
	assert.Equal(t, uint128.From64(75), env.balance(t, creator))
	assert.Equal(t, uint128.From64(25), env.contract(t, address).Balance)

	// the initial token belongs to the creator
	owner, err := env.store.OwnerOf(ctx, collection, tokenID)
	require.NoError(t, err)
	assert.True(t, owner.Equal(creator))

	records, err = env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.CreationKindCollection, records[0].Kind)
	assert.Equal(t, collection, records[0].AssetAddress)
	assert.True(t, records[0].Creator.Equal(creator))
}

func TestCreateAndMintExplicitOwner(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	recipient := nativeAccount(9)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	collection, tokenID, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{
		Name:  "gifts",
		Owner: recipient,
	})
	require.NoError(t, err)

	owner, err := env.store.OwnerOf(ctx, collection, tokenID)
	require.NoError(t, err)
	assert.True(t, owner.Equal(recipient))
}

func TestMintTokenAppendsTokenRecord(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)
	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	tokenID, err := env.engine.MintToken(ctx, Call{Caller: admin}, address, MintTokenParams{
		Collection: collection,
		TokenURI:   "ipfs://second",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tokenID)

	// follow-up mints take no attached value
	_, err = env.engine.MintToken(ctx, Call{Caller: admin, Value: uint128.From64(1)}, address, MintTokenParams{Collection: collection})
	require.ErrorIs(t, err, errs.InvalidArgument)

	records, err := env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.CreationKindToken, records[0].Kind)
	assert.Equal(t, uint64(2), records[0].TokenID)
}

func TestCreationLogRetention(t *testing.T) {
	env := newTestEnv(t, EngineOptions{CreationLogRetention: 3})
	ctx := context.Background()
	admin := evmAccount(1)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)
	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	var lastTokenID uint64
	for i := 0; i < 5; i++ {
		lastTokenID, err = env.engine.MintToken(ctx, Call{Caller: admin}, address, MintTokenParams{Collection: collection})
		require.NoError(t, err)
	}

	records, err := env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, lastTokenID, records[0].TokenID)
	assert.Equal(t, lastTokenID-1, records[1].TokenID)
	assert.Equal(t, lastTokenID-2, records[2].TokenID)
}
