package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

func setupEvent(t *testing.T, env *testEnv, feeAmount uint64) (common.Address, common.Address, crossaddr.CrossAddress, entity.EventWindow) {
	t.Helper()
	ctx := context.Background()
	admin := evmAccount(1)
	host := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, host, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.From64(feeAmount))
	require.NoError(t, err)

	start := env.clock.now.Add(10 * time.Minute)
	end := env.clock.now.Add(20 * time.Minute)
	collection, err := env.engine.CreateEvent(ctx, Call{Caller: host, Value: uint128.From64(feeAmount)}, address, CreateEventParams{
		Name:           "conference badge",
		StartTimestamp: start,
		EndTimestamp:   end,
		TokenImage:     "ipfs://badge",
		TokenAttributes: []entity.TokenAttribute{
			{TraitType: "event", Value: "conference"},
		},
	})
	require.NoError(t, err)

	window, err := env.repo.GetEventWindow(ctx, collection)
	require.NoError(t, err)
	return address, collection, host, *window
}

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	address, collection, host, window := setupEvent(t, env, 5)

	assert.True(t, window.Host.Equal(host))
	assert.Equal(t, uint128.From64(5), window.FeePaid)
	assert.Equal(t, "ipfs://badge", window.TokenImage)

	// the fee was escrowed into the contract
	assert.Equal(t, uint128.From64(5), env.contract(t, address).Balance)

	// one collection record appended
	records, err := env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.CreationKindCollection, records[0].Kind)
	assert.Equal(t, collection, records[0].AssetAddress)
}

func TestCreateEventInsufficientFee(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	host := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, host, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.From64(5))
	require.NoError(t, err)

	_, err = env.engine.CreateEvent(ctx, Call{Caller: host, Value: uint128.From64(4)}, address, CreateEventParams{
		Name:           "conference badge",
		StartTimestamp: env.clock.now,
		EndTimestamp:   env.clock.now.Add(time.Hour),
	})
	require.ErrorIs(t, err, errs.InsufficientFee)
	assert.Equal(t, uint128.From64(1000), env.balance(t, host))
}

func TestCreateEventInvalidWindow(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	_, err = env.engine.CreateEvent(ctx, Call{Caller: admin}, address, CreateEventParams{
		Name:           "badge",
		StartTimestamp: env.clock.now.Add(time.Hour),
		EndTimestamp:   env.clock.now.Add(time.Hour),
	})
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestMintInEventWindowBoundaries(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	address, collection, _, window := setupEvent(t, env, 0)
	visitor := nativeAccount(7)

	// before the window opens
	_, err := env.engine.MintInEvent(ctx, Call{Caller: visitor}, address, collection, crossaddr.CrossAddress{})
	require.ErrorIs(t, err, errs.OutsideWindow)

	// exactly at the start: the window is inclusive
	env.clock.now = window.StartTimestamp
	tokenID, err := env.engine.MintInEvent(ctx, Call{Caller: visitor}, address, collection, crossaddr.CrossAddress{})
	require.NoError(t, err)

	owner, err := env.store.OwnerOf(ctx, collection, tokenID)
	require.NoError(t, err)
	assert.True(t, owner.Equal(visitor))

	// inside the window, minting to an explicit recipient
	env.clock.now = window.StartTimestamp.Add(time.Minute)
	friend := nativeAccount(8)
	tokenID, err = env.engine.MintInEvent(ctx, Call{Caller: visitor}, address, collection, friend)
	require.NoError(t, err)
	owner, err = env.store.OwnerOf(ctx, collection, tokenID)
	require.NoError(t, err)
	assert.True(t, owner.Equal(friend))

	// exactly at the end: the window is exclusive
	env.clock.now = window.EndTimestamp
	_, err = env.engine.MintInEvent(ctx, Call{Caller: visitor}, address, collection, crossaddr.CrossAddress{})
	require.ErrorIs(t, err, errs.OutsideWindow)
}

func TestMintInEventUnknownCollection(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	_, err = env.engine.MintInEvent(ctx, Call{Caller: admin}, address, common.Address{19: 0xff}, crossaddr.CrossAddress{})
	require.ErrorIs(t, err, errs.NotFound)
}
