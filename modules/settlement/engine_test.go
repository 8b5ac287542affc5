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
	assetstorememory "github.com/sponsornet/settlement-engine/modules/settlement/assetstore/memory"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	repositorymemory "github.com/sponsornet/settlement-engine/modules/settlement/repository/memory"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type testEnv struct {
	engine *Engine
	repo   *repositorymemory.Repository
	store  *assetstorememory.Store
	clock  *fixedClock
}

func newTestEnv(t *testing.T, options EngineOptions) *testEnv {
	t.Helper()
	clock := &fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	if options.Clock == nil {
		options.Clock = clock
	}
	repo := repositorymemory.NewRepository()
	store := assetstorememory.New()
	return &testEnv{
		engine: NewEngine(repo, store, store, options),
		repo:   repo,
		store:  store,
		clock:  clock,
	}
}

func evmAccount(b byte) crossaddr.CrossAddress {
	return crossaddr.FromEVM(common.Address{19: b})
}

func nativeAccount(b byte) crossaddr.CrossAddress {
	return crossaddr.FromNative(common.AccountID{31: b})
}

func (env *testEnv) balance(t *testing.T, account crossaddr.CrossAddress) uint128.Uint128 {
	t.Helper()
	balance, err := env.repo.GetAccountBalance(context.Background(), account.Key())
	require.NoError(t, err)
	return balance
}

func (env *testEnv) contract(t *testing.T, address common.Address) *entity.SponsorContract {
	t.Helper()
	contract, err := env.repo.GetSponsorContract(context.Background(), address)
	require.NoError(t, err)
	return contract
}

func TestDeposit(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	account := evmAccount(1)

	err := env.engine.Deposit(ctx, account, uint128.From64(1000))
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1000), env.balance(t, account))

	err = env.engine.Deposit(ctx, account, uint128.From64(500))
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1500), env.balance(t, account))

	err = env.engine.Deposit(ctx, crossaddr.CrossAddress{}, uint128.From64(1))
	require.ErrorIs(t, err, errs.InvalidIdentity)

	err = env.engine.Deposit(ctx, account, uint128.Zero)
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestDeploy(t *testing.T) {
	env := newTestEnv(t, EngineOptions{GasFeePerCall: uint128.From64(10)})
	ctx := context.Background()
	admin := evmAccount(1)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))

	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(500)}, uint128.From64(5))
	require.NoError(t, err)
	require.False(t, address.IsZero())

	// attached value plus gas left the admin's ledger
	assert.Equal(t, uint128.From64(490), env.balance(t, admin))

	contract := env.contract(t, address)
	assert.True(t, contract.Admin.Equal(admin))
	assert.Equal(t, uint128.From64(500), contract.Balance)
	assert.Equal(t, uint128.From64(5), contract.FeeAmount)
	assert.False(t, contract.Sponsoring.Enabled)
	assert.Equal(t, entity.SponsoringDisabled, contract.Sponsoring.Mode)
}

func TestDeployInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := nativeAccount(1)

	_, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(100)}, uint128.Zero)
	require.ErrorIs(t, err, errs.InsufficientFunds)

	// nothing persisted
	assert.Equal(t, uint128.Zero, env.balance(t, admin))
}

func TestSetSponsoringAdminOnly(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	stranger := evmAccount(2)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	config := entity.SponsorConfig{Enabled: true, Mode: entity.SponsoringGenerous}
	err = env.engine.SetSponsoring(ctx, Call{Caller: stranger}, address, config)
	require.ErrorIs(t, err, errs.Unauthorized)

	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, config)
	require.NoError(t, err)

	contract := env.contract(t, address)
	assert.True(t, contract.Sponsoring.Enabled)
	assert.Equal(t, entity.SponsoringGenerous, contract.Sponsoring.Mode)

	// invalid mode and attached value are rejected
	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, entity.SponsorConfig{Mode: 7})
	require.ErrorIs(t, err, errs.InvalidArgument)
	err = env.engine.SetSponsoring(ctx, Call{Caller: admin, Value: uint128.From64(1)}, address, config)
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestSponsorshipGenerous(t *testing.T) {
	env := newTestEnv(t, EngineOptions{GasFeePerCall: uint128.From64(10)})
	ctx := context.Background()
	admin := evmAccount(1)
	user := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(500)}, uint128.Zero)
	require.NoError(t, err)

	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	// sponsoring disabled: a caller with no balance cannot pay gas
	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.ErrorIs(t, err, errs.InsufficientFunds)

	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, entity.SponsorConfig{
		Enabled: true,
		Mode:    entity.SponsoringGenerous,
	})
	require.NoError(t, err)
	balanceBefore := env.contract(t, address).Balance

	tokenID, err := env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.NoError(t, err)
	assert.NotZero(t, tokenID)

	// gas came out of the contract, not the user
	assert.Equal(t, uint128.Zero, env.balance(t, user))
	assert.Equal(t, balanceBefore.Sub(uint128.From64(10)), env.contract(t, address).Balance)
}

func TestSponsorshipAllowlisted(t *testing.T) {
	env := newTestEnv(t, EngineOptions{GasFeePerCall: uint128.From64(10)})
	ctx := context.Background()
	admin := evmAccount(1)
	user := nativeAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(500)}, uint128.Zero)
	require.NoError(t, err)
	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, entity.SponsorConfig{
		Enabled: true,
		Mode:    entity.SponsoringAllowlisted,
	})
	require.NoError(t, err)

	// not allowlisted: caller pays, and has nothing to pay with
	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.ErrorIs(t, err, errs.InsufficientFunds)

	err = env.engine.SetAllowlisted(ctx, Call{Caller: admin}, address, user, true)
	require.NoError(t, err)

	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.NoError(t, err)
	assert.Equal(t, uint128.Zero, env.balance(t, user))
}

func TestSponsorshipRateLimit(t *testing.T) {
	env := newTestEnv(t, EngineOptions{GasFeePerCall: uint128.From64(10)})
	ctx := context.Background()
	admin := evmAccount(1)
	user := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(500)}, uint128.Zero)
	require.NoError(t, err)
	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, entity.SponsorConfig{
		Enabled:         true,
		Mode:            entity.SponsoringGenerous,
		RateLimitBlocks: 2,
	})
	require.NoError(t, err)

	// first call is always sponsored
	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.NoError(t, err)

	// next block is inside the rate-limit window: caller pays
	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.ErrorIs(t, err, errs.InsufficientFunds)

	// two unrelated calls advance the block height past the window
	_, _, err = env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "more"})
	require.NoError(t, err)
	_, _, err = env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "even more"})
	require.NoError(t, err)

	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.NoError(t, err)
	assert.Equal(t, uint128.Zero, env.balance(t, user))
}

func TestSponsorshipUnderfundedFallsBackToCaller(t *testing.T) {
	env := newTestEnv(t, EngineOptions{GasFeePerCall: uint128.From64(10)})
	ctx := context.Background()
	admin := evmAccount(1)
	user := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))
	require.NoError(t, env.engine.Deposit(ctx, user, uint128.From64(100)))
	// contract escrow covers nothing beyond the admin's own calls
	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(5)}, uint128.Zero)
	require.NoError(t, err)
	collection, _, err := env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "arts"})
	require.NoError(t, err)

	err = env.engine.SetSponsoring(ctx, Call{Caller: admin}, address, entity.SponsorConfig{
		Enabled: true,
		Mode:    entity.SponsoringGenerous,
	})
	require.NoError(t, err)

	_, err = env.engine.MintToken(ctx, Call{Caller: user}, address, MintTokenParams{Collection: collection})
	require.NoError(t, err)

	// the user paid: the escrow cannot cover the fee
	assert.Equal(t, uint128.From64(90), env.balance(t, user))
	assert.Equal(t, uint128.From64(5), env.contract(t, address).Balance)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	stranger := evmAccount(2)

	require.NoError(t, env.engine.Deposit(ctx, admin, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin, Value: uint128.From64(800)}, uint128.Zero)
	require.NoError(t, err)

	err = env.engine.Withdraw(ctx, Call{Caller: stranger}, address, uint128.From64(100))
	require.ErrorIs(t, err, errs.Unauthorized)

	err = env.engine.Withdraw(ctx, Call{Caller: admin}, address, uint128.From64(900))
	require.ErrorIs(t, err, errs.InsufficientFunds)

	err = env.engine.Withdraw(ctx, Call{Caller: admin}, address, uint128.From64(300))
	require.NoError(t, err)

	assert.Equal(t, uint128.From64(500), env.contract(t, address).Balance)
	assert.Equal(t, uint128.From64(500), env.balance(t, admin))
}

func TestBlockHeightAdvancesPerCall(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)

	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	_, _, err = env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "a"})
	require.NoError(t, err)
	_, _, err = env.engine.CreateAndMint(ctx, Call{Caller: admin}, address, CreateAndMintParams{Name: "b"})
	require.NoError(t, err)

	records, err := env.repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// newest first, strictly increasing heights
	assert.Greater(t, records[0].BlockHeight, records[1].BlockHeight)
}
