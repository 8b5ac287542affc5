package settlement

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type batchFixture struct {
	env     *testEnv
	address common.Address
	seller  crossaddr.CrossAddress
	buyer   crossaddr.CrossAddress
	items   []entity.SaleItem
}

// newBatchFixture deploys a contract and puts two tokens, in separate
// collections, up for sale by the same seller. Only the tokens of approved
// collections can be settled.
func newBatchFixture(t *testing.T, approveAll bool) *batchFixture {
	t.Helper()
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	admin := evmAccount(1)
	seller := evmAccount(2)
	buyer := nativeAccount(3)

	require.NoError(t, env.engine.Deposit(ctx, buyer, uint128.From64(1000)))
	address, err := env.engine.Deploy(ctx, Call{Caller: admin}, uint128.Zero)
	require.NoError(t, err)

	items := make([]entity.SaleItem, 0, 2)
	for i, price := range []uint64{100, 250} {
		collection, tokenID, err := env.engine.CreateAndMint(ctx, Call{Caller: seller}, address, CreateAndMintParams{Name: "lot"})
		require.NoError(t, err)
		if approveAll || i == 0 {
			require.NoError(t, env.store.SetTransferApproval(ctx, collection, seller, address, true))
		}
		items = append(items, entity.SaleItem{
			Collection: collection,
			TokenID:    tokenID,
			Price:      uint128.From64(price),
			Currency:   entity.CurrencyNative,
		})
	}

	return &batchFixture{
		env:     env,
		address: address,
		seller:  seller,
		buyer:   buyer,
		items:   items,
	}
}

func TestExecuteBatch(t *testing.T) {
	f := newBatchFixture(t, true)
	ctx := context.Background()

	receipts, err := f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer, Value: uint128.From64(350)}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
		Items:       f.items,
	})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, 1, receipts[0].Index)
	assert.Equal(t, 2, receipts[1].Index)

	// ownership moved to the buyer
	for _, item := range f.items {
		owner, err := f.env.store.OwnerOf(ctx, item.Collection, item.TokenID)
		require.NoError(t, err)
		assert.True(t, owner.Equal(f.buyer))
	}

	// proceeds landed on the seller's ledger, value left the buyer
	assert.Equal(t, uint128.From64(350), f.env.balance(t, f.seller))
	assert.Equal(t, uint128.From64(650), f.env.balance(t, f.buyer))
}

func TestExecuteBatchAllOrNothing(t *testing.T) {
	f := newBatchFixture(t, false)
	ctx := context.Background()

	_, err := f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer, Value: uint128.From64(350)}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
		Items:       f.items,
	})
	require.ErrorIs(t, err, errs.BatchSettlementFailed)

	// the failure names the second item
	batchErr := new(BatchError)
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 2, batchErr.Index)

	// nothing settled: both tokens stay with the seller, no money moved
	for _, item := range f.items {
		owner, err := f.env.store.OwnerOf(ctx, item.Collection, item.TokenID)
		require.NoError(t, err)
		assert.True(t, owner.Equal(f.seller))
	}
	assert.Equal(t, uint128.Zero, f.env.balance(t, f.seller))
	assert.Equal(t, uint128.From64(1000), f.env.balance(t, f.buyer))
}

func TestExecuteBatchValueMustMatchPriceSum(t *testing.T) {
	f := newBatchFixture(t, true)
	ctx := context.Background()

	_, err := f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer, Value: uint128.From64(349)}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
		Items:       f.items,
	})
	require.ErrorIs(t, err, errs.InvalidArgument)

	_, err = f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
	})
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestExecuteBatchTokenCurrency(t *testing.T) {
	f := newBatchFixture(t, true)
	ctx := context.Background()
	const currency = entity.Currency(7)

	// reprice the second item in a payment token
	f.items[1].Currency = currency
	f.items[1].Price = uint128.From64(40)
	f.env.store.SetTokenBalance(currency, f.buyer, uint128.From64(100))

	receipts, err := f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer, Value: uint128.From64(100)}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
		Items:       f.items,
	})
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	// native price settled on the ledger, token price through the payment contract
	assert.Equal(t, uint128.From64(100), f.env.balance(t, f.seller))
	assert.Equal(t, uint128.From64(40), f.env.store.TokenBalance(currency, f.seller))
	assert.Equal(t, uint128.From64(60), f.env.store.TokenBalance(currency, f.buyer))
}

func TestExecuteBatchTokenCurrencyRollsBack(t *testing.T) {
	f := newBatchFixture(t, true)
	ctx := context.Background()
	const currency = entity.Currency(7)

	// the buyer cannot cover the token price; the native item settles first
	// and must be reversed
	f.items[1].Currency = currency
	f.items[1].Price = uint128.From64(40)

	_, err := f.env.engine.ExecuteBatch(ctx, Call{Caller: f.buyer, Value: uint128.From64(100)}, f.address, entity.BatchSaleRequest{
		Destination: f.buyer,
		Items:       f.items,
	})
	require.ErrorIs(t, err, errs.BatchSettlementFailed)

	batchErr := new(BatchError)
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 2, batchErr.Index)

	owner, err := f.env.store.OwnerOf(ctx, f.items[0].Collection, f.items[0].TokenID)
	require.NoError(t, err)
	assert.True(t, owner.Equal(f.seller))
	assert.Equal(t, uint128.From64(1000), f.env.balance(t, f.buyer))
}
