package memory

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

func testContract(address common.Address) entity.SponsorContract {
	return entity.SponsorContract{
		Address:   address,
		Admin:     crossaddr.FromEVM(common.Address{19: 1}),
		Balance:   uint128.From64(100),
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTxCommitPublishes(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	address := common.Address{19: 0xaa}

	tx, err := repo.BeginSettlementTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateSponsorContract(ctx, testContract(address)))
	require.NoError(t, tx.Commit(ctx))

	contract, err := repo.GetSponsorContract(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(100), contract.Balance)
}

func TestTxRollbackDiscards(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	address := common.Address{19: 0xaa}

	tx, err := repo.BeginSettlementTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateSponsorContract(ctx, testContract(address)))
	require.NoError(t, tx.SetAccountBalance(ctx, "evm:0x01", uint128.From64(7)))
	require.NoError(t, tx.Rollback(ctx))

	_, err = repo.GetSponsorContract(ctx, address)
	require.ErrorIs(t, err, errs.NotFound)
	balance, err := repo.GetAccountBalance(ctx, "evm:0x01")
	require.NoError(t, err)
	assert.Equal(t, uint128.Zero, balance)

	// a finished transaction tolerates another rollback
	require.NoError(t, tx.Rollback(ctx))
}

func TestBlockHeightDiscardedOnRollback(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	tx, err := repo.BeginSettlementTx(ctx)
	require.NoError(t, err)
	height, err := tx.NextBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), height)
	require.NoError(t, tx.Rollback(ctx))

	tx, err = repo.BeginSettlementTx(ctx)
	require.NoError(t, err)
	height, err = tx.NextBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), height)
	require.NoError(t, tx.Commit(ctx))

	tx, err = repo.BeginSettlementTx(ctx)
	require.NoError(t, err)
	height, err = tx.NextBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), height)
	require.NoError(t, tx.Commit(ctx))
}

func TestCreationRecordsNewestFirst(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	address := common.Address{19: 0xaa}

	for height := int64(1); height <= 5; height++ {
		require.NoError(t, repo.CreateCreationRecord(ctx, entity.CreationRecord{
			ContractAddress: address,
			Kind:            entity.CreationKindToken,
			BlockHeight:     height,
		}))
	}

	records, err := repo.GetRecentCreationRecords(ctx, address, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(5), records[0].BlockHeight)
	assert.Equal(t, int64(3), records[2].BlockHeight)

	removed, err := repo.PruneCreationRecords(ctx, address, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	records, err = repo.GetRecentCreationRecords(ctx, address, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(5), records[0].BlockHeight)
	assert.Equal(t, int64(4), records[1].BlockHeight)
}

func TestAllowlistScopedPerContract(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	first := common.Address{19: 0xaa}
	second := common.Address{19: 0xbb}

	require.NoError(t, repo.SetAllowlisted(ctx, first, "evm:0x02", true))

	allowed, err := repo.GetAllowlisted(ctx, first, "evm:0x02")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.GetAllowlisted(ctx, second, "evm:0x02")
	require.NoError(t, err)
	assert.False(t, allowed)
}
