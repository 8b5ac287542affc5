package datagateway

import (
	"context"

	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

// SettlementDataGateway is the persistence boundary of the settlement engine.
// Implementations must return errs.NotFound for missing rows where documented.
type SettlementDataGateway interface {
	// BeginSettlementTx opens a datastore transaction. All writes issued on
	// the returned gateway become visible atomically on Commit.
	BeginSettlementTx(ctx context.Context) (SettlementDataGatewayWithTx, error)

	// GetSponsorContract returns errs.NotFound for unknown addresses.
	GetSponsorContract(ctx context.Context, address common.Address) (*entity.SponsorContract, error)
	CreateSponsorContract(ctx context.Context, contract entity.SponsorContract) error
	UpdateSponsorConfig(ctx context.Context, address common.Address, config entity.SponsorConfig) error
	UpdateContractBalance(ctx context.Context, address common.Address, balance uint128.Uint128) error

	// GetAccountBalance returns zero for unknown accounts. Accounts are keyed
	// by canonical cross-address keys.
	GetAccountBalance(ctx context.Context, account string) (uint128.Uint128, error)
	SetAccountBalance(ctx context.Context, account string, balance uint128.Uint128) error

	GetAllowlisted(ctx context.Context, address common.Address, account string) (bool, error)
	SetAllowlisted(ctx context.Context, address common.Address, account string, allowed bool) error

	// GetLastSponsoredBlock returns errs.NotFound when the caller has no prior
	// sponsored call on the contract.
	GetLastSponsoredBlock(ctx context.Context, address common.Address, account string) (int64, error)
	SetLastSponsoredBlock(ctx context.Context, address common.Address, account string, blockHeight int64) error

	// NextBlockHeight advances and returns the engine's block height. Calls
	// observe strictly increasing heights in commit order.
	NextBlockHeight(ctx context.Context) (int64, error)

	CreateCreationRecord(ctx context.Context, record entity.CreationRecord) error
	// GetRecentCreationRecords returns at most limit records, newest first.
	GetRecentCreationRecords(ctx context.Context, address common.Address, limit int) ([]entity.CreationRecord, error)
	// PruneCreationRecords drops all but the newest keep records of a contract
	// and returns the number of rows removed.
	PruneCreationRecords(ctx context.Context, address common.Address, keep int) (int64, error)

	CreateEventWindow(ctx context.Context, window entity.EventWindow) error
	// GetEventWindow returns errs.NotFound for collections without a window.
	GetEventWindow(ctx context.Context, collection common.Address) (*entity.EventWindow, error)
}

type SettlementDataGatewayWithTx interface {
	SettlementDataGateway
	Tx
}
