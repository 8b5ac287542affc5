package settlement

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/assetstore"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

type CreateAndMintParams struct {
	Name        string
	Symbol      string
	Description string
	BaseURI     string
	// Owner receives the collection and its initial token. Defaults to the caller.
	Owner crossaddr.CrossAddress

	TokenURI         string
	TokenName        string
	TokenDescription string
	TokenAttributes  []entity.TokenAttribute
}

type MintTokenParams struct {
	Collection  common.Address
	TokenURI    string
	Name        string
	Description string
	Attributes  []entity.TokenAttribute
	// Owner receives the token. Defaults to the caller.
	Owner crossaddr.CrossAddress
}

// CreateAndMint charges the contract's creation fee, creates a collection and
// mints its initial token in one call. One collection record is appended to
// the contract's creation log.
func (e *Engine) CreateAndMint(ctx context.Context, call Call, address common.Address, params CreateAndMintParams) (common.Address, uint64, error) {
	if params.Name == "" {
		return common.Address{}, 0, errors.Wrap(errs.InvalidArgument, "collection name must not be empty")
	}
	var (
		collection common.Address
		tokenID    uint64
	)
	err := e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		contract, err := e.loadContract(ctx, dg, address)
		if err != nil {
			return err
		}
		if err := e.beginCall(ctx, dg, call); err != nil {
			return err
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}
		if err := chargeCreationFee(ctx, dg, contract, call); err != nil {
			return err
		}

		owner := call.Caller
		if !params.Owner.IsZero() {
			owner = params.Owner
		}
		collection, err = e.assets.CreateCollection(ctx, assetstore.CreateCollectionParams{
			Name:        params.Name,
			Symbol:      params.Symbol,
			Description: params.Description,
			BaseURI:     params.BaseURI,
			Owner:       owner,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create collection")
		}
		tokenID, err = e.assets.MintToken(ctx, assetstore.MintTokenParams{
			Collection:  collection,
			TokenURI:    params.TokenURI,
			Name:        params.TokenName,
			Description: params.TokenDescription,
			Attributes:  params.TokenAttributes,
			Owner:       owner,
		})
		if err != nil {
			return errors.Wrap(err, "failed to mint initial token")
		}

		if err := e.appendCreationRecord(ctx, dg, entity.CreationRecord{
			ContractAddress: address,
			Kind:            entity.CreationKindCollection,
			Creator:         call.Caller,
			AssetAddress:    collection,
			TokenID:         tokenID,
			BlockHeight:     height,
			Timestamp:       e.clock.Now(),
		}); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Created collection with initial token",
			slogx.Stringer("contract", address),
			slogx.Stringer("collection", collection),
			slogx.Uint64("tokenId", tokenID),
		)
		return nil
	})
	if err != nil {
		return common.Address{}, 0, err
	}
	return collection, tokenID, nil
}

// MintToken mints a follow-up token into an existing collection. No creation
// fee applies; gas is still settled. One token record is appended.
func (e *Engine) MintToken(ctx context.Context, call Call, address common.Address, params MintTokenParams) (uint64, error) {
	if err := requireNoValue(call); err != nil {
		return 0, err
	}
	var tokenID uint64
	err := e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		contract, err := e.loadContract(ctx, dg, address)
		if err != nil {
			return err
		}
		if err := e.beginCall(ctx, dg, call); err != nil {
			return err
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}

		owner := call.Caller
		if !params.Owner.IsZero() {
			owner = params.Owner
		}
		tokenID, err = e.assets.MintToken(ctx, assetstore.MintTokenParams{
			Collection:  params.Collection,
			TokenURI:    params.TokenURI,
			Name:        params.Name,
			Description: params.Description,
			Attributes:  params.Attributes,
			Owner:       owner,
		})
		if err != nil {
			return errors.Wrap(err, "failed to mint token")
		}

		return e.appendCreationRecord(ctx, dg, entity.CreationRecord{
			ContractAddress: address,
			Kind:            entity.CreationKindToken,
			Creator:         call.Caller,
			AssetAddress:    params.Collection,
			TokenID:         tokenID,
			BlockHeight:     height,
			Timestamp:       e.clock.Now(),
		})
	})
	if err != nil {
		return 0, err
	}
	return tokenID, nil
}

// appendCreationRecord writes one log entry and prunes the contract's log to
// the configured retention.
func (e *Engine) appendCreationRecord(ctx context.Context, dg datagateway.SettlementDataGateway, record entity.CreationRecord) error {
	if err := dg.CreateCreationRecord(ctx, record); err != nil {
		return errors.Wrap(err, "failed to append creation record")
	}
	removed, err := dg.PruneCreationRecords(ctx, record.ContractAddress, e.logRetention)
	if err != nil {
		return errors.Wrap(err, "failed to prune creation records")
	}
	if removed > 0 {
		logger.DebugContext(ctx, "Pruned creation log",
			slogx.Stringer("contract", record.ContractAddress),
			slogx.Int64("removed", removed),
		)
	}
	return nil
}
