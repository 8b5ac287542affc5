package settlement

import (
	"context"
	"time"

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

type CreateEventParams struct {
	Name        string
	Symbol      string
	Description string
	BaseURI     string

	StartTimestamp time.Time
	EndTimestamp   time.Time

	// TokenImage and TokenAttributes are stamped onto every token minted
	// within the event window.
	TokenImage      string
	TokenAttributes []entity.TokenAttribute
}

// CreateEvent creates a time-boxed event collection. The creation fee is
// charged unconditionally: it buys the right to run the event, not a
// successful mint. The window is immutable once created.
func (e *Engine) CreateEvent(ctx context.Context, call Call, address common.Address, params CreateEventParams) (common.Address, error) {
	if params.Name == "" {
		return common.Address{}, errors.Wrap(errs.InvalidArgument, "event name must not be empty")
	}
	if !params.StartTimestamp.Before(params.EndTimestamp) {
		return common.Address{}, errors.Wrap(errs.InvalidArgument, "event window must start before it ends")
	}
	var collection common.Address
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

		collection, err = e.assets.CreateCollection(ctx, assetstore.CreateCollectionParams{
			Name:        params.Name,
			Symbol:      params.Symbol,
			Description: params.Description,
			BaseURI:     params.BaseURI,
			Owner:       call.Caller,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create event collection")
		}

		if err := dg.CreateEventWindow(ctx, entity.EventWindow{
			ContractAddress:   address,
			CollectionAddress: collection,
			Host:              call.Caller,
			StartTimestamp:    params.StartTimestamp,
			EndTimestamp:      params.EndTimestamp,
			FeePaid:           call.Value,
			TokenImage:        params.TokenImage,
			TokenAttributes:   params.TokenAttributes,
		}); err != nil {
			return errors.Wrap(err, "failed to create event window")
		}

		if err := e.appendCreationRecord(ctx, dg, entity.CreationRecord{
			ContractAddress: address,
			Kind:            entity.CreationKindCollection,
			Creator:         call.Caller,
			AssetAddress:    collection,
			BlockHeight:     height,
			Timestamp:       e.clock.Now(),
		}); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Created event",
			slogx.Stringer("contract", address),
			slogx.Stringer("collection", collection),
			slogx.Time("start", params.StartTimestamp),
			slogx.Time("end", params.EndTimestamp),
		)
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return collection, nil
}

// MintInEvent mints the event's fixed token to owner. Valid only while the
// current time falls inside the event's half-open window; no fee applies.
func (e *Engine) MintInEvent(ctx context.Context, call Call, address common.Address, collection common.Address, owner crossaddr.CrossAddress) (uint64, error) {
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
		window, err := dg.GetEventWindow(ctx, collection)
		if err != nil {
			return errors.WithStack(err)
		}
		if window.ContractAddress != address {
			return errors.Wrapf(errs.InvalidArgument, "event %s belongs to contract %s", collection, window.ContractAddress)
		}
		if err := e.beginCall(ctx, dg, call); err != nil {
			return err
		}
		if now := e.clock.Now(); !window.Contains(now) {
			return errors.Wrapf(errs.OutsideWindow, "event runs %s to %s", window.StartTimestamp, window.EndTimestamp)
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}

		recipient := call.Caller
		if !owner.IsZero() {
			recipient = owner
		}
		tokenID, err = e.assets.MintToken(ctx, assetstore.MintTokenParams{
			Collection: collection,
			TokenURI:   window.TokenImage,
			Attributes: window.TokenAttributes,
			Owner:      recipient,
		})
		if err != nil {
			return errors.Wrap(err, "failed to mint event token")
		}

		return e.appendCreationRecord(ctx, dg, entity.CreationRecord{
			ContractAddress: address,
			Kind:            entity.CreationKindToken,
			Creator:         call.Caller,
			AssetAddress:    collection,
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
