package settlement

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

// BatchError attributes a batch settlement failure to one item. Index is the
// 1-based position of the failing item; errors.Is matches it against
// errs.BatchSettlementFailed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch settlement failed at item %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func (e *BatchError) Is(target error) bool { return target == errs.BatchSettlementFailed }

func batchItemError(index int, err error) error {
	return errors.WithStack(&BatchError{Index: index, Err: err})
}

// ExecuteBatch settles a batch sale all-or-nothing. Every item's holder must
// have approved the contract for transfers; the attached value must equal the
// sum of native-currency prices. Native proceeds credit the holders' ledger
// accounts; other currencies settle through the payment-token collaborator.
// Any failure reverses every applied transfer and payment.
func (e *Engine) ExecuteBatch(ctx context.Context, call Call, address common.Address, request entity.BatchSaleRequest) ([]entity.TransferReceipt, error) {
	if len(request.Items) == 0 {
		return nil, errors.Wrap(errs.InvalidArgument, "batch must contain at least one item")
	}
	if request.Destination.IsZero() {
		return nil, errors.Wrap(errs.InvalidIdentity, "batch has no destination")
	}
	nativeSum := uint128.Zero
	for _, item := range request.Items {
		if item.Currency.IsNative() {
			nativeSum = nativeSum.Add(item.Price)
		}
	}
	if call.Value.Cmp(nativeSum) != 0 {
		return nil, errors.Wrapf(errs.InvalidArgument, "attached value %s does not match native price sum %s", call.Value, nativeSum)
	}

	var receipts []entity.TransferReceipt
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

		holders, err := e.verifyBatch(ctx, address, request)
		if err != nil {
			return err
		}
		receipts, err = e.applyBatch(ctx, dg, call, request, holders)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Settled batch sale",
			slogx.Stringer("contract", address),
			slogx.Int("items", len(receipts)),
			slogx.Int64("blockHeight", height),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// verifyBatch resolves every item's holder and checks the contract's transfer
// approval before anything moves.
func (e *Engine) verifyBatch(ctx context.Context, address common.Address, request entity.BatchSaleRequest) ([]crossaddr.CrossAddress, error) {
	holders := make([]crossaddr.CrossAddress, 0, len(request.Items))
	for i, item := range request.Items {
		holder, err := e.assets.OwnerOf(ctx, item.Collection, item.TokenID)
		if err != nil {
			return nil, batchItemError(i+1, err)
		}
		approved, err := e.assets.IsApprovedForAll(ctx, item.Collection, holder, address)
		if err != nil {
			return nil, batchItemError(i+1, err)
		}
		if !approved {
			return nil, batchItemError(i+1, errors.Wrapf(errs.Unauthorized, "holder %s has not approved the contract for %s", holder.Key(), item.Collection))
		}
		holders = append(holders, holder)
	}
	return holders, nil
}

// applyBatch settles payments and transfers item by item, keeping an undo list
// for the effects that live outside the datagateway transaction. On failure
// the undos run in reverse and the item error is returned.
func (e *Engine) applyBatch(ctx context.Context, dg datagateway.SettlementDataGateway, call Call, request entity.BatchSaleRequest, holders []crossaddr.CrossAddress) ([]entity.TransferReceipt, error) {
	var undos []func(context.Context) error
	rollback := func(cause error) error {
		for i := len(undos) - 1; i >= 0; i-- {
			if err := undos[i](ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to reverse batch step", err)
			}
		}
		return cause
	}

	receipts := make([]entity.TransferReceipt, 0, len(request.Items))
	for i, item := range request.Items {
		holder := holders[i]

		if item.Currency.IsNative() {
			// escrowed by beginCall; release to the holder
			if err := creditAccount(ctx, dg, holder.Key(), item.Price); err != nil {
				return nil, rollback(batchItemError(i+1, err))
			}
		} else if !item.Price.IsZero() {
			if err := e.payments.TransferPayment(ctx, item.Currency, call.Caller, holder, item.Price); err != nil {
				return nil, rollback(batchItemError(i+1, err))
			}
			currency, from, to, price := item.Currency, call.Caller, holder, item.Price
			undos = append(undos, func(ctx context.Context) error {
				return e.payments.TransferPayment(ctx, currency, to, from, price)
			})
		}

		if err := e.assets.Transfer(ctx, item.Collection, item.TokenID, holder, request.Destination); err != nil {
			return nil, rollback(batchItemError(i+1, err))
		}
		collection, tokenID, from := item.Collection, item.TokenID, holder
		undos = append(undos, func(ctx context.Context) error {
			return e.assets.Transfer(ctx, collection, tokenID, request.Destination, from)
		})

		receipts = append(receipts, entity.TransferReceipt{
			Index:      i + 1,
			Collection: item.Collection,
			TokenID:    item.TokenID,
			From:       holder,
			To:         request.Destination,
			Price:      item.Price,
			Currency:   item.Currency,
		})
	}
	return receipts, nil
}
