package settlement

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

// chargeCreationFee gates a creation call on the contract's configured fee.
// The call's full attached value, already debited from the caller by
// beginCall, is escrowed into the contract balance. A later failure rolls the
// whole transaction back, so refunds never need explicit handling.
func chargeCreationFee(ctx context.Context, dg datagateway.SettlementDataGateway, contract *entity.SponsorContract, call Call) error {
	if call.Value.Cmp(contract.FeeAmount) < 0 {
		return errors.Wrapf(errs.InsufficientFee, "attached %s, fee is %s", call.Value, contract.FeeAmount)
	}
	if call.Value.IsZero() {
		return nil
	}
	contract.Balance = contract.Balance.Add(call.Value)
	if err := dg.UpdateContractBalance(ctx, contract.Address, contract.Balance); err != nil {
		return errors.Wrap(err, "failed to update contract balance")
	}
	return nil
}
