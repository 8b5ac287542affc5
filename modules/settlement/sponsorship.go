package settlement

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

// settleGas charges the flat per-call execution cost. A sponsored call debits
// the contract balance and stamps the caller's rate-limit height; an
// unsponsored call debits the caller's ledger balance, aborting with
// errs.InsufficientFunds when it cannot cover the fee. Rate-limit state is
// written only on the sponsored path.
func (e *Engine) settleGas(ctx context.Context, dg datagateway.SettlementDataGateway, contract *entity.SponsorContract, caller crossaddr.CrossAddress, height int64) (bool, error) {
	if e.gasFee.IsZero() {
		return false, nil
	}

	sponsored, err := e.shouldSponsor(ctx, dg, contract, caller, height)
	if err != nil {
		return false, err
	}
	if !sponsored {
		if err := debitAccount(ctx, dg, caller.Key(), e.gasFee); err != nil {
			return false, err
		}
		return false, nil
	}

	contract.Balance = contract.Balance.Sub(e.gasFee)
	if err := dg.UpdateContractBalance(ctx, contract.Address, contract.Balance); err != nil {
		return false, errors.Wrap(err, "failed to update contract balance")
	}
	if err := dg.SetLastSponsoredBlock(ctx, contract.Address, caller.Key(), height); err != nil {
		return false, errors.Wrap(err, "failed to update rate-limit state")
	}
	logger.DebugContext(ctx, "Sponsored call",
		slogx.Stringer("contract", contract.Address),
		slogx.String("caller", caller.Key()),
		slogx.Int64("blockHeight", height),
	)
	return true, nil
}

// shouldSponsor evaluates the contract's sponsorship policy for one call.
// An underfunded contract falls back to caller-paid rather than aborting.
func (e *Engine) shouldSponsor(ctx context.Context, dg datagateway.SettlementDataGateway, contract *entity.SponsorContract, caller crossaddr.CrossAddress, height int64) (bool, error) {
	config := contract.Sponsoring
	if !config.Enabled || config.Mode == entity.SponsoringDisabled {
		return false, nil
	}

	if config.Mode == entity.SponsoringAllowlisted {
		allowed, err := dg.GetAllowlisted(ctx, contract.Address, caller.Key())
		if err != nil {
			return false, errors.Wrap(err, "failed to check allowlist")
		}
		if !allowed {
			return false, nil
		}
	}

	if config.RateLimitBlocks > 0 {
		last, err := dg.GetLastSponsoredBlock(ctx, contract.Address, caller.Key())
		switch {
		case err != nil && errors.Is(err, errs.NotFound):
			// first sponsored call, no spacing to enforce
		case err != nil:
			return false, errors.Wrap(err, "failed to check rate-limit state")
		case height-last < config.RateLimitBlocks:
			return false, nil
		}
	}

	return contract.Balance.Cmp(e.gasFee) >= 0, nil
}
