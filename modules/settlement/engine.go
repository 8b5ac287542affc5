package settlement

import (
	"context"
	"crypto/sha256"
	"strconv"
	"sync"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/assetstore"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

const DefaultCreationLogRetention = 100

// Clock abstracts time for event-window checks. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Call identifies one caller-submitted operation: who signs it and how much
// native value rides along. The attached value is debited from the caller's
// ledger balance before the operation body runs.
type Call struct {
	Caller crossaddr.CrossAddress
	Value  uint128.Uint128
}

type EngineOptions struct {
	// GasFeePerCall is the flat execution cost debited per call, either from
	// the sponsor contract or from the caller's ledger balance.
	GasFeePerCall uint128.Uint128
	// CreationLogRetention bounds the per-contract creation log.
	CreationLogRetention int
	Clock                Clock
}

// Engine executes settlement calls transaction-serially: one mutex, one
// datagateway transaction per call, commit-or-nothing.
type Engine struct {
	datagateway  datagateway.SettlementDataGateway
	assets       assetstore.Contract
	payments     assetstore.PaymentContract
	clock        Clock
	gasFee       uint128.Uint128
	logRetention int
	mu           sync.Mutex
}

func NewEngine(dg datagateway.SettlementDataGateway, assets assetstore.Contract, payments assetstore.PaymentContract, options EngineOptions) *Engine {
	clock := options.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Engine{
		datagateway:  dg,
		assets:       assets,
		payments:     payments,
		clock:        clock,
		gasFee:       options.GasFeePerCall,
		logRetention: utils.Default(options.CreationLogRetention, DefaultCreationLogRetention),
	}
}

// withTx runs fn inside one datagateway transaction under the engine mutex.
// A commit failure surfaces as errs.ActionNotConfirmed: the call may or may
// not have landed and the caller must re-query before retrying.
func (e *Engine) withTx(ctx context.Context, fn func(dg datagateway.SettlementDataGatewayWithTx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.datagateway.BeginSettlementTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to rollback transaction", slogx.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(errs.ActionNotConfirmed, err.Error())
	}
	return nil
}

// beginCall debits the call's attached value from the caller's ledger balance.
func (e *Engine) beginCall(ctx context.Context, dg datagateway.SettlementDataGateway, call Call) error {
	if call.Caller.IsZero() {
		return errors.Wrap(errs.InvalidIdentity, "call has no caller")
	}
	if call.Value.IsZero() {
		return nil
	}
	return debitAccount(ctx, dg, call.Caller.Key(), call.Value)
}

func requireNoValue(call Call) error {
	if !call.Value.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "operation does not accept attached value")
	}
	return nil
}

func debitAccount(ctx context.Context, dg datagateway.SettlementDataGateway, account string, amount uint128.Uint128) error {
	balance, err := dg.GetAccountBalance(ctx, account)
	if err != nil {
		return errors.Wrap(err, "failed to get account balance")
	}
	if balance.Cmp(amount) < 0 {
		return errors.Wrapf(errs.InsufficientFunds, "account %s holds %s, needs %s", account, balance, amount)
	}
	if err := dg.SetAccountBalance(ctx, account, balance.Sub(amount)); err != nil {
		return errors.Wrap(err, "failed to set account balance")
	}
	return nil
}

func creditAccount(ctx context.Context, dg datagateway.SettlementDataGateway, account string, amount uint128.Uint128) error {
	if amount.IsZero() {
		return nil
	}
	balance, err := dg.GetAccountBalance(ctx, account)
	if err != nil {
		return errors.Wrap(err, "failed to get account balance")
	}
	if err := dg.SetAccountBalance(ctx, account, balance.Add(amount)); err != nil {
		return errors.Wrap(err, "failed to set account balance")
	}
	return nil
}

// Deposit credits an external account's ledger balance. It models value
// bridged into the engine and is not itself a metered call.
func (e *Engine) Deposit(ctx context.Context, account crossaddr.CrossAddress, amount uint128.Uint128) error {
	if account.IsZero() {
		return errors.Wrap(errs.InvalidIdentity, "deposit has no account")
	}
	if amount.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "deposit amount must be positive")
	}
	return e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		return creditAccount(ctx, dg, account.Key(), amount)
	})
}

// Deploy creates a sponsor contract funded with the call's attached value.
// The caller becomes the administrator and sponsoring starts disabled.
func (e *Engine) Deploy(ctx context.Context, call Call, feeAmount uint128.Uint128) (common.Address, error) {
	var address common.Address
	err := e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		if err := e.beginCall(ctx, dg, call); err != nil {
			return err
		}
		// no contract exists yet to sponsor the deployment
		if !e.gasFee.IsZero() {
			if err := debitAccount(ctx, dg, call.Caller.Key(), e.gasFee); err != nil {
				return err
			}
		}
		address = deriveContractAddress(call.Caller, height)
		contract := entity.SponsorContract{
			Address:   address,
			Admin:     call.Caller,
			Balance:   call.Value,
			FeeAmount: feeAmount,
			Sponsoring: entity.SponsorConfig{
				Enabled: false,
				Mode:    entity.SponsoringDisabled,
			},
			CreatedAt: e.clock.Now(),
		}
		if err := dg.CreateSponsorContract(ctx, contract); err != nil {
			return errors.Wrap(err, "failed to create sponsor contract")
		}
		logger.InfoContext(ctx, "Deployed sponsor contract",
			slogx.Stringer("address", address),
			slogx.String("admin", call.Caller.Key()),
			slogx.Int64("blockHeight", height),
		)
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return address, nil
}

// SetSponsoring replaces the contract's sponsorship policy. Admin only; the
// new policy applies from the next evaluated call.
func (e *Engine) SetSponsoring(ctx context.Context, call Call, address common.Address, config entity.SponsorConfig) error {
	if err := requireNoValue(call); err != nil {
		return err
	}
	if !config.Mode.IsValid() {
		return errors.Wrapf(errs.InvalidArgument, "unknown sponsoring mode %d", config.Mode)
	}
	if config.RateLimitBlocks < 0 {
		return errors.Wrap(errs.InvalidArgument, "rate limit must not be negative")
	}
	return e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		contract, err := e.loadContractForAdmin(ctx, dg, address, call)
		if err != nil {
			return err
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}
		if err := dg.UpdateSponsorConfig(ctx, address, config); err != nil {
			return errors.Wrap(err, "failed to update sponsor config")
		}
		return nil
	})
}

// SetAllowlisted registers or removes an account for Allowlisted-mode
// sponsorship on the contract. Admin only.
func (e *Engine) SetAllowlisted(ctx context.Context, call Call, address common.Address, account crossaddr.CrossAddress, allowed bool) error {
	if err := requireNoValue(call); err != nil {
		return err
	}
	if account.IsZero() {
		return errors.Wrap(errs.InvalidIdentity, "allowlist entry has no account")
	}
	return e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		contract, err := e.loadContractForAdmin(ctx, dg, address, call)
		if err != nil {
			return err
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}
		if err := dg.SetAllowlisted(ctx, address, account.Key(), allowed); err != nil {
			return errors.Wrap(err, "failed to set allowlist entry")
		}
		return nil
	})
}

// Withdraw moves part of the contract balance to the administrator's ledger
// account. Admin only; the amount must not exceed the post-gas balance.
func (e *Engine) Withdraw(ctx context.Context, call Call, address common.Address, amount uint128.Uint128) error {
	if err := requireNoValue(call); err != nil {
		return err
	}
	if amount.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "withdraw amount must be positive")
	}
	return e.withTx(ctx, func(dg datagateway.SettlementDataGatewayWithTx) error {
		height, err := dg.NextBlockHeight(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to advance block height")
		}
		contract, err := e.loadContractForAdmin(ctx, dg, address, call)
		if err != nil {
			return err
		}
		if _, err := e.settleGas(ctx, dg, contract, call.Caller, height); err != nil {
			return err
		}
		if contract.Balance.Cmp(amount) < 0 {
			return errors.Wrapf(errs.InsufficientFunds, "contract holds %s, requested %s", contract.Balance, amount)
		}
		contract.Balance = contract.Balance.Sub(amount)
		if err := dg.UpdateContractBalance(ctx, address, contract.Balance); err != nil {
			return errors.Wrap(err, "failed to update contract balance")
		}
		return creditAccount(ctx, dg, contract.Admin.Key(), amount)
	})
}

func (e *Engine) loadContract(ctx context.Context, dg datagateway.SettlementDataGateway, address common.Address) (*entity.SponsorContract, error) {
	contract, err := dg.GetSponsorContract(ctx, address)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return contract, nil
}

func (e *Engine) loadContractForAdmin(ctx context.Context, dg datagateway.SettlementDataGateway, address common.Address, call Call) (*entity.SponsorContract, error) {
	if call.Caller.IsZero() {
		return nil, errors.Wrap(errs.InvalidIdentity, "call has no caller")
	}
	contract, err := e.loadContract(ctx, dg, address)
	if err != nil {
		return nil, err
	}
	if !contract.Admin.Equal(call.Caller) {
		return nil, errors.Wrapf(errs.Unauthorized, "caller %s is not the administrator of %s", call.Caller.Key(), address)
	}
	return contract, nil
}

func deriveContractAddress(admin crossaddr.CrossAddress, height int64) common.Address {
	digest := sha256.Sum256([]byte("sponsor|" + admin.Key() + "|" + strconv.FormatInt(height, 10)))
	address, _ := common.AddressFromBytes(digest[:common.AddressLength])
	return address
}
