package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type getAccountBalanceResult struct {
	Account string       `json:"account"`
	Balance amountResult `json:"balance"`
}

type getAccountBalanceResponse = HttpResponse[getAccountBalanceResult]

// GetAccountBalance reads a ledger balance. The :account parameter is a
// canonical cross-address key ("evm:0x..." or "native:0x...").
func (h *HttpHandler) GetAccountBalance(ctx *fiber.Ctx) (err error) {
	account, err := crossaddr.ParseKey(ctx.Params("account"))
	if err != nil {
		return errs.NewPublicError("invalid account parameter")
	}

	balance, err := h.usecase.GetAccountBalance(ctx.UserContext(), account)
	if err != nil {
		return errors.Wrap(err, "error during GetAccountBalance")
	}

	resp := getAccountBalanceResponse{
		Result: &getAccountBalanceResult{
			Account: account.Key(),
			Balance: formatAmount(balance),
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
